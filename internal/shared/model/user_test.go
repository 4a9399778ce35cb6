package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_BasicFields(t *testing.T) {
	now := time.Now()
	user := User{
		ID:           "usr-abc123",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$fakehash",
		Name:         "Alice",
		Role:         UserRoleUser,
		IsAllowed:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	assert.Equal(t, "usr-abc123", user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, UserRoleUser, user.Role)
	assert.False(t, user.IsAllowed)
	assert.False(t, user.IsAdmin())
}

func TestUser_IsAdmin(t *testing.T) {
	admin := User{ID: "usr-1", Role: UserRoleAdmin}
	user := User{ID: "usr-2", Role: UserRoleUser}

	assert.True(t, admin.IsAdmin())
	assert.False(t, user.IsAdmin())
}

// JSON 序列化：ID 输出为 user_id，密码哈希绝不出现
func TestUser_JSONSerialization(t *testing.T) {
	user := User{
		ID:           "usr-abc123",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$fakehash",
		Name:         "Alice",
		Role:         UserRoleAdmin,
		IsAllowed:    true,
	}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "usr-abc123", raw["user_id"])
	assert.Equal(t, "admin", raw["role"])
	assert.Equal(t, true, raw["is_allowed"])
	assert.NotContains(t, string(data), "fakehash")
	assert.NotContains(t, raw, "hashed_password")
}

// name 为空时 omitempty 省略字段
func TestUser_JSONOmitsEmptyName(t *testing.T) {
	user := User{ID: "usr-1", Email: "a@b.com", Role: UserRoleUser}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "name")
}
