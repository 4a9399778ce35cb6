package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"findoc-gateway/internal/shared/model"
)

// MockStore 必须与真实驱动保持同一套契约：
// 未命中返回 (nil, nil)，重复邮箱返回 ErrDuplicate，
// 更新不存在的用户返回 ErrNotFound。
func TestMockStoreContract(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()

	t.Run("miss returns nil nil", func(t *testing.T) {
		user, err := store.GetUserByID(ctx, "usr-missing")
		if err != nil || user != nil {
			t.Errorf("GetUserByID() = (%v, %v), want (nil, nil)", user, err)
		}
		user, err = store.GetUserByEmail(ctx, "missing@example.com")
		if err != nil || user != nil {
			t.Errorf("GetUserByEmail() = (%v, %v), want (nil, nil)", user, err)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		u := &model.User{ID: "usr-1", Email: "dup@example.com"}
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
		other := &model.User{ID: "usr-2", Email: "dup@example.com"}
		if err := store.CreateUser(ctx, other); !errors.Is(err, ErrDuplicate) {
			t.Errorf("CreateUser() error = %v, want ErrDuplicate", err)
		}
	})

	t.Run("set access unknown user", func(t *testing.T) {
		if err := store.SetUserAccess(ctx, "usr-ghost", true); !errors.Is(err, ErrNotFound) {
			t.Errorf("SetUserAccess() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		fresh := NewMockStore()
		base := time.Now()
		for i, id := range []string{"usr-a", "usr-b", "usr-c"} {
			fresh.CreateUser(ctx, &model.User{
				ID:        id,
				Email:     id + "@example.com",
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			})
		}
		users, err := fresh.ListUsers(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(users) != 3 || users[0].ID != "usr-c" || users[2].ID != "usr-a" {
			t.Errorf("ListUsers() order wrong: %v", users)
		}
	})

	t.Run("returns copies", func(t *testing.T) {
		fresh := NewMockStore()
		fresh.CreateUser(ctx, &model.User{ID: "usr-cp", Email: "cp@example.com"})
		got, _ := fresh.GetUserByID(ctx, "usr-cp")
		got.Email = "mutated@example.com"
		again, _ := fresh.GetUserByID(ctx, "usr-cp")
		if again.Email != "cp@example.com" {
			t.Error("store leaked internal pointer")
		}
	})
}

func TestDetectDriver(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"mongodb://localhost:27017", "mongodb"},
		{"mongodb+srv://cluster.net/db", "mongodb"},
		{"postgres://u:p@localhost/db", "postgres"},
		{"postgresql://u:p@localhost/db", "postgres"},
		{"file:/tmp/x.db", "sqlite"},
		{"sqlite:///tmp/x.db", "sqlite"},
		{"", "mongodb"},
	}
	for _, tt := range tests {
		if got := DetectDriver(tt.url); got != tt.want {
			t.Errorf("DetectDriver(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
