// Package model 定义共享领域模型
package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// User 用户凭证记录
//
// Email 全局唯一（存储层唯一索引强制），写入前已归一化（trim + 小写）。
// PasswordHash 为 bcrypt 单向哈希，任何 API 响应中都不出现。
// Role 不可通过 API 修改；IsAllowed 仅管理员可改。
type User struct {
	ID           string    `json:"user_id" bson:"_id" db:"id"`
	Email        string    `json:"email" bson:"email" db:"email"`
	PasswordHash string    `json:"-" bson:"hashed_password" db:"hashed_password"`
	Name         string    `json:"name,omitempty" bson:"name,omitempty" db:"name"`
	Role         UserRole  `json:"role" bson:"role" db:"role"`
	IsAllowed    bool      `json:"is_allowed" bson:"is_allowed" db:"is_allowed"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
