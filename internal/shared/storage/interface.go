package storage

import (
	"context"

	"findoc-gateway/internal/shared/model"
)

// UserStore 用户凭证存储接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（主驱动）、repository/（postgres/sqlite）
//   - 启动时通过 DetectDriver 按连接字符串前缀选择驱动
//
// 查询约定：GetUserBy* 在记录不存在时返回 (nil, nil)，
// 调用方据此区分"没有该用户"和"存储不可达"。
type UserStore interface {
	// CreateUser 插入新用户；邮箱已被占用时返回 ErrDuplicate
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByEmail 按归一化邮箱查找
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUserByID 按用户 ID 查找
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// SetUserAccess 更新 is_allowed 标志；ID 不存在时返回 ErrNotFound。
	// 幂等：重复写入同一值不改变存储状态。
	SetUserAccess(ctx context.Context, id string, allowed bool) error

	// ListUsers 返回全部用户，按创建时间倒序
	ListUsers(ctx context.Context) ([]*model.User, error)

	// Ping 探测存储连通性（健康检查用）
	Ping(ctx context.Context) error

	// Close 释放连接
	Close() error
}
