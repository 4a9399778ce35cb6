// Package cache 定义认证身份缓存接口
//
// 访问门禁在每个受保护请求上按 token subject 回查用户记录，
// 该缓存在凭证存储前挡掉高频回查。短 TTL + SetAccess 时主动失效，
// 保证 is_allowed 变更的可见性；缓存的是脱敏记录（不含密码哈希），
// 不是会话存储，令牌本身保持无状态。
package cache

import (
	"context"
	"time"

	"findoc-gateway/internal/shared/model"
)

// KeyAuthUser 身份缓存键前缀
const KeyAuthUser = "auth_user:"

// DefaultTTL 身份缓存有效期
// 取值权衡：太长会延迟管理端 deny 的生效（主动失效只覆盖 SetAccess 路径），
// 太短则缓存失去意义
const DefaultTTL = 30 * time.Second

// UserCache 身份缓存接口
// 未命中时返回 (nil, nil)；缓存故障不应阻断请求，调用方降级回存储
type UserCache interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetUser(ctx context.Context, user *model.User) error
	InvalidateUser(ctx context.Context, id string) error
}
