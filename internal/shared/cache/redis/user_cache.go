package redis

import (
	"context"
	"encoding/json"
	"errors"

	"findoc-gateway/internal/shared/cache"
	"findoc-gateway/internal/shared/model"

	"github.com/redis/go-redis/v9"
)

var _ cache.UserCache = (*Store)(nil)

// GetUser 按用户 ID 读取缓存身份；未命中返回 (nil, nil)
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	data, err := s.client.Get(ctx, cache.KeyAuthUser+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUser 写入脱敏身份记录（密码哈希不进缓存）
func (s *Store) SetUser(ctx context.Context, user *model.User) error {
	sanitized := *user
	sanitized.PasswordHash = ""
	data, err := json.Marshal(&sanitized)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cache.KeyAuthUser+user.ID, data, cache.DefaultTTL).Err()
}

// InvalidateUser 主动失效（SetAccess 变更权限后调用）
func (s *Store) InvalidateUser(ctx context.Context, id string) error {
	return s.client.Del(ctx, cache.KeyAuthUser+id).Err()
}
