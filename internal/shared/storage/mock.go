package storage

import (
	"context"
	"sort"
	"sync"

	"findoc-gateway/internal/shared/model"
)

// MockStore 内存 UserStore 实现（用于测试）
//
// 行为与真实驱动对齐：email 唯一性在插入时强制，
// GetUserBy* 在记录不存在时返回 (nil, nil)。
type MockStore struct {
	mu    sync.RWMutex
	users map[string]*model.User // key: user ID

	// PingErr 非 nil 时 Ping 返回该错误（模拟存储不可达）
	PingErr error
	// FailAll 非 nil 时所有读写操作返回该错误
	FailAll error
}

var _ UserStore = (*MockStore)(nil)

// NewMockStore 创建内存存储实例
func NewMockStore() *MockStore {
	return &MockStore{users: make(map[string]*model.User)}
}

func (s *MockStore) CreateUser(ctx context.Context, user *model.User) error {
	if s.FailAll != nil {
		return s.FailAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MockStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.FailAll != nil {
		return nil, s.FailAll
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MockStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if s.FailAll != nil {
		return nil, s.FailAll
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *MockStore) SetUserAccess(ctx context.Context, id string, allowed bool) error {
	if s.FailAll != nil {
		return s.FailAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsAllowed = allowed
	return nil
}

func (s *MockStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	if s.FailAll != nil {
		return nil, s.FailAll
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MockStore) Ping(ctx context.Context) error {
	return s.PingErr
}

func (s *MockStore) Close() error {
	return nil
}
