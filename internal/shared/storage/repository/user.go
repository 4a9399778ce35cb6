package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"findoc-gateway/internal/shared/model"
	"findoc-gateway/internal/shared/storage"
)

var _ storage.UserStore = (*Store)(nil)

// CreateUser 创建用户
// email 唯一约束冲突转换为 storage.ErrDuplicate
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO users (id, email, hashed_password, name, role, is_allowed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`),
		user.ID, user.Email, user.PasswordHash, user.Name,
		user.Role, user.IsAllowed, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil && s.dialect.IsUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

// GetUserByEmail 通过邮箱查找用户
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, email, hashed_password, name, role, is_allowed, created_at, updated_at
		 FROM users WHERE email = $1`), email))
}

// GetUserByID 通过 ID 查找用户
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, email, hashed_password, name, role, is_allowed, created_at, updated_at
		 FROM users WHERE id = $1`), id))
}

// SetUserAccess 更新 is_allowed 标志
// 匹配行数为 0 说明用户不存在；重复写入同一值仍然匹配，天然幂等
func (s *Store) SetUserAccess(ctx context.Context, id string, allowed bool) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET is_allowed = $1, updated_at = $2 WHERE id = $3`),
		allowed, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListUsers 列出所有用户（创建时间倒序）
func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, email, hashed_password, name, role, is_allowed, created_at, updated_at
		 FROM users ORDER BY created_at DESC`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name,
			&u.Role, &u.IsAllowed, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name,
		&u.Role, &u.IsAllowed, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
