package mongostore

import (
	"context"
	"time"

	"findoc-gateway/internal/shared/model"
	"findoc-gateway/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ storage.UserStore = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

// SetUserAccess 更新 is_allowed 标志
// UpdateOne 以 MatchedCount 判存在性，重复写入同一值天然幂等
func (s *Store) SetUserAccess(ctx context.Context, id string, allowed bool) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "is_allowed", Value: allowed},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.User](ctx, s.col(ColUsers), bson.D{}, opts)
}
