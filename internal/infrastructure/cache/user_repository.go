// Package cache puts Redis in front of identity resolution, which every
// thread listing does once per peer.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	"github.com/oksasatya/gigboard/internal/domain/repository"
	"github.com/oksasatya/gigboard/pkg/helpers"
)

type cachedIdentity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserRepository serves Resolve from Redis and delegates everything else.
// Redis failures fall back to the wrapped repository.
type UserRepository struct {
	repository.UserRepository
	Redis  *redis.Client
	TTL    time.Duration
	Logger *logrus.Logger
}

func NewUserRepository(next repository.UserRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *UserRepository {
	return &UserRepository{UserRepository: next, Redis: rdb, TTL: ttl, Logger: logger}
}

func identityKey(userID string) string { return "identity:" + userID }

func (r *UserRepository) Resolve(ctx context.Context, userID string) (*entity.Identity, error) {
	if r.Redis == nil || r.TTL <= 0 {
		return r.UserRepository.Resolve(ctx, userID)
	}

	var ci cachedIdentity
	found, err := helpers.RedisGetJSON(ctx, r.Redis, identityKey(userID), &ci)
	if err != nil {
		r.warn(err, userID, "identity cache read failed")
	}
	if found {
		return &entity.Identity{ID: ci.ID, DisplayName: ci.Name, Email: ci.Email}, nil
	}

	id, err := r.UserRepository.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	ci = cachedIdentity{ID: id.ID, Name: id.DisplayName, Email: id.Email}
	if err := helpers.RedisSetJSON(ctx, r.Redis, identityKey(userID), ci, r.TTL); err != nil {
		r.warn(err, userID, "identity cache write failed")
	}
	return id, nil
}

// Invalidate drops cached identities, e.g. after a profile rename.
func (r *UserRepository) Invalidate(ctx context.Context, userIDs ...string) error {
	if r.Redis == nil || len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = identityKey(id)
	}
	return helpers.RedisDel(ctx, r.Redis, keys...)
}

func (r *UserRepository) warn(err error, userID, msg string) {
	if r.Logger != nil {
		r.Logger.WithError(err).WithField("user_id", userID).Warn(msg)
	}
}

var _ repository.UserRepository = (*UserRepository)(nil)
