package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const blacklistPrefix = "blacklist:"

// TokenRepository 使用 Redis 维护登出后的 token 黑名单。
type TokenRepository interface {
	Revoke(ctx context.Context, tokenString string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenString string) (bool, error)
}

type redisTokenRepository struct {
	rdb *redis.Client
}

// NewTokenRepository 创建一个新的 TokenRepository 实例。
func NewTokenRepository(rdb *redis.Client) TokenRepository {
	return &redisTokenRepository{rdb: rdb}
}

// Revoke 把 token 加入黑名单，ttl 为 token 的剩余有效期。
func (r *redisTokenRepository) Revoke(ctx context.Context, tokenString string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, blacklistPrefix+tokenString, "true", ttl).Err()
}

func (r *redisTokenRepository) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	n, err := r.rdb.Exists(ctx, blacklistPrefix+tokenString).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
