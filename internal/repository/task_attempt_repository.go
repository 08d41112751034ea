package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const attemptsPrefix = "kafka:attempts:"

// TaskAttemptRepository 记录异步任务的失败次数，用于限制 Kafka 重试。
type TaskAttemptRepository interface {
	Incr(ctx context.Context, taskKey string) (int64, error)
	Reset(ctx context.Context, taskKey string) error
}

type redisTaskAttemptRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskAttemptRepository 创建一个新的 TaskAttemptRepository 实例，计数保留 24 小时。
func NewTaskAttemptRepository(rdb *redis.Client) TaskAttemptRepository {
	return &redisTaskAttemptRepository{rdb: rdb, ttl: 24 * time.Hour}
}

func (r *redisTaskAttemptRepository) Incr(ctx context.Context, taskKey string) (int64, error) {
	key := attemptsPrefix + taskKey
	attempts, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = r.rdb.Expire(ctx, key, r.ttl).Err()
	return attempts, nil
}

func (r *redisTaskAttemptRepository) Reset(ctx context.Context, taskKey string) error {
	return r.rdb.Del(ctx, attemptsPrefix+taskKey).Err()
}
