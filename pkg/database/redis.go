package database

import (
	"context"

	"resume-smart-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// NewRedis 初始化 Redis 客户端连接并测试连通性
func NewRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Info("Redis client connected successfully")
	return rdb, nil
}
