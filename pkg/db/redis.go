package db

import (
	"github.com/go-redis/redis/v8"
)

// NewRedis 创建 Redis 客户端，addr 形如 host:port
func NewRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
