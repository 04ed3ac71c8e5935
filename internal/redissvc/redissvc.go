// Package redissvc holds the shared Redis client.
package redissvc

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	rdb *redis.Client
}

func NewRedisService(addr, password string, db int) *RedisService {
	return &RedisService{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// FromClient wraps an existing client.
func FromClient(rdb *redis.Client) *RedisService {
	return &RedisService{rdb: rdb}
}

func (s *RedisService) Rdb() *redis.Client {
	return s.rdb
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisService) Close() error {
	return s.rdb.Close()
}
