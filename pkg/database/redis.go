package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"tasktracker/configs"
)

func ConnectRedis(cfg configs.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}
	return client, nil
}

// RedisStorage adapts a redis client to fiber.Storage so sessions and rate
// limiter counters survive restarts and are shared between instances.
// Keys are namespaced with Prefix.
type RedisStorage struct {
	Client *redis.Client
	Prefix string
}

func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{Client: client, Prefix: prefix}
}

func (s *RedisStorage) key(k string) string { return s.Prefix + k }

// Get returns nil, nil for a missing key as fiber.Storage requires.
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := s.Client.Get(context.Background(), s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.Client.Set(context.Background(), s.key(key), val, exp).Err()
}

func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.Client.Del(context.Background(), s.key(key)).Err()
}

// Reset removes every key under Prefix.
func (s *RedisStorage) Reset() error {
	ctx := context.Background()
	iter := s.Client.Scan(ctx, 0, s.Prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the client is owned by whoever created it.
func (s *RedisStorage) Close() error { return nil }
