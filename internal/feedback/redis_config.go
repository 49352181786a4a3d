package feedback

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const configKeyPrefix = "calibration:"

// RedisConfigStore keeps the live calibration parameters in Redis so the
// query path and feedback path share one source of truth across restarts.
type RedisConfigStore struct {
	client *redis.Client
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisConfigStore connects to Redis and verifies the connection
func NewRedisConfigStore(cfg RedisConfig) (*RedisConfigStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisConfigStore{client: client}, nil
}

// Get reads a calibration parameter; absence is not an error
func (s *RedisConfigStore) Get(ctx context.Context, key string) (float64, bool, error) {
	val, err := s.client.Get(ctx, configKeyPrefix+key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed value for %s: %w", key, err)
	}
	return f, true, nil
}

// Set writes a calibration parameter
func (s *RedisConfigStore) Set(ctx context.Context, key string, value float64) error {
	val := strconv.FormatFloat(value, 'f', -1, 64)
	if err := s.client.Set(ctx, configKeyPrefix+key, val, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisConfigStore) Close() error {
	return s.client.Close()
}
