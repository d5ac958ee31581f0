package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const connectLockPrefix = "connect-lock:"

// RedisConnectLockRepository holds a short-lived per-email lock so two
// connect attempts for the same account cannot interleave their vendor
// logins and store writes. The TTL bounds how long a crashed attempt can
// block the account.
type RedisConnectLockRepository struct {
	client *redis.Client
}

func NewRedisConnectLockRepository(client *redis.Client) *RedisConnectLockRepository {
	return &RedisConnectLockRepository{client: client}
}

func (r *RedisConnectLockRepository) Acquire(ctx context.Context, email string, ttl time.Duration) (bool, error) {
	acquired, err := r.client.SetNX(ctx, connectLockKey(email), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire connect lock: %w", err)
	}
	return acquired, nil
}

func (r *RedisConnectLockRepository) Release(ctx context.Context, email string) error {
	err := r.client.Del(ctx, connectLockKey(email)).Err()
	if err != nil {
		return fmt.Errorf("failed to release connect lock: %w", err)
	}
	return nil
}

func connectLockKey(email string) string {
	return connectLockPrefix + email
}
