package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisDraftTTL bounds how long an abandoned remote draft copy lingers.
const redisDraftTTL = 30 * 24 * time.Hour

const redisKeyPrefix = "kyc:draft:"

// RedisMirror keeps a remote copy of the draft so a user can resume on
// another device. All operations are best-effort from the caller's view.
type RedisMirror struct {
	client *redis.Client
}

// NewRedisMirror wraps an existing go-redis client.
func NewRedisMirror(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client}
}

func (m *RedisMirror) Save(ctx context.Context, userID string, value []byte) error {
	if err := m.client.Set(ctx, redisKeyPrefix+userID, value, redisDraftTTL).Err(); err != nil {
		return fmt.Errorf("mirror draft: %w", err)
	}
	return nil
}

func (m *RedisMirror) Load(ctx context.Context, userID string) ([]byte, error) {
	value, err := m.client.Get(ctx, redisKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load mirrored draft: %w", err)
	}
	return value, nil
}

func (m *RedisMirror) Delete(ctx context.Context, userID string) error {
	if err := m.client.Del(ctx, redisKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("delete mirrored draft: %w", err)
	}
	return nil
}
