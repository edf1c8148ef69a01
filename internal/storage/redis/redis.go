// Package redis implements the shared revocation store: a registry of
// revoked token identifiers whose entries expire together with the tokens
// they invalidate. It is the single source of truth for revocation across
// all server instances; results must not be cached in-process.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "token:revoked:"

type RevocationStore struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RevocationStore, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RevocationStore{
		client: client,
	}, nil
}

// Revoke marks a token id as revoked for ttl. Re-revoking an id is a no-op.
// A non-positive ttl means the token is already past its own expiry and
// nothing is stored.
func (r *RevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	const op = "storage.redis.Revoke"

	if ttl <= 0 {
		return nil
	}

	err := r.client.Set(ctx, revokedKeyPrefix+jti, "revoked", ttl).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsRevoked reports whether a token id has been revoked. Errors propagate to
// the caller, which must fail closed.
func (r *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	const op = "storage.redis.IsRevoked"

	n, err := r.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (r *RevocationStore) Close() {
	r.client.Close()
}
