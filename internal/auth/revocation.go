package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenKeyPrefix = "revoked_token:"

// TokenRevoker records session token identifiers invalidated before expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevoker keeps revoked token identifiers in process memory.
// Suitable for single-node deployments and tests.
type MemoryRevoker struct {
	mu      sync.Mutex
	expiry  map[string]time.Time
	clock   func() time.Time
	lastGC  time.Time
	gcEvery time.Duration
}

// NewMemoryRevoker constructs an in-memory revocation store.
func NewMemoryRevoker(clock func() time.Time) *MemoryRevoker {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryRevoker{
		expiry:  make(map[string]time.Time),
		clock:   clock,
		gcEvery: time.Minute,
	}
}

// Revoke marks the token identifier invalid until its natural expiry.
func (r *MemoryRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	r.expiry[tokenID] = r.clock().Add(ttl)
	return nil
}

// IsRevoked reports whether the token identifier has been revoked.
func (r *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	deadline, ok := r.expiry[tokenID]
	if !ok {
		return false, nil
	}
	if r.clock().After(deadline) {
		delete(r.expiry, tokenID)
		return false, nil
	}
	return true, nil
}

// sweepLocked drops expired entries; throttled so frequent revokes stay cheap.
func (r *MemoryRevoker) sweepLocked() {
	now := r.clock()
	if now.Sub(r.lastGC) < r.gcEvery {
		return
	}
	for tokenID, deadline := range r.expiry {
		if now.After(deadline) {
			delete(r.expiry, tokenID)
		}
	}
	r.lastGC = now
}

// RedisRevoker stores revoked token identifiers in Redis with a TTL, so
// revocations are shared across API instances.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker wraps an existing Redis client as a revocation store.
func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

// Revoke marks the token identifier invalid for the remaining token lifetime.
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedTokenKeyPrefix+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether the token identifier has been revoked.
func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	err := r.client.Get(ctx, revokedTokenKeyPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NewRedisClient builds a Redis client for the revocation store.
func NewRedisClient(address, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
	})
}
