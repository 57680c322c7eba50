package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations invalidates tokens before they expire: one token on logout,
// or every token of a staff member when they are deactivated or deleted.
type Revocations interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	RevokeStaff(ctx context.Context, staffID string, ttl time.Duration) error
	IsStaffRevoked(ctx context.Context, staffID string, issuedAt time.Time) (bool, error)
}

const revocationPrefix = "auth:revoked:"

// RedisRevocations keeps revocations in redis so every instance sees them
type RedisRevocations struct {
	client *redis.Client
}

var _ Revocations = (*RedisRevocations)(nil)

// NewRedisRevocations uses an existing client
func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func (r *RedisRevocations) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revocationPrefix+"jti:"+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revocationPrefix+"jti:"+jti).Result()
	if err != nil {
		return false, fmt.Errorf("auth: check token revocation: %w", err)
	}
	return n > 0, nil
}

// RevokeStaff stores the revocation time; tokens issued at or before it
// are rejected until ttl, the longest a token can live, has passed.
func (r *RedisRevocations) RevokeStaff(ctx context.Context, staffID string, ttl time.Duration) error {
	err := r.client.Set(ctx, revocationPrefix+"staff:"+staffID, time.Now().Unix(), ttl).Err()
	if err != nil {
		return fmt.Errorf("auth: revoke staff tokens: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsStaffRevoked(ctx context.Context, staffID string, issuedAt time.Time) (bool, error) {
	val, err := r.client.Get(ctx, revocationPrefix+"staff:"+staffID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: check staff revocation: %w", err)
	}
	revokedAt, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("auth: malformed revocation timestamp %q: %w", val, err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

// MemoryRevocations is the single-instance fallback used without redis
type MemoryRevocations struct {
	mu     sync.Mutex
	tokens map[string]time.Time // jti -> entry expiry
	staff  map[string]time.Time // staff id -> revoked at
	now    func() time.Time
}

var _ Revocations = (*MemoryRevocations)(nil)

// NewMemoryRevocations creates an empty store
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{
		tokens: make(map[string]time.Time),
		staff:  make(map[string]time.Time),
		now:    time.Now,
	}
}

func (m *MemoryRevocations) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[jti] = m.now().Add(ttl)
	return nil
}

func (m *MemoryRevocations) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.tokens[jti]
	if !ok {
		return false, nil
	}
	if m.now().After(exp) {
		delete(m.tokens, jti)
		return false, nil
	}
	return true, nil
}

func (m *MemoryRevocations) RevokeStaff(_ context.Context, staffID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[staffID] = m.now()
	return nil
}

// IsStaffRevoked compares at second precision, as JWT iat does
func (m *MemoryRevocations) IsStaffRevoked(_ context.Context, staffID string, issuedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	revokedAt, ok := m.staff[staffID]
	if !ok {
		return false, nil
	}
	return issuedAt.Unix() <= revokedAt.Unix(), nil
}
