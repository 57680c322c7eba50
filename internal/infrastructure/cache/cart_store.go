package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

const cartKeyPrefix = "cart:"

// RedisCartStore keeps carts as JSON under cart:<id>
type RedisCartStore struct {
	client *redis.Client
}

// NewRedisCartStore creates a cart store on an existing client
func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{client: client}
}

// Get loads a cart. Expired and unknown carts are shared.ErrNotFound.
func (s *RedisCartStore) Get(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound.Withf("cart %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &c, nil
}

// Save writes the cart and resets its TTL
func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart, ttl time.Duration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+c.ID.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Delete removes a cart
func (s *RedisCartStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, cartKeyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

var _ cart.Store = (*RedisCartStore)(nil)

type cartEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryCartStore is the cart store used when redis is disabled.
// Carts are stored encoded so callers never share a mutable cart.
type InMemoryCartStore struct {
	mu      sync.Mutex
	carts   map[uuid.UUID]cartEntry
	janitor *janitor
}

// NewInMemoryCartStore creates the store and its expiry goroutine
func NewInMemoryCartStore() *InMemoryCartStore {
	s := &InMemoryCartStore{carts: make(map[uuid.UUID]cartEntry)}
	s.janitor = startJanitor(time.Minute, s.cleanup)
	return s
}

// Get loads a cart
func (s *InMemoryCartStore) Get(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	s.mu.Lock()
	e, ok := s.carts[id]
	s.mu.Unlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, shared.ErrNotFound.Withf("cart %s not found", id)
	}

	var c cart.Cart
	if err := json.Unmarshal(e.data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &c, nil
}

// Save stores the cart with a fresh TTL
func (s *InMemoryCartStore) Save(ctx context.Context, c *cart.Cart, ttl time.Duration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[c.ID] = cartEntry{data: data, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Delete removes a cart
func (s *InMemoryCartStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
	return nil
}

// Close stops the expiry goroutine
func (s *InMemoryCartStore) Close() error {
	s.janitor.stop()
	return nil
}

func (s *InMemoryCartStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, e := range s.carts {
		if now.After(e.expiresAt) {
			delete(s.carts, id)
		}
	}
}

var _ cart.Store = (*InMemoryCartStore)(nil)
