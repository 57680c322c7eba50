package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// Stores bundles the cache backed stores the application needs
type Stores struct {
	Idempotency shared.IdempotencyStore
	Carts       cart.Store
	// Redis is nil when the in-memory stores are in use
	Redis *redis.Client

	closers []func() error
}

// Close releases every store
func (s *Stores) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// Factory creates the stores based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStores uses redis when enabled and reachable. Otherwise, if
// fallback is allowed, it returns in-memory stores.
func (f *Factory) CreateStores() (*Stores, error) {
	if f.redisConfig.Enabled {
		client, err := NewRedisClient(f.redisConfig)
		if err == nil {
			f.logger.Info("Using Redis cart and idempotency stores", zap.String("addr", f.redisConfig.Addr))
			return &Stores{
				Idempotency: NewRedisIdempotencyStore(client, ""),
				Carts:       NewRedisCartStore(client),
				Redis:       client,
				closers:     []func() error{client.Close},
			}, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
			"Carts and idempotency keys will not be shared across instances.",
			zap.Error(err))
	}

	return f.CreateInMemoryStores(), nil
}

// CreateInMemoryStores creates single-instance stores
func (f *Factory) CreateInMemoryStores() *Stores {
	idem := NewInMemoryIdempotencyStore()
	carts := NewInMemoryCartStore()
	return &Stores{
		Idempotency: idem,
		Carts:       carts,
		closers:     []func() error{idem.Close, carts.Close},
	}
}
