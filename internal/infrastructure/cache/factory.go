package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Coordination bundles what saga handlers need to run exactly once across
// instances
type Coordination struct {
	Idempotency shared.IdempotencyStore
	Locker      shared.Locker
	Backend     string // "redis" or "memory"

	client redis.UniversalClient
}

// Close releases the stores and the redis client
func (c *Coordination) Close() error {
	err := c.Idempotency.Close()
	if c.client != nil {
		if cerr := c.client.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// FactoryOption configures NewCoordination
type FactoryOption func(*factory)

type factory struct {
	logger                *zap.Logger
	allowInMemoryFallback bool
	lockWait              time.Duration
}

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// process-local stores. Default true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithLockWait bounds how long a step waits for a held lock
func WithLockWait(d time.Duration) FactoryOption {
	return func(f *factory) {
		f.lockWait = d
	}
}

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewCoordination builds Redis-backed stores when redis.host is set, and
// in-memory stores otherwise
func NewCoordination(ctx context.Context, cfg config.RedisConfig, opts ...FactoryOption) (*Coordination, error) {
	f := &factory{
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		lockWait:              5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}

	if cfg.Host == "" {
		f.logger.Info("redis not configured, using in-memory saga coordination")
		return inMemory(f.lockWait), nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required for saga coordination: %w", err)
		}
		f.logger.Warn("redis unavailable, falling back to in-memory saga coordination; "+
			"duplicate step execution is possible with more than one instance",
			zap.Error(err),
		)
		return inMemory(f.lockWait), nil
	}

	f.logger.Info("using redis saga coordination", zap.String("addr", cfg.Addr()))
	return &Coordination{
		Idempotency: NewRedisIdempotencyStore(client, ""),
		Locker:      NewRedisLocker(client, f.lockWait),
		Backend:     "redis",
		client:      client,
	}, nil
}

func inMemory(lockWait time.Duration) *Coordination {
	return &Coordination{
		Idempotency: NewInMemoryIdempotencyStore(),
		Locker:      NewInMemoryLocker(lockWait),
		Backend:     "memory",
	}
}
