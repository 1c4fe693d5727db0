// Package redis persists guardianpaws snapshots as one Redis string per bucket.
package redis

import (
	"context"
	"errors"
	"fmt"

	"guardianpaws/internal/infra/persistence/snapshot"
	"guardianpaws/pkg/domain"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces bucket keys.
const DefaultPrefix = "guardianpaws:state:"

var _ snapshot.Backend = (*Backend)(nil)

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Backend stores bucket payloads under <prefix><bucket>.
type Backend struct {
	client goredis.UniversalClient
	prefix string
}

// OpenBackend connects and pings the server.
func OpenBackend(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewBackend(client, cfg.Prefix), nil
}

// NewBackend wraps an existing client.
func NewBackend(client goredis.UniversalClient, prefix string) *Backend {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Backend{client: client, prefix: prefix}
}

// Key returns the Redis key holding bucket.
func (b *Backend) Key(bucket string) string { return b.prefix + bucket }

// Load implements snapshot.Backend.
func (b *Backend) Load(ctx context.Context, bucket string) ([]byte, error) {
	payload, err := b.client.Get(ctx, b.Key(bucket)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", bucket, err)
	}
	return payload, nil
}

// Save implements snapshot.Backend. Buckets are written inside MULTI/EXEC.
func (b *Backend) Save(ctx context.Context, buckets []snapshot.Bucket) error {
	_, err := b.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, bucket := range buckets {
			pipe.Set(ctx, b.Key(bucket.Name), bucket.Payload, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Close implements snapshot.Backend.
func (b *Backend) Close() error { return b.client.Close() }

// NewStore opens a Redis-backed store and hydrates it from any existing snapshot.
func NewStore(ctx context.Context, cfg Config, engine *domain.RulesEngine, opts ...snapshot.Option) (*snapshot.Store, error) {
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := snapshot.Open(ctx, backend, engine, opts...)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return store, nil
}
