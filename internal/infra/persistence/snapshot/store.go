// Package snapshot layers durable bucket snapshots over the in-memory store.
// Every committed transaction rewrites the reporters, ngos and reports
// collections through a Backend; the working set stays in memory.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"guardianpaws/internal/infra/persistence/memory"
	"guardianpaws/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// Bucket is one persisted collection payload.
type Bucket struct {
	Name    string
	Payload []byte
}

// Backend loads and saves collection payloads.
type Backend interface {
	// Load returns the stored payload for bucket, or nil when nothing was saved yet.
	Load(ctx context.Context, bucket string) ([]byte, error)
	// Save writes all buckets in one unit where the backend supports it.
	Save(ctx context.Context, buckets []Bucket) error
	Close() error
}

// Logger is the subset of the service logger the store reports degradations to.
type Logger interface {
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Option configures a snapshot store.
type Option func(*options)

type options struct {
	logger  Logger
	memOpts []memory.Option
}

// WithLogger reports undecodable buckets and failed writes to logger.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMemoryOptions forwards options to the in-memory working set.
func WithMemoryOptions(opts ...memory.Option) Option {
	return func(o *options) { o.memOpts = append(o.memOpts, opts...) }
}

// Store persists the in-memory state through a Backend after each successful transaction.
type Store struct {
	*memory.Store
	backend  Backend
	logger   Logger
	mu       sync.Mutex
	failures atomic.Int64
}

// Open hydrates a store from backend. A bucket that cannot be decoded is
// logged and treated as empty; a backend read error aborts.
func Open(ctx context.Context, backend Backend, engine *domain.RulesEngine, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("snapshot backend required")
	}
	cfg := options{logger: noopLogger{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	var snap memory.Snapshot
	targets := map[string]any{
		domain.BucketReporters: &snap.Reporters,
		domain.BucketNGOs:      &snap.NGOs,
		domain.BucketReports:   &snap.Reports,
	}
	for _, bucket := range domain.Buckets() {
		payload, err := backend.Load(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", bucket, err)
		}
		if len(payload) == 0 {
			continue
		}
		if err := json.Unmarshal(payload, targets[bucket]); err != nil {
			cfg.logger.Warn("discarding undecodable bucket", "bucket", bucket, "error", err)
			resetBucket(&snap, bucket)
		}
	}
	mem := memory.NewStore(engine, cfg.memOpts...)
	mem.ImportState(snap)
	return &Store{Store: mem, backend: backend, logger: cfg.logger}, nil
}

func resetBucket(snap *memory.Snapshot, bucket string) {
	switch bucket {
	case domain.BucketReporters:
		snap.Reporters = nil
	case domain.BucketNGOs:
		snap.NGOs = nil
	case domain.BucketReports:
		snap.Reports = nil
	}
}

// RunInTransaction applies fn, then snapshots state to the backend if the
// transaction committed. A failed snapshot write is logged and counted but does
// not fail the committed operation; the next successful write carries the full state.
// The write outlives cancellation of ctx so an acknowledged commit is not dropped.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.Persist(context.WithoutCancel(ctx)); pErr != nil {
		s.failures.Add(1)
		s.logger.Error("snapshot write failed", "error", pErr)
	}
	return res, nil
}

// Persist writes the current state of every bucket.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.ExportState()
	buckets, err := encodeBuckets(snap)
	if err != nil {
		return err
	}
	return s.backend.Save(ctx, buckets)
}

// PersistFailures returns how many post-commit snapshot writes failed.
func (s *Store) PersistFailures() int64 { return s.failures.Load() }

// Backend exposes the underlying backend.
func (s *Store) Backend() Backend { return s.backend }

// Close releases the backend.
func (s *Store) Close() error { return s.backend.Close() }

func encodeBuckets(snap memory.Snapshot) ([]Bucket, error) {
	values := map[string]any{
		domain.BucketReporters: nonNil(snap.Reporters),
		domain.BucketNGOs:      nonNil(snap.NGOs),
		domain.BucketReports:   nonNil(snap.Reports),
	}
	out := make([]Bucket, 0, len(values))
	for _, name := range domain.Buckets() {
		data, err := json.Marshal(values[name])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		out = append(out, Bucket{Name: name, Payload: data})
	}
	return out, nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
