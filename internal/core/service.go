// Package core implements the guardianpaws application service: identity,
// report intake, the lifecycle engine, conversations and dashboards, all run
// through transactional stores validated by the rules engine.
package core

import (
	"context"
	"time"

	"guardianpaws/internal/blob"
	"guardianpaws/internal/infra/persistence/memory"
	"guardianpaws/internal/triage"
	"guardianpaws/pkg/domain"
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
	RulesEngine     = domain.RulesEngine
	Result          = domain.Result
)

// Logger receives structured key/value log lines.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// MetricsRecorder observes the outcome and latency of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts a span per service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended with the operation error, if any.
type TraceSpan interface {
	End(err error)
}

// AuditStatus is the outcome recorded in an audit entry.
type AuditStatus string

const (
	// AuditStatusSuccess marks an operation that committed.
	AuditStatusSuccess AuditStatus = "success"
	// AuditStatusError marks an operation that returned an error.
	AuditStatusError AuditStatus = "error"
)

// AuditEntry describes one mutating operation.
type AuditEntry struct {
	Operation string
	Entity    domain.EntityType
	Action    domain.Action
	EntityID  string
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// Clock supplies timestamps for audit entries and photo pruning.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// CredentialVerifier checks a password for an identified actor.
type CredentialVerifier interface {
	Verify(ctx context.Context, actor domain.Actor, password string) error
}

// AcceptAllCredentials performs no verification.
type AcceptAllCredentials struct{}

// Verify implements CredentialVerifier.
func (AcceptAllCredentials) Verify(context.Context, domain.Actor, string) error { return nil }

// Defaults for report intake.
const (
	DefaultMaxPhotoBytes  = 10 << 20
	DefaultTriageTimeout  = 20 * time.Second
	DefaultPhotoPruneWait = 10 * time.Minute
)

type serviceOptions struct {
	logger        Logger
	metrics       MetricsRecorder
	tracer        Tracer
	audit         AuditRecorder
	clock         Clock
	photos        blob.Store
	analyzer      triage.Analyzer
	triageTimeout time.Duration
	verifier      CredentialVerifier
	maxPhotoBytes int64
}

// Option configures a Service.
type Option func(*serviceOptions)

// WithLogger sets the service logger.
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(metrics MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) Option {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(audit AuditRecorder) Option {
	return func(o *serviceOptions) {
		if audit != nil {
			o.audit = audit
		}
	}
}

// WithClock overrides the clock used for audit timestamps and photo pruning.
func WithClock(clock Clock) Option {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithPhotoStore sets where report photos are written. Defaults to memory.
func WithPhotoStore(store blob.Store) Option {
	return func(o *serviceOptions) {
		if store != nil {
			o.photos = store
		}
	}
}

// WithTriage sets the analyzer consulted on report intake. Without one,
// reports carry only a caller-supplied triage note.
func WithTriage(analyzer triage.Analyzer, timeout time.Duration) Option {
	return func(o *serviceOptions) {
		o.analyzer = analyzer
		if timeout > 0 {
			o.triageTimeout = timeout
		}
	}
}

// WithCredentialVerifier replaces the accept-all verifier.
func WithCredentialVerifier(verifier CredentialVerifier) Option {
	return func(o *serviceOptions) {
		if verifier != nil {
			o.verifier = verifier
		}
	}
}

// WithMaxPhotoBytes caps uploaded photo size.
func WithMaxPhotoBytes(limit int64) Option {
	return func(o *serviceOptions) {
		if limit > 0 {
			o.maxPhotoBytes = limit
		}
	}
}

// Service exposes the transactional operations of the rescue workflow.
type Service struct {
	store         PersistentStore
	logger        Logger
	metrics       MetricsRecorder
	tracer        Tracer
	audit         AuditRecorder
	clock         Clock
	photos        blob.Store
	analyzer      triage.Analyzer
	triageTimeout time.Duration
	verifier      CredentialVerifier
	maxPhotoBytes int64
}

// NewService constructs a service backed by store.
func NewService(store PersistentStore, opts ...Option) *Service {
	cfg := serviceOptions{
		logger:        noopLogger{},
		metrics:       noopMetricsRecorder{},
		tracer:        noopTracer{},
		audit:         noopAuditRecorder{},
		triageTimeout: DefaultTriageTimeout,
		verifier:      AcceptAllCredentials{},
		maxPhotoBytes: DefaultMaxPhotoBytes,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		if now := store.NowFunc(); now != nil {
			cfg.clock = ClockFunc(now)
		} else {
			cfg.clock = ClockFunc(func() time.Time { return time.Now().UTC() })
		}
	}
	if cfg.photos == nil {
		cfg.photos = blob.NewMemory()
	}
	return &Service{
		store:         store,
		logger:        cfg.logger,
		metrics:       cfg.metrics,
		tracer:        cfg.tracer,
		audit:         cfg.audit,
		clock:         cfg.clock,
		photos:        cfg.photos,
		analyzer:      cfg.analyzer,
		triageTimeout: cfg.triageTimeout,
		verifier:      cfg.verifier,
		maxPhotoBytes: cfg.maxPhotoBytes,
	}
}

// NewInMemoryService creates a service over a fresh in-memory store. A nil
// engine gets the default rule set.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Photos returns the photo blob store.
func (s *Service) Photos() blob.Store { return s.photos }

type operationMeta struct {
	entity domain.EntityType
	action domain.Action
}

const (
	opRegisterReporter = "register_reporter"
	opRegisterNGO      = "register_ngo"
	opAuthenticate     = "authenticate"
	opAwardPoints      = "award_points"
	opSubmitReport     = "submit_report"
	opUpdateStatus     = "update_status"
	opCloseReport      = "close_report"
	opAppendMessage    = "append_message"
	opPrunePhotos      = "prune_photos"
)

var auditedOperations = map[string]operationMeta{
	opRegisterReporter: {entity: domain.EntityReporter, action: domain.ActionCreate},
	opRegisterNGO:      {entity: domain.EntityNGO, action: domain.ActionCreate},
	opAwardPoints:      {entity: domain.EntityReporter, action: domain.ActionUpdate},
	opSubmitReport:     {entity: domain.EntityReport, action: domain.ActionCreate},
	opUpdateStatus:     {entity: domain.EntityReport, action: domain.ActionUpdate},
	opCloseReport:      {entity: domain.EntityReport, action: domain.ActionUpdate},
	opAppendMessage:    {entity: domain.EntityReport, action: domain.ActionUpdate},
}

// run wraps an operation with tracing, metrics, audit and logging. fn
// returns the id of the entity it touched.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context) (string, error)) error {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()
	entityID, err := fn(ctx)
	elapsed := time.Since(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "entity_id", entityID, "error", err)
		s.recordAudit(ctx, op, entityID, elapsed, err)
		return err
	}
	s.logger.Debug("operation completed", "operation", op, "entity_id", entityID, "duration", elapsed)
	s.recordAuditSuccess(ctx, op, entityID, elapsed)
	return nil
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	s.recordAudit(ctx, op, entityID, duration, nil)
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	meta, ok := auditedOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}
