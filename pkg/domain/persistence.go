package domain

import (
	"context"
	"time"
)

// Collection keys used by durable snapshot backends.
const (
	BucketReporters = "reporters"
	BucketNGOs      = "ngos"
	BucketReports   = "reports"
)

// Buckets lists every persisted collection key.
func Buckets() []string {
	return []string{BucketReporters, BucketNGOs, BucketReports}
}

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	// Now is the timestamp stamped onto every record touched by the transaction.
	Now() time.Time
	CreateReporter(Reporter) (Reporter, error)
	UpdateReporter(id string, mutator func(*Reporter) error) (Reporter, error)
	CreateNGO(NGO) (NGO, error)
	CreateReport(RescueReport) (RescueReport, error)
	UpdateReport(id string, mutator func(*RescueReport) error) (RescueReport, error)
	FindReporter(id string) (Reporter, bool)
	FindNGO(id string) (NGO, bool)
	FindReport(id string) (RescueReport, bool)
	FindReporterByEmail(email string) (Reporter, bool)
	FindNGOByEmail(email string) (NGO, bool)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	FindReporterByEmail(email string) (Reporter, bool)
	FindNGOByEmail(email string) (NGO, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetReporter(id string) (Reporter, bool)
	GetNGO(id string) (NGO, bool)
	GetReport(id string) (RescueReport, bool)
	ListReporters() []Reporter
	ListNGOs() []NGO
	// ListReports returns every report, newest created first.
	ListReports() []RescueReport
	NowFunc() func() time.Time
	Close() error
}
