package snapshot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"guardianpaws/internal/infra/persistence/memory"
	"guardianpaws/pkg/domain"
)

type captureLogger struct {
	warns  []string
	errors []string
}

func (c *captureLogger) Warn(msg string, _ ...any)  { c.warns = append(c.warns, msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.errors = append(c.errors, msg) }

func seedReport(t *testing.T, store *Store) domain.RescueReport {
	t.Helper()
	var created domain.RescueReport
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		reporter, err := tx.CreateReporter(domain.Reporter{Name: "Aarav", Email: "aarav@test.com", Points: 10})
		if err != nil {
			return err
		}
		ngoID := "n1"
		if _, err := tx.CreateNGO(domain.NGO{ID: ngoID, Name: "Animal Angels", Email: "ngo@test.com"}); err != nil {
			return err
		}
		created, err = tx.CreateReport(domain.RescueReport{
			ReporterID:    reporter.ID,
			Description:   "Injured dog",
			Location:      domain.Location{Latitude: 28.6315, Longitude: 77.2167},
			Status:        domain.StatusAccepted,
			AssignedNGOID: &ngoID,
			TriageNote:    "Urgency: Moderate",
			Conversation: []domain.ChatMessage{
				{ID: "m1", SenderID: ngoID, Text: "On our way", Timestamp: tx.Now()},
				{ID: "m2", SenderID: reporter.ID, Text: "Thank you", Timestamp: tx.Now().Add(time.Second)},
			},
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return created
}

func TestSnapshotRoundTripPreservesRecords(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	fixed := time.Date(2024, 6, 1, 12, 30, 15, 123456789, time.UTC)
	store, err := Open(ctx, backend, nil, WithMemoryOptions(memory.WithClock(func() time.Time { return fixed })))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	created := seedReport(t, store)
	if backend.Saves() != 1 {
		t.Fatalf("expected one snapshot write, got %d", backend.Saves())
	}

	reopened, err := Open(ctx, backend, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := reopened.GetReport(created.ID)
	if !ok {
		t.Fatalf("expected report after reload")
	}
	if !got.CreatedAt.Equal(fixed) || !got.UpdatedAt.Equal(fixed) {
		t.Fatalf("timestamps did not round-trip: %v / %v", got.CreatedAt, got.UpdatedAt)
	}
	if got.AssignedNGOID == nil || *got.AssignedNGOID != "n1" {
		t.Fatalf("assignment lost: %+v", got.AssignedNGOID)
	}
	if len(got.Conversation) != 2 || got.Conversation[0].ID != "m1" || got.Conversation[1].ID != "m2" {
		t.Fatalf("conversation order lost: %+v", got.Conversation)
	}
	if !got.Conversation[1].Timestamp.Equal(fixed.Add(time.Second)) {
		t.Fatalf("message timestamp lost: %v", got.Conversation[1].Timestamp)
	}
	if got.TriageNote != created.TriageNote || got.Status != domain.StatusAccepted {
		t.Fatalf("report fields lost: %+v", got)
	}
	if len(reopened.ListReporters()) != 1 || len(reopened.ListNGOs()) != 1 {
		t.Fatalf("expected identity collections to round-trip")
	}
}

func TestOpenDegradesOnUndecodableBucket(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Put(domain.BucketReports, []byte("{not json"))
	backend.Put(domain.BucketNGOs, []byte(`[{"id":"n1","name":"Paws","email":"p@test.com"}]`))
	logger := &captureLogger{}
	store, err := Open(context.Background(), backend, nil, WithLogger(logger))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(store.ListReports()) != 0 {
		t.Fatalf("expected corrupt bucket to load empty")
	}
	if len(store.ListNGOs()) != 1 {
		t.Fatalf("expected healthy bucket to load")
	}
	if len(logger.warns) != 1 {
		t.Fatalf("expected one warning, got %v", logger.warns)
	}
}

type failingLoadBackend struct{ *MemoryBackend }

func (failingLoadBackend) Load(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestOpenFailsOnBackendReadError(t *testing.T) {
	if _, err := Open(context.Background(), failingLoadBackend{NewMemoryBackend()}, nil); err == nil {
		t.Fatalf("expected read error to abort open")
	}
	if _, err := Open(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected nil backend to be rejected")
	}
}

func TestPersistFailureDoesNotFailCommit(t *testing.T) {
	backend := NewMemoryBackend()
	logger := &captureLogger{}
	store, err := Open(context.Background(), backend, nil, WithLogger(logger))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	backend.FailSave = errors.New("disk full")
	seedReport(t, store)
	if store.PersistFailures() != 1 || len(logger.errors) != 1 {
		t.Fatalf("expected one recorded failure, got %d (%v)", store.PersistFailures(), logger.errors)
	}
	if len(store.ListReports()) != 1 {
		t.Fatalf("expected committed state to survive failed write")
	}

	backend.FailSave = nil
	if err := store.Persist(context.Background()); err != nil {
		t.Fatalf("persist: %v", err)
	}
	reopened, err := Open(context.Background(), backend, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(reopened.ListReports()) != 1 {
		t.Fatalf("expected next write to carry the full state")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestFailedTransactionSkipsWrite(t *testing.T) {
	backend := NewMemoryBackend()
	store, err := Open(context.Background(), backend, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(domain.Transaction) error {
		return errors.New("abort")
	})
	if err == nil {
		t.Fatalf("expected callback error")
	}
	if backend.Saves() != 0 {
		t.Fatalf("expected no snapshot write for aborted transaction")
	}
}

func TestEncodeBucketsWritesEmptyArrays(t *testing.T) {
	buckets, err := encodeBuckets(memory.Snapshot{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	for _, b := range buckets {
		if string(b.Payload) != "[]" {
			t.Fatalf("expected empty array for %s, got %s", b.Name, b.Payload)
		}
	}
}

// contextBackend rejects writes on a cancelled context, as SQL drivers do.
type contextBackend struct{ *MemoryBackend }

func (b contextBackend) Save(ctx context.Context, buckets []Bucket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.MemoryBackend.Save(ctx, buckets)
}

func TestCommitPersistsAfterCallerCancels(t *testing.T) {
	backend := contextBackend{NewMemoryBackend()}
	store, err := Open(context.Background(), backend, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateReporter(domain.Reporter{Name: "Aarav", Email: "aarav@test.com"})
		cancel()
		return err
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if store.PersistFailures() != 0 {
		t.Fatalf("expected snapshot write to ignore caller cancellation, got %d failures", store.PersistFailures())
	}

	reopened, err := Open(context.Background(), backend, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := len(reopened.ListReporters()); got != 1 {
		t.Fatalf("expected committed reporter after reopen, got %d", got)
	}
}
