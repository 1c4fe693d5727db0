package core

import (
	"context"
	"path/filepath"
	"testing"

	"guardianpaws/internal/infra/persistence/memory"
	"guardianpaws/internal/infra/persistence/snapshot"
	"guardianpaws/pkg/domain"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	store, err := OpenPersistentStore(context.Background(), StorageConfig{Driver: StorageMemory}, nil, nil)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "guardianpaws.db")
	cfg := StorageConfig{SQLitePath: path}

	store, err := OpenPersistentStore(ctx, cfg, nil, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, ok := store.(*snapshot.Store); !ok {
		t.Fatalf("expected snapshot store for default driver, got %T", store)
	}
	svc := NewService(store)
	u1 := mustRegister(t, svc, domain.RoleReporter, "U1", "u1@test.com")
	n1 := mustRegister(t, svc, domain.RoleNGO, "N1", "n1@test.com")
	r := mustSubmit(t, svc, u1.ID, "turtle")
	if _, err := svc.UpdateStatus(ctx, r.ID, domain.StatusAccepted, n1); err != nil {
		t.Fatalf("accept: %v", err)
	}
	thread := []struct{ sender, text string }{
		{n1.ID, "coming"},
		{u1.ID, "it is under the bench"},
		{n1.ID, "found it"},
	}
	for _, m := range thread {
		if _, err := svc.AppendMessage(ctx, r.ID, m.sender, m.text); err != nil {
			t.Fatalf("append %q: %v", m.text, err)
		}
	}
	want, _ := svc.GetReport(ctx, r.ID)
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenPersistentStore(ctx, cfg, nil, nil)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	got, ok := reopened.GetReport(r.ID)
	if !ok {
		t.Fatalf("report lost after reopen")
	}
	if !got.AssignedTo(n1.ID) || got.Status != domain.StatusAccepted || len(got.Conversation) != len(thread) {
		t.Fatalf("unexpected reopened report: %+v", got)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Fatalf("updatedAt did not round trip: %v vs %v", got.UpdatedAt, want.UpdatedAt)
	}
	for i, m := range thread {
		msg := got.Conversation[i]
		if msg.SenderID != m.sender || msg.Text != m.text || msg.ID != want.Conversation[i].ID {
			t.Fatalf("message %d out of order after reopen: %+v", i, got.Conversation)
		}
		if !msg.Timestamp.Equal(want.Conversation[i].Timestamp) {
			t.Fatalf("message %d timestamp did not round trip: %v vs %v", i, msg.Timestamp, want.Conversation[i].Timestamp)
		}
	}
	reporter, _ := reopened.GetReporter(u1.ID)
	if reporter.Points != 10 {
		t.Fatalf("expected 10 points after reopen, got %d", reporter.Points)
	}
}

func TestOpenPersistentStoreErrors(t *testing.T) {
	ctx := context.Background()
	cases := []StorageConfig{
		{Driver: "cassandra"},
		{Driver: StoragePostgres},
		{Driver: StorageMongo},
	}
	for _, cfg := range cases {
		store, err := OpenPersistentStore(ctx, cfg, nil, nil)
		if err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
		if store != nil {
			t.Fatalf("expected nil store for %+v, got %T", cfg, store)
		}
	}
}
