package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"guardianpaws/internal/blob/core"
)

func TestGetReturnsIsolatedCopies(t *testing.T) {
	ctx := context.Background()
	store := New()
	meta := map[string]string{"reporter": "u1"}
	if _, err := store.Put(ctx, "reports/r1/photo", bytes.NewReader([]byte("abc")), core.PutOptions{Metadata: meta}); err != nil {
		t.Fatalf("put: %v", err)
	}
	meta["reporter"] = "mutated"

	info, rc, err := store.Get(ctx, "reports/r1/photo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	data[0] = 'z'
	info.Metadata["reporter"] = "changed"

	again, rc2, err := store.Get(ctx, "reports/r1/photo")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	fresh, _ := io.ReadAll(rc2)
	if string(fresh) != "abc" || again.Metadata["reporter"] != "u1" {
		t.Fatalf("store state leaked: %q %+v", fresh, again.Metadata)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one object, got %d", store.Len())
	}
}

func TestPutRejectsBlankKey(t *testing.T) {
	if _, err := New().Put(context.Background(), " ", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatalf("expected blank key error")
	}
}
