package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"guardianpaws/internal/infra/persistence/memory"
	"guardianpaws/pkg/domain"
)

func TestDefaultRulesEngineRegistersRules(t *testing.T) {
	got := NewDefaultRulesEngine().Rules()
	want := []string{lifecycleTransitionRuleName, assignmentIntegrityRuleName, conversationAppendOnlyRuleName, reporterPointsRuleName}
	if len(got) != len(want) {
		t.Fatalf("expected rules %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected rules %v, got %v", want, got)
		}
	}
}

// seededStore returns a store holding one reporter, two NGOs and a Pending report.
func seededStore(t *testing.T) (*memory.Store, string) {
	t.Helper()
	store := memory.NewStore(NewDefaultRulesEngine())
	var reportID string
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateReporter(domain.Reporter{ID: "u1", Name: "U1", Email: "u1@test.com"}); err != nil {
			return err
		}
		for _, id := range []string{"n1", "n2"} {
			if _, err := tx.CreateNGO(domain.NGO{ID: id, Name: id, Email: id + "@test.com"}); err != nil {
				return err
			}
		}
		r, err := tx.CreateReport(domain.RescueReport{ReporterID: "u1", Status: domain.StatusPending})
		reportID = r.ID
		return err
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store, reportID
}

func expectViolation(t *testing.T, err error, rule string) {
	t.Helper()
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation from %s, got %v", rule, err)
	}
	for _, v := range violation.Result.Violations {
		if v.Rule == rule {
			return
		}
	}
	t.Fatalf("expected violation from %s, got %+v", rule, violation.Result.Violations)
}

func updateReport(store *memory.Store, id string, mutate func(*domain.RescueReport)) error {
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateReport(id, func(r *domain.RescueReport) error {
			mutate(r)
			return nil
		})
		return err
	})
	return err
}

func ptr(s string) *string { return &s }

func TestLifecycleTransitionRule(t *testing.T) {
	store, id := seededStore(t)

	err := updateReport(store, id, func(r *domain.RescueReport) { r.Status = domain.StatusRescued })
	expectViolation(t, err, lifecycleTransitionRuleName)

	err = updateReport(store, id, func(r *domain.RescueReport) { r.Status = "Lost" })
	expectViolation(t, err, lifecycleTransitionRuleName)

	_, err = store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateReport(domain.RescueReport{ReporterID: "u1", Status: domain.StatusAccepted})
		return err
	})
	expectViolation(t, err, lifecycleTransitionRuleName)

	if err := updateReport(store, id, func(r *domain.RescueReport) { r.Description = "edited" }); err != nil {
		t.Fatalf("expected non-status edit to pass, got %v", err)
	}
}

func TestAssignmentIntegrityRule(t *testing.T) {
	store, id := seededStore(t)

	err := updateReport(store, id, func(r *domain.RescueReport) { r.Status = domain.StatusAccepted })
	expectViolation(t, err, assignmentIntegrityRuleName)

	err = updateReport(store, id, func(r *domain.RescueReport) {
		r.Status = domain.StatusAccepted
		r.AssignedNGOID = ptr("ghost")
	})
	expectViolation(t, err, assignmentIntegrityRuleName)

	err = updateReport(store, id, func(r *domain.RescueReport) { r.AssignedNGOID = ptr("n1") })
	expectViolation(t, err, assignmentIntegrityRuleName)

	if err := updateReport(store, id, func(r *domain.RescueReport) {
		r.Status = domain.StatusAccepted
		r.AssignedNGOID = ptr("n1")
	}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	err = updateReport(store, id, func(r *domain.RescueReport) { r.AssignedNGOID = ptr("n2") })
	expectViolation(t, err, assignmentIntegrityRuleName)
	err = updateReport(store, id, func(r *domain.RescueReport) { r.AssignedNGOID = nil })
	expectViolation(t, err, assignmentIntegrityRuleName)

	_, err = store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateReport(domain.RescueReport{ReporterID: "u1", Status: domain.StatusPending, AssignedNGOID: ptr("n1")})
		return err
	})
	expectViolation(t, err, assignmentIntegrityRuleName)
}

func TestConversationAppendOnlyRule(t *testing.T) {
	store, id := seededStore(t)
	first := domain.ChatMessage{ID: "m1", SenderID: "u1", Text: "hello", Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := updateReport(store, id, func(r *domain.RescueReport) { r.Conversation = append(r.Conversation, first) }); err != nil {
		t.Fatalf("append: %v", err)
	}

	err := updateReport(store, id, func(r *domain.RescueReport) { r.Conversation[0].Text = "edited" })
	expectViolation(t, err, conversationAppendOnlyRuleName)

	err = updateReport(store, id, func(r *domain.RescueReport) { r.Conversation = nil })
	expectViolation(t, err, conversationAppendOnlyRuleName)

	err = updateReport(store, id, func(r *domain.RescueReport) {
		r.Conversation = append(r.Conversation, domain.ChatMessage{ID: "m2", SenderID: "u1", Text: "  "})
	})
	expectViolation(t, err, conversationAppendOnlyRuleName)

	second := domain.ChatMessage{ID: "m2", SenderID: "u1", Text: "again", Timestamp: first.Timestamp.Add(time.Minute)}
	err = updateReport(store, id, func(r *domain.RescueReport) {
		r.Conversation = []domain.ChatMessage{second, first}
	})
	expectViolation(t, err, conversationAppendOnlyRuleName)

	report, _ := store.GetReport(id)
	if len(report.Conversation) != 1 || report.Conversation[0].Text != "hello" {
		t.Fatalf("conversation changed by rejected transactions: %+v", report.Conversation)
	}
}

func TestReporterPointsRule(t *testing.T) {
	store, _ := seededStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateReporter("u1", func(r *domain.Reporter) error {
			r.Points = -1
			return nil
		})
		return err
	})
	expectViolation(t, err, reporterPointsRuleName)
}
