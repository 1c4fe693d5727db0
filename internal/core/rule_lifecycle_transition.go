package core

import (
	"context"
	"fmt"

	"guardianpaws/pkg/domain"
)

const lifecycleTransitionRuleName = "lifecycle_transition"

// LifecycleTransitionRule blocks report status changes absent from the
// lifecycle table and reports created in any state other than Pending.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

func (lifecycleTransitionRule) Name() string { return lifecycleTransitionRuleName }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		before, hasBefore, after, ok := reportChange(change)
		if !ok {
			continue
		}
		if !after.Status.Valid() {
			res.Violations = append(res.Violations, blockReport(lifecycleTransitionRuleName, after.ID,
				fmt.Sprintf("report %s is set to invalid state %q", after.ID, after.Status)))
			continue
		}
		if !hasBefore {
			if after.Status != domain.StatusPending {
				res.Violations = append(res.Violations, blockReport(lifecycleTransitionRuleName, after.ID,
					fmt.Sprintf("report %s must be created Pending, got %s", after.ID, after.Status)))
			}
			continue
		}
		if before.Status == after.Status {
			continue
		}
		if _, ok := domain.LookupTransition(before.Status, after.Status); !ok {
			res.Violations = append(res.Violations, blockReport(lifecycleTransitionRuleName, after.ID,
				fmt.Sprintf("cannot move report %s from %s to %s", after.ID, before.Status, after.Status)))
		}
	}
	return res, nil
}
