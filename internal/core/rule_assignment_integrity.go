package core

import (
	"context"
	"fmt"

	"guardianpaws/pkg/domain"
)

const assignmentIntegrityRuleName = "assignment_integrity"

// AssignmentIntegrityRule keeps the assigned NGO write-once: it may only be
// set by the Pending -> Accepted transition, must reference a known NGO, and
// never changes afterwards.
func AssignmentIntegrityRule() domain.Rule {
	return assignmentIntegrityRule{}
}

type assignmentIntegrityRule struct{}

func (assignmentIntegrityRule) Name() string { return assignmentIntegrityRuleName }

func (assignmentIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		before, hasBefore, after, ok := reportChange(change)
		if !ok {
			continue
		}
		if !hasBefore {
			if after.AssignedNGOID != nil {
				res.Violations = append(res.Violations, blockReport(assignmentIntegrityRuleName, after.ID,
					fmt.Sprintf("report %s cannot be created already assigned", after.ID)))
			}
			continue
		}
		switch {
		case before.AssignedNGOID != nil:
			if after.AssignedNGOID == nil || *after.AssignedNGOID != *before.AssignedNGOID {
				res.Violations = append(res.Violations, blockReport(assignmentIntegrityRuleName, after.ID,
					fmt.Sprintf("report %s assignment to %s cannot change", after.ID, *before.AssignedNGOID)))
			}
		case after.AssignedNGOID != nil:
			if before.Status != domain.StatusPending || after.Status != domain.StatusAccepted {
				res.Violations = append(res.Violations, blockReport(assignmentIntegrityRuleName, after.ID,
					fmt.Sprintf("report %s can only be assigned when accepted from Pending", after.ID)))
				continue
			}
			if _, known := view.FindNGO(*after.AssignedNGOID); !known {
				res.Violations = append(res.Violations, blockReport(assignmentIntegrityRuleName, after.ID,
					fmt.Sprintf("report %s assigned to unknown ngo %s", after.ID, *after.AssignedNGOID)))
			}
		case after.Status == domain.StatusAccepted:
			res.Violations = append(res.Violations, blockReport(assignmentIntegrityRuleName, after.ID,
				fmt.Sprintf("report %s accepted without an assigned ngo", after.ID)))
		}
	}
	return res, nil
}
