package core

import (
	"context"
	"fmt"

	"guardianpaws/pkg/domain"
)

const reporterPointsRuleName = "reporter_points"

// ReporterPointsRule blocks negative point balances.
func ReporterPointsRule() domain.Rule {
	return reporterPointsRule{}
}

type reporterPointsRule struct{}

func (reporterPointsRule) Name() string { return reporterPointsRuleName }

func (reporterPointsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityReporter {
			continue
		}
		reporter, ok := change.After.(domain.Reporter)
		if !ok || reporter.Points >= 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     reporterPointsRuleName,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("reporter %s points would drop to %d", reporter.ID, reporter.Points),
			Entity:   domain.EntityReporter,
			EntityID: reporter.ID,
		})
	}
	return res, nil
}
