package core

import "guardianpaws/pkg/domain"

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(LifecycleTransitionRule())
	engine.Register(AssignmentIntegrityRule())
	engine.Register(ConversationAppendOnlyRule())
	engine.Register(ReporterPointsRule())
	return engine
}

// reportChange unpacks the report values carried by a change. before is
// zero-valued with hasBefore=false for creations.
func reportChange(change domain.Change) (before domain.RescueReport, hasBefore bool, after domain.RescueReport, ok bool) {
	if change.Entity != domain.EntityReport {
		return domain.RescueReport{}, false, domain.RescueReport{}, false
	}
	after, ok = change.After.(domain.RescueReport)
	if !ok {
		return domain.RescueReport{}, false, domain.RescueReport{}, false
	}
	before, hasBefore = change.Before.(domain.RescueReport)
	return before, hasBefore, after, true
}

func blockReport(rule, id, msg string) domain.Violation {
	return domain.Violation{
		Rule:     rule,
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   domain.EntityReport,
		EntityID: id,
	}
}
