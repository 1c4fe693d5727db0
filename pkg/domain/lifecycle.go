package domain

import "fmt"

// ReportStatus is the lifecycle state of a rescue report. The values are the
// wire labels shown to clients.
type ReportStatus string

// Report lifecycle states.
const (
	StatusPending    ReportStatus = "Pending"
	StatusAccepted   ReportStatus = "Accepted"
	StatusInProgress ReportStatus = "In Progress"
	StatusRescued    ReportStatus = "Rescued"
	StatusDeclined   ReportStatus = "Declined"
	StatusClosed     ReportStatus = "Closed"
)

// Points awarded to reporters.
const (
	PointsForReport = 10
	PointsForRescue = 50
)

// ReportStatuses lists every lifecycle state in display order.
func ReportStatuses() []ReportStatus {
	return []ReportStatus{StatusPending, StatusAccepted, StatusInProgress, StatusRescued, StatusDeclined, StatusClosed}
}

// Valid reports whether s is a known lifecycle state.
func (s ReportStatus) Valid() bool {
	for _, known := range ReportStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// ParseReportStatus resolves a wire label. Matching ignores case and accepts
// underscores or hyphens in place of spaces ("in_progress").
func ParseReportStatus(label string) (ReportStatus, bool) {
	norm := normalizeLabel(label)
	for _, known := range ReportStatuses() {
		if normalizeLabel(string(known)) == norm {
			return known, true
		}
	}
	return "", false
}

func normalizeLabel(label string) string {
	out := make([]byte, 0, len(label))
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c == ' ' || c == '_' || c == '-':
			continue
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// Transition is one permitted row of the lifecycle table.
type Transition struct {
	From ReportStatus
	To   ReportStatus
	// Role is the actor role allowed to perform the transition.
	Role Role
	// RequiresAssignee restricts the transition to the NGO assigned to the report.
	RequiresAssignee bool
	// Assigns marks the transition that claims the report for the acting NGO.
	Assigns bool
	// Reward is added to the reporter's points when the transition commits.
	Reward int
}

var transitions = []Transition{
	{From: StatusPending, To: StatusAccepted, Role: RoleNGO, Assigns: true},
	{From: StatusPending, To: StatusDeclined, Role: RoleNGO},
	{From: StatusAccepted, To: StatusInProgress, Role: RoleNGO, RequiresAssignee: true},
	{From: StatusAccepted, To: StatusRescued, Role: RoleNGO, RequiresAssignee: true, Reward: PointsForRescue},
	{From: StatusInProgress, To: StatusRescued, Role: RoleNGO, RequiresAssignee: true, Reward: PointsForRescue},
}

// LookupTransition returns the table row for from -> to. Closed is reachable
// from every other state by an admin.
func LookupTransition(from, to ReportStatus) (Transition, bool) {
	if from == to || !from.Valid() || !to.Valid() {
		return Transition{}, false
	}
	if to == StatusClosed {
		return Transition{From: from, To: StatusClosed, Role: RoleAdmin}, true
	}
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// CheckTransition validates moving report to the target state on behalf of
// actor and returns the matching table row.
func CheckTransition(report RescueReport, to ReportStatus, actor Actor) (Transition, error) {
	t, ok := LookupTransition(report.Status, to)
	if !ok {
		return Transition{}, TransitionError{ReportID: report.ID, From: report.Status, To: to}
	}
	if actor.Role != t.Role {
		return Transition{}, fmt.Errorf("%w: %s cannot move report %s to %s", ErrForbidden, actor.Role, report.ID, to)
	}
	if t.RequiresAssignee && !report.AssignedTo(actor.ID) {
		return Transition{}, fmt.Errorf("%w: report %s is not assigned to ngo %s", ErrForbidden, report.ID, actor.ID)
	}
	return t, nil
}

// Terminal reports whether no transition other than Closed leaves s.
func (s ReportStatus) Terminal() bool {
	switch s {
	case StatusRescued, StatusDeclined, StatusClosed:
		return true
	}
	return false
}
