// Package domain defines the persistent entities, value types, lifecycle table
// and rule evaluation primitives used by guardianpaws.
package domain

import (
	"strings"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityReporter identifies a reporter account.
	EntityReporter EntityType = "reporter"
	// EntityNGO identifies a rescue organization account.
	EntityNGO EntityType = "ngo"
	// EntityReport identifies a rescue report.
	EntityReport EntityType = "report"
)

// Role discriminates the kind of actor issuing a command.
type Role string

// Actor roles.
const (
	RoleReporter Role = "reporter"
	RoleNGO      Role = "ngo"
	// RoleAdmin is the administrative actor allowed to close any report.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleReporter, RoleNGO, RoleAdmin:
		return true
	}
	return false
}

// DefaultNGOLocation is stored when an NGO registers without a location label.
const DefaultNGOLocation = "N/A"

// Reporter is a member of the public who files rescue reports.
type Reporter struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

// Actor projects the reporter into the role-discriminated actor shape.
func (r Reporter) Actor() Actor {
	return Actor{ID: r.ID, Role: RoleReporter, Name: r.Name, Email: r.Email, Points: r.Points}
}

// NGO is a rescue organization that claims and resolves reports.
type NGO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

// Actor projects the NGO into the role-discriminated actor shape.
func (n NGO) Actor() Actor {
	return Actor{ID: n.ID, Role: RoleNGO, Name: n.Name, Email: n.Email, Location: n.Location}
}

// Actor is the identity a command is issued under.
type Actor struct {
	ID       string `json:"id"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Points   int    `json:"points,omitempty"`
	Location string `json:"location,omitempty"`
}

// AdminActor returns the built-in administrative actor.
func AdminActor() Actor {
	return Actor{ID: "admin", Role: RoleAdmin, Name: "Administrator"}
}

// NormalizeEmail folds an email for case-insensitive identity matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Location is a WGS84 coordinate pair in degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Photo references the image attached to a report. The bytes live in the
// photo blob store under Key.
type Photo struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
	SourceURL   string `json:"sourceUrl,omitempty"`
}

// ChatMessage is one entry in a report conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RescueReport is a single case filed by a reporter.
type RescueReport struct {
	ID            string        `json:"id"`
	ReporterID    string        `json:"userId"`
	Photo         Photo         `json:"photo"`
	Description   string        `json:"description"`
	Location      Location      `json:"location"`
	Status        ReportStatus  `json:"status"`
	AssignedNGOID *string       `json:"ngoId"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	TriageNote    string        `json:"aiAnalysis,omitempty"`
	Conversation  []ChatMessage `json:"chat"`
}

// AssignedTo reports whether the report is assigned to ngoID.
func (r RescueReport) AssignedTo(ngoID string) bool {
	return r.AssignedNGOID != nil && *r.AssignedNGOID == ngoID
}

// Clone returns a deep copy of the report.
func (r RescueReport) Clone() RescueReport {
	out := r
	if r.AssignedNGOID != nil {
		id := *r.AssignedNGOID
		out.AssignedNGOID = &id
	}
	if r.Conversation != nil {
		out.Conversation = make([]ChatMessage, len(r.Conversation))
		copy(out.Conversation, r.Conversation)
	}
	return out
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Change describes a mutation applied to an entity during a transaction.
// Before and After hold value copies of the entity (Reporter, NGO or RescueReport).
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions captured in the transaction change set.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "transaction blocked by rules: " + v.Rule + ": " + v.Message
		}
	}
	return "transaction blocked by rules"
}
