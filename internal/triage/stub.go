package triage

import "context"

// StubNote is the canned analysis returned when no API key is configured.
const StubNote = `**Mock AI Analysis:**
- **Animal Type:** Suspected domestic dog.
- **Observed Condition:** Laceration visible on the left hind leg. Animal appears distressed.
- **Urgency:** Moderate. Recommend prompt attention.
- **First Aid Suggestion (for user):** Do not approach if the animal is aggressive. If safe, provide water and keep a safe distance. Do not attempt to treat the wound directly. Await professional help.`

// Stub is a deterministic, no-network analyzer for local runs and tests.
type Stub struct {
	Note string
	Err  error
}

// NewStub returns a stub that answers with StubNote.
func NewStub() *Stub { return &Stub{Note: StubNote} }

// Name implements Analyzer.
func (s *Stub) Name() string { return "stub" }

// Analyze implements Analyzer.
func (s *Stub) Analyze(ctx context.Context, _ []byte, _, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Note, nil
}
