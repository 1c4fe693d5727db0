// Package triage produces advisory notes for rescue reports from the photo
// and the reporter's description.
package triage

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// FallbackNote is stored when analysis fails so the report is still created.
const FallbackNote = "Could not analyze the image. Please assess the situation based on the user's description."

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Analyzer turns a photo and description into a free-text triage note.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	Analyze(ctx context.Context, photo []byte, contentType, description string) (string, error)
	// Name is a short provider label for logs.
	Name() string
}

// Config selects an analyzer.
type Config struct {
	APIKey   string
	Model    string
	Endpoint string // overrides the Gemini base URL, mainly for tests
	Timeout  time.Duration
}

// New returns the Gemini client when an API key is configured, otherwise the stub.
func New(cfg Config) Analyzer {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewStub()
	}
	client := &http.Client{}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	return NewGemini(cfg.APIKey, cfg.Model, WithEndpoint(cfg.Endpoint), WithHTTPClient(client))
}
