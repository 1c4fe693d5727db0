package triage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com"

const promptTemplate = `Analyze the attached image of an animal and the user's description. Provide a brief report for an animal rescue NGO.
The report should include:
1. A likely identification of the animal type.
2. An assessment of the visible injury or condition.
3. An estimated urgency level (e.g., Low, Moderate, High).
4. A short, safe first-aid suggestion for the user to follow while waiting for the NGO. Emphasize user safety.

User's description: %q`

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Gemini calls the generateContent REST endpoint with the photo inlined.
type Gemini struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
}

// GeminiOption configures the client.
type GeminiOption func(*Gemini)

// WithEndpoint overrides the API base URL. Empty keeps the default.
func WithEndpoint(endpoint string) GeminiOption {
	return func(g *Gemini) {
		if endpoint != "" {
			g.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(g *Gemini) {
		if client != nil {
			g.http = client
		}
	}
}

// NewGemini builds a client for model (DefaultModel when empty).
func NewGemini(apiKey, model string, opts ...GeminiOption) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	g := &Gemini{apiKey: apiKey, model: model, endpoint: defaultEndpoint, http: &http.Client{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements Analyzer.
func (g *Gemini) Name() string { return "gemini" }

// Analyze implements Analyzer.
func (g *Gemini) Analyze(ctx context.Context, photo []byte, contentType, description string) (string, error) {
	parts := make([]part, 0, 2)
	if len(photo) > 0 {
		if contentType == "" {
			contentType = "image/jpeg"
		}
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: contentType,
			Data:     base64.StdEncoding.EncodeToString(photo),
		}})
	}
	parts = append(parts, part{Text: fmt.Sprintf(promptTemplate, description)})
	body, err := json.Marshal(generateRequest{Contents: []content{{Role: "user", Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.endpoint, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Kept out of the URL so transport errors never carry the key.
	req.Header.Set("x-goog-api-key", g.apiKey)
	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("no text in response")
	}
	return strings.TrimSpace(text.String()), nil
}
