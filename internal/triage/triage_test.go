package triage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewSelectsStubWithoutKey(t *testing.T) {
	if got := New(Config{}).Name(); got != "stub" {
		t.Fatalf("expected stub analyzer, got %s", got)
	}
	if got := New(Config{APIKey: "k"}).Name(); got != "gemini" {
		t.Fatalf("expected gemini analyzer, got %s", got)
	}
}

func TestStubReturnsMockNote(t *testing.T) {
	note, err := NewStub().Analyze(context.Background(), nil, "", "dog")
	if err != nil || !strings.HasPrefix(note, "**Mock AI Analysis:**") {
		t.Fatalf("unexpected stub output %q %v", note, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStub().Analyze(ctx, nil, "", ""); err == nil {
		t.Fatalf("expected cancelled context to fail")
	}
}

func TestGeminiSendsInlinePhotoAndPrompt(t *testing.T) {
	photo := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "secret" || r.URL.RawQuery != "" {
			t.Errorf("api key must be sent as a header only, got header=%q query=%q", r.Header.Get("x-goog-api-key"), r.URL.RawQuery)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[0].InlineData == nil {
			t.Errorf("expected inline photo then prompt, got %+v", parts)
		} else {
			if parts[0].InlineData.MimeType != "image/png" || parts[0].InlineData.Data != base64.StdEncoding.EncodeToString(photo) {
				t.Errorf("unexpected inline data %+v", parts[0].InlineData)
			}
			if !strings.Contains(parts[1].Text, `"limping puppy"`) {
				t.Errorf("prompt missing description: %s", parts[1].Text)
			}
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Urgency: High"},{"text":" - keep warm"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini("secret", "", WithEndpoint(srv.URL+"/"))
	note, err := g.Analyze(context.Background(), photo, "image/png", "limping puppy")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if note != "Urgency: High - keep warm" {
		t.Fatalf("unexpected note %q", note)
	}
}

func TestGeminiErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		},
		"no candidates": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		},
		"empty text": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`))
		},
		"bad json": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()
			if _, err := NewGemini("k", "m", WithEndpoint(srv.URL)).Analyze(context.Background(), nil, "", "cat"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestGeminiHonoursTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	analyzer := New(Config{APIKey: "k", Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	if _, err := analyzer.Analyze(context.Background(), nil, "", "bird"); err == nil {
		t.Fatalf("expected timeout")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not applied")
	}
}

func TestGeminiTransportErrorOmitsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	_, err := NewGemini("TOPSECRETKEY", "", WithEndpoint(endpoint)).Analyze(context.Background(), nil, "", "cat")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if strings.Contains(err.Error(), "TOPSECRETKEY") {
		t.Fatalf("error leaks api key: %v", err)
	}
}
