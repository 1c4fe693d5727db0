package core

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"guardianpaws/pkg/domain"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

var delhi = domain.Location{Latitude: 28.6139, Longitude: 77.2090}

func mustRegister(t *testing.T, svc *Service, role domain.Role, name, email string) domain.Actor {
	t.Helper()
	actor, err := svc.Register(context.Background(), RegisterInput{Role: role, Name: name, Email: email})
	if err != nil {
		t.Fatalf("register %s %s: %v", role, email, err)
	}
	return actor
}

func mustSubmit(t *testing.T, svc *Service, reporterID, description string) domain.RescueReport {
	t.Helper()
	report, err := svc.SubmitReport(context.Background(), SubmitReportInput{
		ReporterID:  reporterID,
		Photo:       pngHeader,
		Description: description,
		Location:    delhi,
		TriageNote:  "note",
	})
	if err != nil {
		t.Fatalf("submit report: %v", err)
	}
	return report
}

func mustPoints(t *testing.T, svc *Service, reporterID string) int {
	t.Helper()
	reporter, ok := svc.Store().GetReporter(reporterID)
	if !ok {
		t.Fatalf("reporter %s missing", reporterID)
	}
	return reporter.Points
}

// steppingClock advances by step on every call so createdAt ordering is strict.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

type captureLogger struct {
	lines []logLine
}

type logLine struct {
	level string
	msg   string
	kv    []any
}

func (l *captureLogger) Debug(msg string, kv ...any) { l.add("debug", msg, kv) }
func (l *captureLogger) Info(msg string, kv ...any)  { l.add("info", msg, kv) }
func (l *captureLogger) Warn(msg string, kv ...any)  { l.add("warn", msg, kv) }
func (l *captureLogger) Error(msg string, kv ...any) { l.add("error", msg, kv) }

func (l *captureLogger) add(level, msg string, kv []any) {
	l.lines = append(l.lines, logLine{level: level, msg: msg, kv: kv})
}

func (l *captureLogger) has(level, msg string) bool {
	for _, line := range l.lines {
		if line.level == level && line.msg == msg {
			return true
		}
	}
	return false
}

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }
