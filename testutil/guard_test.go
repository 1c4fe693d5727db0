package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		fn   func(string) bool
		in   string
		want bool
	}{
		{"module root", ModuleImportForbidden, "guardianpaws", true},
		{"module pkg", ModuleImportForbidden, "guardianpaws/pkg/domain", true},
		{"module lookalike", ModuleImportForbidden, "guardianpawsx/pkg", false},
		{"stdlib", ModuleImportForbidden, "net/http", false},
		{"infra store", InfraImportForbidden, "guardianpaws/internal/infra/persistence/sqlite", true},
		{"blob facade", InfraImportForbidden, "guardianpaws/internal/blob", false},
		{"httpapi", TransportImportForbidden, "guardianpaws/internal/httpapi", true},
		{"gin", TransportImportForbidden, "github.com/gin-gonic/gin", true},
		{"core", TransportImportForbidden, "guardianpaws/internal/core", false},
	}
	for _, tc := range cases {
		if got := tc.fn(tc.in); got != tc.want {
			t.Fatalf("%s: predicate(%q) = %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) {
	r.msg = fmt.Sprintf(format, args...)
}

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package tmp\nimport (\n\t\"fmt\"\n\t\"guardianpaws/internal/infra/blob/fs\"\n)\nvar _ = fmt.Sprint\nvar _ = fs.New\n")
	writeFile(t, dir, "a_test.go", "package tmp\nimport \"guardianpaws/internal/infra/persistence/memory\"\nvar _ = memory.NewStore\n")
	if err := os.Mkdir(filepath.Join(dir, "nested.go"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	viols, err := directImportViolations(dir, InfraImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "guardianpaws/internal/infra/blob/fs (in a.go)" {
		t.Fatalf("unexpected violations: %v", viols)
	}
}

func TestDirectImportViolationsErrors(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), ModuleImportForbidden); err == nil {
		t.Fatalf("expected error for missing directory")
	}
	dir := t.TempDir()
	writeFile(t, dir, "bad.go", "package tmp\nimport (\n")
	if _, err := directImportViolations(dir, ModuleImportForbidden); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestAssertNoDirectImportsPasses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.go", "package tmp\nimport \"strings\"\nvar _ = strings.ToUpper\n")
	AssertNoDirectImports(t, dir, ModuleImportForbidden, "stdlib only")
}

func TestTransitiveDependencyViolations(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })

	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nguardianpaws/internal/core\n\nguardianpaws/internal/infra/persistence/redis\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", InfraImportForbidden)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(viols) != 1 || viols[0] != "guardianpaws/internal/infra/persistence/redis" {
		t.Fatalf("unexpected violations: %v", viols)
	}

	goListDeps = func(string) ([]byte, error) { return []byte("boom"), errors.New("exit 1") }
	if _, out, err := transitiveDependencyViolations(".", InfraImportForbidden); err == nil || string(out) != "boom" {
		t.Fatalf("expected go list failure, got err=%v out=%q", err, out)
	}
}

func TestFailIfViolations(t *testing.T) {
	rec := &recordingFatal{}
	failIfViolations(rec, "forbidden direct imports", "none", nil)
	if rec.msg != "" {
		t.Fatalf("no violations should not fail, got %q", rec.msg)
	}
	failIfViolations(rec, "forbidden direct imports", "blob facade", []string{"a", "b"})
	if !strings.Contains(rec.msg, "blob facade") || !strings.Contains(rec.msg, "a\nb") {
		t.Fatalf("unexpected failure message: %q", rec.msg)
	}
}
