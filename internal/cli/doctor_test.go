package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/actiongate/internal/integrity"
)

func findCheck(t *testing.T, checks []doctorCheck, label string) doctorCheck {
	t.Helper()
	for _, c := range checks {
		if c.label == label {
			return c
		}
	}
	t.Fatalf("no %q check in %+v", label, checks)
	return doctorCheck{}
}

func TestDiagnoseInitializedDir(t *testing.T) {
	dir := t.TempDir()
	initDir = dir
	initForce = false
	if err := runInit(nil, nil); err != nil {
		t.Fatal(err)
	}

	// config.yaml written by init points at ~/.actiongate; aim it at dir.
	cfg := "rules_path: " + filepath.Join(dir, "rules.yaml") + "\n" +
		"domains_path: " + filepath.Join(dir, "domains.yaml") + "\n" +
		"audit:\n  journal_path: " + filepath.Join(dir, "journal.jsonl") + "\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	checks := diagnose(path)
	var buf bytes.Buffer
	if !printChecks(&buf, checks) {
		t.Fatalf("expected all checks to pass:\n%s", buf.String())
	}
	if rules := findCheck(t, checks, "rules"); !strings.Contains(rules.detail, "rules, sha256:") {
		t.Errorf("unexpected rules detail: %q", rules.detail)
	}
	if j := findCheck(t, checks, "audit journal"); j.detail != "not written yet" {
		t.Errorf("unexpected journal detail: %q", j.detail)
	}
}

func TestDiagnoseReportsBrokenInputs(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	journal := filepath.Join(dir, "journal.jsonl")
	if err := os.WriteFile(rules, []byte("rules:\n  - name: x\n    weight: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(journal, []byte(`{"prev_hash":"sha256:bogus"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.yaml")
	cfg := "rules_path: " + rules + "\naudit:\n  journal_path: " + journal + "\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	checks := diagnose(path)
	if findCheck(t, checks, "rules").ok {
		t.Error("invalid rules must fail")
	}
	if j := findCheck(t, checks, "audit journal"); j.ok || j.fix == "" {
		t.Errorf("broken chain must fail with a fix, got %+v", j)
	}

	var buf bytes.Buffer
	if printChecks(&buf, checks) {
		t.Error("printChecks must report failure")
	}
	if !strings.Contains(buf.String(), "✗ rules:") {
		t.Errorf("expected failed rules line, got:\n%s", buf.String())
	}
}

func TestDiagnoseInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("enforcement_level: paranoid\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	checks := diagnose(path)
	if len(checks) != 1 || checks[0].ok {
		t.Errorf("expected a single failed config check, got %+v", checks)
	}
}

func TestDiagnoseBinaryIntegrity(t *testing.T) {
	old := integrity.ExpectedHash
	oldPaths := integrity.ChecksumPaths
	t.Cleanup(func() {
		integrity.ExpectedHash = old
		integrity.ChecksumPaths = oldPaths
	})
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	integrity.ExpectedHash = ""
	integrity.ChecksumPaths = []string{filepath.Join(t.TempDir(), "missing.sha256")}
	if c := findCheck(t, diagnose(path), "binary"); !c.ok || !strings.Contains(c.detail, "dev build") {
		t.Errorf("unpinned binary should be skipped, got %+v", c)
	}

	integrity.ExpectedHash = "deadbeef"
	c := findCheck(t, diagnose(path), "binary")
	if c.ok || c.fix == "" || !strings.Contains(c.detail, "mismatch") {
		t.Errorf("mismatched binary must fail with a fix, got %+v", c)
	}
}
