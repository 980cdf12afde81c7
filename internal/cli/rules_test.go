package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/actiongate/internal/policydiff"
)

func TestDiffSet(t *testing.T) {
	dir := t.TempDir()
	oldRules := filepath.Join(dir, "old.yaml")
	newRules := filepath.Join(dir, "new.yaml")
	if err := os.WriteFile(oldRules, []byte("rules:\n  - name: danger_button\n    level: high\n    pattern: danger\n    weight: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(newRules, []byte("rules:\n  - name: danger_button\n    level: critical\n    pattern: danger\n    weight: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("risk:\n  kinds:\n    delete: 40\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := diffSet(oldRules, "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := diffSet(newRules, cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if b.Weights.Kinds == nil {
		t.Fatal("expected weights loaded from config")
	}

	text := policydiff.FormatText(policydiff.Diff(a, b))
	if !strings.Contains(text, "~ danger_button") || !strings.Contains(text, "high → critical") {
		t.Errorf("unexpected diff:\n%s", text)
	}

	if _, err := diffSet(filepath.Join(dir, "missing.yaml"), ""); err == nil {
		t.Error("expected error for missing rules file")
	}
}
