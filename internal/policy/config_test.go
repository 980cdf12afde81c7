package policy

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/actiongate/internal/model"
)

const emptySHA256 = "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestLoadRulesMissingFileUsesDefaults(t *testing.T) {
	rules, hash, err := LoadRulesWithHash("/nonexistent/path/rules.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if !reflect.DeepEqual(rules, DefaultRules()) {
		t.Error("expected default rules")
	}
	if hash != emptySHA256 {
		t.Errorf("expected empty-input hash, got %s", hash)
	}
}

func TestLoadRulesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - name: wire_transfer
    kind: payment
    level: critical
    message: Wire transfer
    pattern: "wire|swift"
    regex: true
    weight: 4
  - name: admin_delete
    kind: delete
    level: high
    message: Delete in admin panel
    predicate: "flag:is_admin_page"
    weight: 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rules, hash, err := LoadRulesWithHash(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(rules) != 2 || rules[0].Name != "wire_transfer" || rules[1].Predicate != "flag:is_admin_page" {
		t.Fatalf("unexpected rules %+v", rules)
	}
	if rules[0].Kind != model.KindPayment || rules[0].Weight != 4 || !rules[0].Regex {
		t.Errorf("fields not decoded: %+v", rules[0])
	}
	if !strings.HasPrefix(hash, "sha256:") || hash == emptySHA256 {
		t.Errorf("expected content hash, got %s", hash)
	}

	e := NewEngine()
	if err := e.Replace(rules); err != nil {
		t.Fatal(err)
	}
	if triggered, _ := e.Evaluate(model.KindPayment, "send SWIFT", nil); len(triggered) != 1 {
		t.Error("loaded rule should trigger")
	}
}

func TestLoadRulesInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("rules: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(bad); err == nil {
		t.Error("expected parse error")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("rules:\n  - name: x\n    level: low\n    pattern: y\n    weight: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(invalid); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule, got %v", err)
	}
}

func TestDefaultRulesYAMLRoundTrip(t *testing.T) {
	rules, err := ParseRules([]byte(DefaultRulesYAML()))
	if err != nil {
		t.Fatalf("generated YAML does not parse: %v", err)
	}
	if !reflect.DeepEqual(rules, DefaultRules()) {
		t.Errorf("generated YAML differs from defaults:\n%+v", rules)
	}
}
