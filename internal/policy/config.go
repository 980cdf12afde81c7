package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RuleFile is the on-disk rule document.
type RuleFile struct {
	Rules []Rule `yaml:"rules"`
}

// defaultRulesPath is ~/.actiongate/rules.yaml, or "" without a home dir.
func defaultRulesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".actiongate", "rules.yaml")
}

// LoadRules loads rules from a YAML file.
// Empty path falls back to ~/.actiongate/rules.yaml.
// Missing file returns DefaultRules. Invalid YAML or an invalid rule returns an error.
func LoadRules(path string) ([]Rule, error) {
	rules, _, err := LoadRulesWithHash(path)
	return rules, err
}

// LoadRulesWithHash loads rules and returns the SHA-256 hash of the raw YAML
// bytes on disk. When no file exists (defaults used), the hash is the
// SHA-256 of empty input.
func LoadRulesWithHash(path string) ([]Rule, string, error) {
	if path == "" {
		path = defaultRulesPath()
	}

	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("policy: read rules: %w", err)
		}
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])
	if data == nil {
		return DefaultRules(), hash, nil
	}

	rules, err := ParseRules(data)
	if err != nil {
		return nil, "", err
	}
	return rules, hash, nil
}

// ParseRules decodes and validates a rule document against the built-in
// predicate registry. An empty document yields DefaultRules.
func ParseRules(data []byte) ([]Rule, error) {
	var f RuleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("policy: parse rules: %w", err)
	}
	if f.Rules == nil {
		return DefaultRules(), nil
	}
	reg := NewRegistry()
	for _, r := range f.Rules {
		if err := r.Validate(reg); err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
	}
	return f.Rules, nil
}

// DefaultRulesYAML returns a commented YAML rule file for init.
func DefaultRulesYAML() string {
	body, err := yaml.Marshal(RuleFile{Rules: DefaultRules()})
	if err != nil {
		panic(fmt.Sprintf("policy: marshal default rules: %v", err))
	}
	return `# actiongate rule configuration
# Generated by: actiongate init
#
# Rules are evaluated in order. A rule applies when:
#   kind matches the classified action (omit kind to match every kind)
#   predicate holds against the enriched context (optional)
#   pattern matches the target (regex: true for regex search,
#   otherwise case-insensitive substring)
# A rule with a predicate and no pattern triggers whenever the predicate holds.
#
# Predicates: is_login_page, is_payment_page, is_settings_page,
# is_suspicious_domain, is_form_filling, or flag:<context_key>.
# Levels: low (x0.3), medium (x0.6), high (x0.9), critical (x1.0).
# Score = 100 * sum(weight * level multiplier) / sum(weight).
# navigate and navigate_external are never rule-driven.

` + string(body)
}
