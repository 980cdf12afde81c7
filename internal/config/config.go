// Package config loads the actiongate YAML configuration.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/actiongate/internal/alert"
	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/audit"
	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/risk"
)

// DefaultAddr is the default gRPC listen address.
const DefaultAddr = "127.0.0.1:7433"

// Config is the actiongate configuration file.
type Config struct {
	EnforcementLevel model.EnforcementLevel `yaml:"enforcement_level"`
	RulesPath        string                 `yaml:"rules_path"`
	DomainsPath      string                 `yaml:"domains_path"`
	Audit            AuditConfig            `yaml:"audit"`
	Confirmation     ConfirmationConfig     `yaml:"confirmation"`
	Server           ServerConfig           `yaml:"server"`
	Alerts           []alert.AlertConfig    `yaml:"alerts,omitempty"`
	Risk             risk.Weights           `yaml:"risk,omitempty"`
}

// AuditConfig locates the audit outputs. Empty journal or sqlite paths
// disable that sink.
type AuditConfig struct {
	Capacity    int    `yaml:"capacity"`
	ReportPath  string `yaml:"report_path"`
	JournalPath string `yaml:"journal_path"`
	SQLitePath  string `yaml:"sqlite_path"`
}

// ConfirmationConfig bounds how long a remote confirmation may wait and how
// long an action hash is reused.
type ConfirmationConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	HashTTL time.Duration `yaml:"hash_ttl"`
}

// ServerConfig is the gRPC listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultDir is ~/.actiongate, or ".actiongate" without a home directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".actiongate"
	}
	return filepath.Join(home, ".actiongate")
}

// DefaultPath is the config file inside DefaultDir.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	dir := DefaultDir()
	return Config{
		EnforcementLevel: model.EnforceMedium,
		RulesPath:        filepath.Join(dir, "rules.yaml"),
		DomainsPath:      filepath.Join(dir, "domains.yaml"),
		Audit: AuditConfig{
			Capacity:    audit.DefaultCapacity,
			ReportPath:  filepath.Join(dir, "security_logs.json"),
			JournalPath: filepath.Join(dir, "journal.jsonl"),
		},
		Confirmation: ConfirmationConfig{
			Timeout: approval.DefaultQueueTimeout,
			HashTTL: approval.DefaultHashTTL,
		},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

// Load reads a config file. Empty path uses DefaultPath.
// Missing file returns DefaultConfig.
func Load(path string) (Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash reads a config file and returns the SHA-256 hash of the raw
// bytes. When no file exists the hash is the SHA-256 of empty input.
// Values in the file override DefaultConfig field by field.
func LoadWithHash(path string) (Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, "", fmt.Errorf("config: read: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])
	if len(data) == 0 {
		return cfg, hash, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, "", fmt.Errorf("config: parse %s: %w", path, err)
	}
	if lvl, err := model.ParseEnforcementLevel(string(cfg.EnforcementLevel)); err == nil {
		cfg.EnforcementLevel = lvl
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", err
	}
	return cfg, hash, nil
}

// Validate checks enumerated values, bounds and alert destinations.
func (c Config) Validate() error {
	if _, err := model.ParseEnforcementLevel(string(c.EnforcementLevel)); err != nil {
		return fmt.Errorf("config: enforcement_level: %w", err)
	}
	if c.Audit.Capacity <= 0 {
		return fmt.Errorf("config: audit.capacity must be positive, got %d", c.Audit.Capacity)
	}
	if c.Confirmation.Timeout < 0 || c.Confirmation.HashTTL < 0 {
		return fmt.Errorf("config: confirmation durations must not be negative")
	}
	for k, w := range c.Risk.Kinds {
		if !k.Valid() {
			return fmt.Errorf("config: risk.kinds: %w: %q", model.ErrUnknownActionKind, k)
		}
		if w < 0 {
			return fmt.Errorf("config: risk.kinds.%s: weight must not be negative", k)
		}
	}
	for _, m := range c.Risk.Modifiers {
		if m.Key == "" || m.Factor <= 0 {
			return fmt.Errorf("config: risk.modifiers: need a key and a positive factor, got %+v", m)
		}
	}
	for i, a := range c.Alerts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("config: alerts[%d]: %w", i, err)
		}
	}
	return nil
}

// DefaultConfigYAML returns a commented config file for init.
func DefaultConfigYAML() string {
	body, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("config: marshal defaults: %v", err))
	}
	return `# actiongate configuration
# Generated by: actiongate init
#
# enforcement_level: low | medium | high
#   high blocks high and critical risk without asking.
# audit.journal_path and audit.sqlite_path enable the durable sinks; leave
# empty to disable.
# confirmation.timeout bounds remote confirmations (serve, mcp).
#
# alerts:
#   - url: https://hooks.slack.com/services/...
#     format: slack          # generic | slack | pagerduty
#     events: [denied, critical]
#
# risk:
#   kinds:
#     delete: 40
#   modifiers:
#     - key: is_admin_page
#       factor: 2.0

` + string(body)
}
