// Package alert posts decided actions to webhook endpoints.
package alert

import (
	"fmt"
	"strings"

	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/redact"
)

// Payload formats.
const (
	FormatGeneric   = "generic"
	FormatSlack     = "slack"
	FormatPagerDuty = "pagerduty"
)

// Outcome names usable in AlertConfig.Events next to decision tags and risk levels.
const (
	EventAllowed = "allowed"
	EventDenied  = "denied"
)

// AlertConfig defines a webhook alert destination.
type AlertConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // decision tags, risk levels, "allowed", "denied"
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Validate checks the URL and format.
func (c AlertConfig) Validate() error {
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("alert: url must be http(s), got %q", c.URL)
	}
	switch c.Format {
	case "", FormatGeneric, FormatSlack, FormatPagerDuty:
	default:
		return fmt.Errorf("alert: unknown format %q", c.Format)
	}
	if len(c.Events) == 0 {
		return fmt.Errorf("alert: %s: no events selected", c.URL)
	}
	return nil
}

// AlertEvent is the payload sent to webhook endpoints.
type AlertEvent struct {
	Timestamp string   `json:"timestamp"`
	EventID   string   `json:"event_id"`
	Action    string   `json:"action"`
	Target    string   `json:"target"`
	URL       string   `json:"url,omitempty"`
	Score     float64  `json:"score"`
	Level     string   `json:"level"`
	Rules     []string `json:"rules"`
	Allowed   bool     `json:"allowed"`
	Decision  string   `json:"decision"`
}

// EventFromSecurityEvent builds the webhook payload for ev. The target is
// masked again in case the caller passes a raw event.
func EventFromSecurityEvent(ev model.SecurityEvent) AlertEvent {
	rules := ev.Risk.TriggeredRules
	if rules == nil {
		rules = []string{}
	}
	return AlertEvent{
		Timestamp: ev.Timestamp,
		EventID:   ev.ID,
		Action:    string(ev.Kind),
		Target:    redact.Mask(ev.Target),
		URL:       ev.Context.String(model.KeyCurrentURL),
		Score:     ev.Risk.Score,
		Level:     string(ev.Risk.Level),
		Rules:     append([]string(nil), rules...),
		Allowed:   ev.Allowed,
		Decision:  string(ev.Decision),
	}
}
