package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event AlertEvent) ([]byte, error) {
	switch format {
	case FormatSlack:
		return formatSlack(event)
	case FormatPagerDuty:
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event AlertEvent) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event AlertEvent) ([]byte, error) {
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("actiongate: %s %s", event.Action, event.Decision),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Action:* %s", event.Action)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Target:* %s", event.Target)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Risk:* %.1f (%s)", event.Score, event.Level)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Page:* %s", orNone(event.URL))},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event AlertEvent) ([]byte, error) {
	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("actiongate %s %s: %s", event.Decision, event.Action, event.Target),
			"severity": severityFor(event.Level),
			"source":   "actiongate",
			"custom_details": map[string]any{
				"action":   event.Action,
				"target":   event.Target,
				"url":      event.URL,
				"score":    event.Score,
				"level":    event.Level,
				"rules":    event.Rules,
				"event_id": event.EventID,
			},
		},
	}
	return json.Marshal(payload)
}

// severityFor maps a risk level onto a PagerDuty severity.
func severityFor(level string) string {
	switch level {
	case "critical":
		return "critical"
	case "high":
		return "error"
	case "medium":
		return "warning"
	default:
		return "info"
	}
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
