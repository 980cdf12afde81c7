package audit

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ppiankov/actiongate/internal/model"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	if len(result.Entries) == 0 {
		return fmt.Sprintf("Journal: %s | No entries found.\n", result.Path)
	}

	var b strings.Builder

	first := formatDateRange(result.Summary.FirstTimestamp)
	last := formatTimeOnly(result.Summary.LastTimestamp)
	fmt.Fprintf(&b, "Journal: %s | %s to %s UTC\n", result.Path, first, last)
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		outcome := "ALLOW"
		if !e.Allowed {
			outcome = "BLOCK"
		}
		fmt.Fprintf(&b, "%-10s %-8s %5.1f %-6s %-20s %-34s %s\n",
			formatTimeOnly(e.Timestamp),
			strings.ToUpper(e.Level),
			e.Score,
			outcome,
			truncate(e.Action, 20),
			truncate(e.Target, 34),
			e.Decision)
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatDateRange(ts string) string {
	t, err := time.Parse(model.TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(model.TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s ReplaySummary) string {
	parts := []string{fmt.Sprintf("%d allow", s.AllowCount), fmt.Sprintf("%d block", s.BlockCount)}
	decisions := make([]string, 0, len(s.Decisions))
	for d, n := range s.Decisions {
		decisions = append(decisions, fmt.Sprintf("%s=%d", d, n))
	}
	slices.Sort(decisions)

	return fmt.Sprintf("Summary: %s | Max level: %s (%.1f) | %s\n",
		strings.Join(parts, ", "), s.MaxLevel, s.MaxScore, strings.Join(decisions, " "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
