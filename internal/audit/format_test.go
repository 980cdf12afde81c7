package audit

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleResult() *ReplayResult {
	return &ReplayResult{
		Path: "journal.jsonl",
		Entries: []JournalEntry{
			{Timestamp: "2025-01-15T14:00:00.000Z", Action: "click", Target: "Continue", Score: 10, Level: "low", Allowed: true, Decision: "auto_allowed"},
			{Timestamp: "2025-01-15T14:00:06.000Z", Action: "payment", Target: "Оформить заказ на сумму 12 000 рублей сегодня", Score: 96, Level: "critical", Allowed: false, Decision: "blocked"},
		},
		Summary: ReplaySummary{
			Total:          2,
			AllowCount:     1,
			BlockCount:     1,
			Decisions:      map[string]int{"auto_allowed": 1, "blocked": 1},
			FirstTimestamp: "2025-01-15T14:00:00.000Z",
			LastTimestamp:  "2025-01-15T14:00:06.000Z",
			MaxLevel:       "critical",
			MaxScore:       96,
		},
	}
}

func TestFormatTimeline(t *testing.T) {
	out := FormatTimeline(sampleResult())

	for _, want := range []string{
		"Journal: journal.jsonl | 2025-01-15 14:00:00 to 14:00:06 UTC",
		"CRITICAL",
		"BLOCK",
		"payment",
		"Summary: 1 allow, 1 block | Max level: critical (96.0) | auto_allowed=1 blocked=1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("timeline missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "...") {
		t.Error("long targets should be truncated")
	}
}

func TestFormatTimelineEmpty(t *testing.T) {
	out := FormatTimeline(&ReplayResult{Path: "x.jsonl"})
	if out != "Journal: x.jsonl | No entries found.\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	var back ReplayResult
	if err := json.Unmarshal([]byte(out), &back); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if back.Summary.Total != 2 || len(back.Entries) != 2 {
		t.Errorf("unexpected decoded result %+v", back.Summary)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncate("привет мир", 6); got != "при..." {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("unexpected %q", got)
	}
}
