package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/actiongate/internal/model"
)

// ReplayFilter selects journal entries. Zero values disable a criterion.
type ReplayFilter struct {
	Kind     model.ActionKind
	Decision model.UserDecision
	MinLevel model.RiskLevel
	From     time.Time
	To       time.Time
	// BlockedOnly keeps only entries that were not allowed.
	BlockedOnly bool
}

func (f ReplayFilter) match(e JournalEntry) bool {
	if f.Kind != "" && e.Action != string(f.Kind) {
		return false
	}
	if f.Decision != "" && e.Decision != string(f.Decision) {
		return false
	}
	if f.MinLevel != "" && !model.RiskLevel(e.Level).AtLeast(f.MinLevel) {
		return false
	}
	if f.BlockedOnly && e.Allowed {
		return false
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		ts, err := time.Parse(model.TimestampFormat, e.Timestamp)
		if err != nil {
			return false
		}
		if !f.From.IsZero() && ts.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && ts.After(f.To) {
			return false
		}
	}
	return true
}

// ReplaySummary holds outcome counts and metadata for replayed entries.
type ReplaySummary struct {
	Total          int            `json:"total"`
	AllowCount     int            `json:"allow_count"`
	BlockCount     int            `json:"block_count"`
	Decisions      map[string]int `json:"decisions"`
	FirstTimestamp string         `json:"first_timestamp"`
	LastTimestamp  string         `json:"last_timestamp"`
	MaxLevel       string         `json:"max_level"`
	MaxScore       float64        `json:"max_score"`
}

// ReplayResult holds filtered entries and their summary.
type ReplayResult struct {
	Path    string         `json:"path"`
	Entries []JournalEntry `json:"entries"`
	Summary ReplaySummary  `json:"summary"`
}

// Replay reads the journal and returns entries matching the filter.
// Malformed lines are skipped.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{
		Path:    path,
		Summary: ReplaySummary{Decisions: make(map[string]int), MaxLevel: string(model.RiskLow)},
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if !filter.match(entry) {
			continue
		}
		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	return result, nil
}

func updateSummary(s *ReplaySummary, e JournalEntry) {
	s.Total++
	if e.Allowed {
		s.AllowCount++
	} else {
		s.BlockCount++
	}
	s.Decisions[e.Decision]++

	if model.RiskLevel(e.Level).Rank() > model.RiskLevel(s.MaxLevel).Rank() {
		s.MaxLevel = e.Level
	}
	s.MaxScore = max(s.MaxScore, e.Score)

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = e.Timestamp
	}
	s.LastTimestamp = e.Timestamp
}
