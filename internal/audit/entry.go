package audit

import "github.com/ppiankov/actiongate/internal/model"

// JournalEntry is one line in the hash-chained JSONL journal.
// All fields are plain values (no map[string]any) so json.Marshal output is
// deterministic and the chain hashes are reproducible.
type JournalEntry struct {
	Timestamp  string   `json:"ts"`
	EventID    string   `json:"event_id"`
	Action     string   `json:"action"`
	Target     string   `json:"target"`
	URL        string   `json:"url,omitempty"`
	Score      float64  `json:"score"`
	Level      string   `json:"level"`
	Rules      []string `json:"rules"`
	Allowed    bool     `json:"allowed"`
	Decision   string   `json:"decision"`
	PolicyHash string   `json:"policy_hash,omitempty"`
	PrevHash   string   `json:"prev_hash"`
}

// EntryFromEvent flattens a masked event into a journal entry.
func EntryFromEvent(ev model.SecurityEvent) JournalEntry {
	rules := ev.Risk.TriggeredRules
	if rules == nil {
		rules = []string{}
	}
	return JournalEntry{
		Timestamp: ev.Timestamp,
		EventID:   ev.ID,
		Action:    string(ev.Kind),
		Target:    ev.Target,
		URL:       ev.Context.String(model.KeyCurrentURL),
		Score:     ev.Risk.Score,
		Level:     string(ev.Risk.Level),
		Rules:     rules,
		Allowed:   ev.Allowed,
		Decision:  string(ev.Decision),
	}
}
