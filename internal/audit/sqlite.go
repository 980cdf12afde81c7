package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/actiongate/internal/model"
)

// Record is one row of the security_events table.
type Record struct {
	ID        string             `json:"id"`
	Timestamp string             `json:"timestamp"`
	Action    model.ActionKind   `json:"action"`
	Target    string             `json:"target"`
	Score     float64            `json:"score"`
	Level     model.RiskLevel    `json:"level"`
	Rules     []string           `json:"triggered_rules"`
	Allowed   bool               `json:"allowed"`
	Decision  model.UserDecision `json:"user_decision"`
	Context   map[string]any     `json:"context"`
}

// SQLiteSink stores masked events in a SQLite database for querying.
type SQLiteSink struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS security_events (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		timestamp  TEXT NOT NULL,
		action     TEXT NOT NULL,
		target     TEXT,
		score      REAL,
		level      TEXT,
		rules      TEXT,
		allowed    INTEGER,
		decision   TEXT,
		context    TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_security_events_level ON security_events(level);`)
	return err
}

// Write inserts a masked event. It satisfies Sink.
func (s *SQLiteSink) Write(ev model.SecurityEvent) error {
	rules, err := json.Marshal(ev.Risk.TriggeredRules)
	if err != nil {
		return fmt.Errorf("audit: marshal rules: %w", err)
	}
	ctx, err := json.Marshal(ev.Context)
	if err != nil {
		return fmt.Errorf("audit: marshal context: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`INSERT INTO security_events
		(id, timestamp, action, target, score, level, rules, allowed, decision, context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.Timestamp,
		string(ev.Kind),
		ev.Target,
		ev.Risk.Score,
		string(ev.Risk.Level),
		string(rules),
		boolToInt(ev.Allowed),
		string(ev.Decision),
		string(ctx),
	)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (s *SQLiteSink) Recent(limit int) ([]Record, error) {
	query := `SELECT id, timestamp, action, target, score, level, rules, allowed, decision, context
		FROM security_events ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			rules   string
			ctx     string
			allowed int
		)
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Action, &r.Target, &r.Score, &r.Level, &rules, &allowed, &r.Decision, &ctx); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		r.Allowed = allowed == 1
		_ = json.Unmarshal([]byte(rules), &r.Rules)
		_ = json.Unmarshal([]byte(ctx), &r.Context)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of stored events.
func (s *SQLiteSink) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM security_events").Scan(&n); err != nil {
		return 0, fmt.Errorf("audit: count events: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
