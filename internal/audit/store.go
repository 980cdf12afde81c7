// Package audit records decided actions: an in-memory store with cumulative
// counters and report export, plus durable sinks (hash-chained JSONL journal
// and SQLite).
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/ppiankov/actiongate/internal/model"
)

const (
	// DefaultCapacity bounds the number of retained events.
	DefaultCapacity = 1000
	// DefaultReportLimit is the recent-event window for ad hoc reports.
	DefaultReportLimit = 100
	// MaxDetailedEvents bounds detailed_events in saved reports.
	MaxDetailedEvents = 500
)

// Sink receives every logged event after it is stored in memory.
// Events passed to sinks are already masked.
type Sink interface {
	Write(ev model.SecurityEvent) error
	Close() error
}

// Stats are the cumulative counters. They are never decremented on eviction.
type Stats struct {
	TotalEvents      int `json:"total_events"`
	BlockedActions   int `json:"blocked_actions"`
	ConfirmedActions int `json:"confirmed_actions"`
	CriticalEvents   int `json:"critical_events"`
	HighEvents       int `json:"high_events"`
	MediumEvents     int `json:"medium_events"`
	LowEvents        int `json:"low_events"`
}

// Store is a bounded in-memory event log. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	events   []model.SecurityEvent
	capacity int
	stats    Stats

	sinkMu sync.Mutex
	sinks  []Sink
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity sets how many events are retained. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithSink adds a durable sink.
func WithSink(sink Sink) Option {
	return func(s *Store) { s.sinks = append(s.sinks, sink) }
}

// WithLogger sets the logger used for sink failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store with DefaultCapacity.
func NewStore(opts ...Option) *Store {
	s := &Store{capacity: DefaultCapacity}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// AddSink attaches a sink to an existing store.
func (s *Store) AddSink(sink Sink) {
	s.sinkMu.Lock()
	s.sinks = append(s.sinks, sink)
	s.sinkMu.Unlock()
}

// LogEvent appends ev, updates the counters and evicts the oldest events
// beyond capacity. Missing ID and timestamp are filled in. The returned error
// only reports sink failures; the in-memory append always succeeds.
func (s *Store) LogEvent(ev model.SecurityEvent) error {
	_, err := s.logEvent(ev)
	return err
}

func (s *Store) logEvent(ev model.SecurityEvent) (model.SecurityEvent, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp == "" {
		ev.Timestamp = model.Now()
	}

	s.mu.Lock()
	s.events = append(s.events, ev)
	s.stats.TotalEvents++
	switch ev.Risk.Level {
	case model.RiskCritical:
		s.stats.CriticalEvents++
	case model.RiskHigh:
		s.stats.HighEvents++
	case model.RiskMedium:
		s.stats.MediumEvents++
	default:
		s.stats.LowEvents++
	}
	if ev.Allowed {
		s.stats.ConfirmedActions++
	} else {
		s.stats.BlockedActions++
	}
	if over := len(s.events) - s.capacity; over > 0 {
		s.events = append(s.events[:0:0], s.events[over:]...)
	}
	s.mu.Unlock()

	return ev, s.fanOut(ev)
}

func (s *Store) fanOut(ev model.SecurityEvent) error {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	if len(s.sinks) == 0 {
		return nil
	}

	masked := MaskEvent(ev)
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Write(masked); err != nil {
			s.logger.Warn("audit sink write failed", "event", ev.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogAction builds and logs an event and returns it as stored. Target is
// truncated to model.MaxTargetLen runes. An empty decision is derived from
// allowed.
func (s *Store) LogAction(kind model.ActionKind, target string, risk model.RiskAssessment, allowed bool, decision model.UserDecision, ctx model.Context) (model.SecurityEvent, error) {
	if decision == "" {
		decision = model.DecisionAutoBlocked
		if allowed {
			decision = model.DecisionAutoAllowed
		}
	}
	return s.logEvent(model.SecurityEvent{
		Kind:       kind,
		Target:     model.Truncate(target, model.MaxTargetLen),
		Risk:       risk.Clone(),
		Context:    ctx.Clone(),
		Allowed:    allowed,
		Decision:   decision,
		Confidence: risk.Confidence,
	})
}

// Stats returns a copy of the cumulative counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Len returns the number of retained events.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Events returns a copy of the retained events, oldest first.
func (s *Store) Events() []model.SecurityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SecurityEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Close closes every sink.
func (s *Store) Close() error {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.sinks = nil
	return errors.Join(errs...)
}

// SaveToFile writes the full report plus up to MaxDetailedEvents detailed
// events to path as indented JSON. The file is written to a temp name and
// renamed into place. Failures leave the in-memory state untouched.
func (s *Store) SaveToFile(path string) error {
	report := s.buildReport(0, MaxDetailedEvents)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("audit: marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("audit: create directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("audit: write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("audit: rename: %w", err)
	}
	return nil
}
