package audit

import (
	"encoding/json"
	"fmt"

	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/redact"
)

// Summary is the headline section of a report.
type Summary struct {
	TotalEvents      int     `json:"total_events"`
	RecentEvents     int     `json:"recent_events"`
	BlockedActions   int     `json:"blocked_actions"`
	ConfirmedActions int     `json:"confirmed_actions"`
	BlockRate        float64 `json:"block_rate"`
}

// Distribution counts events per risk level.
type Distribution struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// EventSummary is the compact form of an event.
type EventSummary struct {
	Timestamp string             `json:"timestamp"`
	Action    model.ActionKind   `json:"action"`
	Target    string             `json:"target"`
	RiskScore float64            `json:"risk_score"`
	RiskLevel model.RiskLevel    `json:"risk_level"`
	Confirmed bool               `json:"confirmed"`
	Decision  model.UserDecision `json:"user_decision"`
}

// DetailedEvent is the full, masked form of an event.
type DetailedEvent struct {
	Timestamp  string               `json:"timestamp"`
	Action     model.ActionKind     `json:"action"`
	Target     string               `json:"target"`
	Risk       model.RiskAssessment `json:"risk_assessment"`
	Context    map[string]any       `json:"context"`
	Confirmed  bool                 `json:"confirmed"`
	Decision   model.UserDecision   `json:"user_decision"`
	Confidence float64              `json:"confidence"`
}

// Report is the exported audit document.
type Report struct {
	Summary          Summary         `json:"summary"`
	RiskDistribution Distribution    `json:"risk_distribution"`
	ActionStatistics map[string]int  `json:"action_statistics"`
	RecentEvents     []EventSummary  `json:"recent_events"`
	DetailedEvents   []DetailedEvent `json:"detailed_events,omitempty"`
}

// Report summarizes the store. limit bounds the recent window used for
// recent_events and action_statistics; limit <= 0 means every retained event.
// Targets are masked.
func (s *Store) Report(limit int) Report {
	return s.buildReport(limit, 0)
}

func (s *Store) buildReport(limit, detailed int) Report {
	s.mu.Lock()
	stats := s.stats
	events := make([]model.SecurityEvent, len(s.events))
	copy(events, s.events)
	s.mu.Unlock()

	recent := tail(events, limit)
	r := Report{
		Summary: Summary{
			TotalEvents:      stats.TotalEvents,
			RecentEvents:     len(recent),
			BlockedActions:   stats.BlockedActions,
			ConfirmedActions: stats.ConfirmedActions,
		},
		RiskDistribution: Distribution{
			Critical: stats.CriticalEvents,
			High:     stats.HighEvents,
			Medium:   stats.MediumEvents,
			Low:      stats.LowEvents,
		},
		ActionStatistics: make(map[string]int),
		RecentEvents:     make([]EventSummary, 0, len(recent)),
	}
	if stats.TotalEvents > 0 {
		r.Summary.BlockRate = float64(stats.BlockedActions) / float64(stats.TotalEvents)
	}

	for _, ev := range recent {
		r.ActionStatistics[string(ev.Kind)]++
		r.RecentEvents = append(r.RecentEvents, EventSummary{
			Timestamp: ev.Timestamp,
			Action:    ev.Kind,
			Target:    redact.Mask(ev.Target),
			RiskScore: ev.Risk.Score,
			RiskLevel: ev.Risk.Level,
			Confirmed: ev.Allowed,
			Decision:  ev.Decision,
		})
	}

	if detailed > 0 {
		for _, ev := range tail(events, detailed) {
			masked := MaskEvent(ev)
			r.DetailedEvents = append(r.DetailedEvents, DetailedEvent{
				Timestamp:  masked.Timestamp,
				Action:     masked.Kind,
				Target:     masked.Target,
				Risk:       masked.Risk,
				Context:    masked.Context,
				Confirmed:  masked.Allowed,
				Decision:   masked.Decision,
				Confidence: masked.Confidence,
			})
		}
	}
	return r
}

func tail(events []model.SecurityEvent, n int) []model.SecurityEvent {
	if n <= 0 || n >= len(events) {
		return events
	}
	return events[len(events)-n:]
}

// MaskEvent returns a copy of ev safe to persist: the target goes through
// redact.Mask and the context is reduced to JSON values and masked.
func MaskEvent(ev model.SecurityEvent) model.SecurityEvent {
	ev.Target = redact.Mask(ev.Target)
	ev.Risk = ev.Risk.Clone()
	ev.Context = MaskContext(ev.Context)
	return ev
}

// MaskContext converts ctx to plain JSON values and masks secrets.
// Values that cannot be encoded are kept as their printed form.
func MaskContext(ctx model.Context) model.Context {
	if ctx == nil {
		return nil
	}
	plain := make(map[string]any, len(ctx))
	for k, v := range ctx {
		data, err := json.Marshal(v)
		if err != nil {
			plain[k] = fmt.Sprint(v)
			continue
		}
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			plain[k] = fmt.Sprint(v)
			continue
		}
		plain[k] = decoded
	}
	return redact.MaskAuto(plain)
}
