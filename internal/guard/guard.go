// Package guard is the single entry point for action checks: it enriches the
// context, scores the action with the rule engine and the risk assessor,
// applies the enforcement level, asks for confirmation when needed and
// records every decision.
package guard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ppiankov/actiongate/internal/analyze"
	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/audit"
	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/policy"
	"github.com/ppiankov/actiongate/internal/risk"
)

// HistoryLimit bounds the action history kept by a Guard.
const HistoryLimit = 100

// Enricher turns a raw context into an enriched one.
type Enricher interface {
	Analyze(kind model.ActionKind, target string, raw model.Context) model.Context
}

// Scorer produces the static risk assessment.
type Scorer interface {
	Assess(kind model.ActionKind, target string, ctx model.Context) model.RiskAssessment
}

// Callback observes events that went through the confirmation path.
// Events are masked.
type Callback func(ctx context.Context, ev model.SecurityEvent) error

// Guard orchestrates one action check. Safe for concurrent use.
type Guard struct {
	level    model.EnforcementLevel
	analyzer Enricher
	engine   *policy.Engine
	assessor Scorer
	gate     *approval.Gate
	store    *audit.Store
	logger   *slog.Logger

	requester approval.Requester

	mu      sync.Mutex
	history []model.HistoryEntry

	cbMu      sync.RWMutex
	callbacks []Callback
}

// Option configures a Guard.
type Option func(*Guard)

// WithLevel sets the enforcement level. Default is medium.
func WithLevel(l model.EnforcementLevel) Option {
	return func(g *Guard) { g.level = l }
}

// WithAnalyzer replaces the context analyzer.
func WithAnalyzer(a Enricher) Option {
	return func(g *Guard) { g.analyzer = a }
}

// WithEngine replaces the rule engine.
func WithEngine(e *policy.Engine) Option {
	return func(g *Guard) { g.engine = e }
}

// WithAssessor replaces the risk assessor.
func WithAssessor(s Scorer) Option {
	return func(g *Guard) { g.assessor = s }
}

// WithGate replaces the confirmation gate. Takes precedence over WithRequester.
func WithGate(gate *approval.Gate) Option {
	return func(g *Guard) { g.gate = gate }
}

// WithRequester builds the default gate around r.
func WithRequester(r approval.Requester) Option {
	return func(g *Guard) { g.requester = r }
}

// WithStore replaces the audit store.
func WithStore(s *audit.Store) Option {
	return func(g *Guard) { g.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// New wires a Guard. Without options it runs at medium enforcement with the
// built-in rules, weights and domain lists, an in-memory audit store and a
// gate that blocks every prompt as non-interactive.
func New(opts ...Option) *Guard {
	g := &Guard{level: model.EnforceMedium}
	for _, o := range opts {
		o(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if g.analyzer == nil {
		g.analyzer = analyze.New(nil, nil)
	}
	if g.engine == nil {
		g.engine = policy.NewEngine(policy.WithLogger(g.logger))
	}
	if g.assessor == nil {
		g.assessor = risk.New()
	}
	if g.store == nil {
		g.store = audit.NewStore(audit.WithLogger(g.logger))
	}
	if g.gate == nil {
		g.gate = approval.NewGate(g.requester, approval.WithGateLogger(g.logger))
	}
	return g
}

// CheckAction decides whether an action may run. The error is only non-nil
// for an unknown kind, which is rejected before any state changes.
func (g *Guard) CheckAction(ctx context.Context, kind model.ActionKind, target string, c model.Context) (bool, model.RiskAssessment, error) {
	if !kind.Valid() {
		return false, model.RiskAssessment{}, fmt.Errorf("guard: check action: %w: %q", model.ErrUnknownActionKind, kind)
	}

	raw := c.Clone()
	hash := g.gate.Hash(kind, target, raw)
	prior := g.remember(kind, target, raw.String(model.KeyCurrentURL))
	raw.SetIfAbsent(model.KeyRecentHistory, prior)

	enriched := g.analyzer.Analyze(kind, target, raw)

	if g.gate.Memo().Approved(hash) {
		ra := model.ZeroRisk(string(model.DecisionPreviouslyConfirmed))
		g.record(kind, target, ra, true, model.DecisionPreviouslyConfirmed, enriched)
		return true, ra, nil
	}

	triggered, ruleRisk := g.engine.Evaluate(kind, target, enriched)
	final := Fuse(ruleRisk, g.assessor.Assess(kind, target, enriched))

	outcome, policyID := policy.Enforce(g.level, kind, final)
	g.logger.Debug("action assessed",
		"action", kind,
		"score", final.Score,
		"level", final.Level,
		"rules", final.TriggeredRules,
		"outcome", outcome.String(),
		"policy_id", policyID,
	)

	switch outcome {
	case policy.Block:
		g.record(kind, target, final, false, model.DecisionAutoBlocked, enriched)
		return false, final, nil
	case policy.Confirm:
		allowed, decision := g.gate.Confirm(ctx, approval.Request{
			Kind:    kind,
			Target:  target,
			Risk:    final,
			Context: enriched,
			Rules:   triggered,
			Hash:    hash,
		})
		ev := g.record(kind, target, final, allowed, decision, enriched)
		g.notify(ctx, ev)
		return allowed, final, nil
	default:
		g.record(kind, target, final, true, model.DecisionAutoAllowed, enriched)
		return true, final, nil
	}
}

// remember appends the action to the history and returns the entries that
// preceded it.
func (g *Guard) remember(kind model.ActionKind, target, url string) []model.HistoryEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	prior := make([]model.HistoryEntry, len(g.history))
	copy(prior, g.history)

	g.history = append(g.history, model.HistoryEntry{
		Kind:      kind,
		Target:    model.Truncate(target, model.MaxTargetLen),
		URL:       url,
		Timestamp: model.Now(),
	})
	if over := len(g.history) - HistoryLimit; over > 0 {
		g.history = append(g.history[:0:0], g.history[over:]...)
	}
	return prior
}

func (g *Guard) record(kind model.ActionKind, target string, ra model.RiskAssessment, allowed bool, decision model.UserDecision, ctx model.Context) model.SecurityEvent {
	ev, err := g.store.LogAction(kind, target, ra, allowed, decision, ctx)
	if err != nil {
		g.logger.Warn("audit sink failed", "action", kind, "error", err)
	}
	return ev
}

// RegisterConfirmationCallback adds fn to the callbacks run after every
// confirmation-path decision.
func (g *Guard) RegisterConfirmationCallback(fn Callback) {
	if fn == nil {
		return
	}
	g.cbMu.Lock()
	g.callbacks = append(g.callbacks, fn)
	g.cbMu.Unlock()
}

// notify runs every callback. Errors and panics are logged and dropped.
func (g *Guard) notify(ctx context.Context, ev model.SecurityEvent) {
	g.cbMu.RLock()
	callbacks := make([]Callback, len(g.callbacks))
	copy(callbacks, g.callbacks)
	g.cbMu.RUnlock()
	if len(callbacks) == 0 {
		return
	}

	masked := audit.MaskEvent(ev)
	for i, fn := range callbacks {
		g.runCallback(ctx, i, fn, masked)
	}
}

func (g *Guard) runCallback(ctx context.Context, i int, fn Callback, ev model.SecurityEvent) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("confirmation callback panicked", "callback", i, "event", ev.ID, "panic", r)
		}
	}()
	if err := fn(ctx, ev); err != nil {
		g.logger.Warn("confirmation callback failed", "callback", i, "event", ev.ID, "error", err)
	}
}

// Level returns the enforcement level.
func (g *Guard) Level() model.EnforcementLevel {
	return g.level
}

// History returns a copy of the recorded actions, oldest first.
func (g *Guard) History() []model.HistoryEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]model.HistoryEntry, len(g.history))
	copy(out, g.history)
	return out
}

// Store returns the audit store.
func (g *Guard) Store() *audit.Store {
	return g.store
}

// Gate returns the confirmation gate.
func (g *Guard) Gate() *approval.Gate {
	return g.gate
}

// Rules returns the active rules in evaluation order.
func (g *Guard) Rules() []policy.Rule {
	return g.engine.Rules()
}

// ReloadRules swaps the rule set. Invalid rules leave the current set active.
func (g *Guard) ReloadRules(rules []policy.Rule) error {
	if err := g.engine.Replace(rules); err != nil {
		return fmt.Errorf("guard: reload rules: %w", err)
	}
	g.logger.Info("rules reloaded", "count", len(rules))
	return nil
}

// ReloadDomains swaps the domain lists when the analyzer supports it.
func (g *Guard) ReloadDomains(d analyze.Domains) bool {
	s, ok := g.analyzer.(interface{ SetDomains(analyze.Domains) })
	if !ok {
		return false
	}
	s.SetDomains(d)
	return true
}

// SaveLogs writes the audit report to path.
func (g *Guard) SaveLogs(path string) error {
	if err := g.store.SaveToFile(path); err != nil {
		return fmt.Errorf("guard: save logs: %w", err)
	}
	return nil
}

// Report summarizes the audit store over the last limit events.
func (g *Guard) Report(limit int) audit.Report {
	return g.store.Report(limit)
}
