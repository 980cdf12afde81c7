package policy

import (
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/ppiankov/actiongate/internal/model"
)

// NavigationScore is the fixed rule score for plain navigation.
const NavigationScore = 5.0

// defaultConfidence is used when the context carries no confidence.
const defaultConfidence = 0.5

// RuleCounts summarizes the rule set by name-based category.
type RuleCounts struct {
	Total      int `json:"total"`
	Financial  int `json:"financial"`
	Privacy    int `json:"privacy"`
	Navigation int `json:"navigation"`
	Context    int `json:"context"`
}

// Engine holds an ordered, mutable rule list. Safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	rules    []Rule
	registry *Registry
	logger   *slog.Logger

	cacheMu sync.Mutex
	regexes map[string]*regexp.Regexp
	broken  map[string]bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the predicate registry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithLogger sets the logger used for skipped rules.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine seeded with DefaultRules.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:   DefaultRules(),
		regexes: make(map[string]*regexp.Regexp),
		broken:  make(map[string]bool),
	}
	for _, o := range opts {
		o(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Evaluate runs every applicable rule against target and ctx and returns the
// triggered rules plus a normalized assessment:
// 100 × Σ(weight × level multiplier) / Σweight over triggered rules.
// Navigate and NavigateExternal are never rule-driven and always score
// NavigationScore. Rules whose pattern does not compile are skipped.
func (e *Engine) Evaluate(kind model.ActionKind, target string, ctx model.Context) ([]Rule, model.RiskAssessment) {
	confidence := ctx.Float(model.KeyConfidence, defaultConfidence)

	if kind.IsRuleExempt() {
		return nil, model.NewRiskAssessment(NavigationScore, nil, nil, confidence)
	}

	e.mu.RLock()
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	e.mu.RUnlock()

	var triggered []Rule
	for _, r := range rules {
		if r.Kind != "" && r.Kind != kind {
			continue
		}
		if r.Predicate != "" {
			p, err := e.registry.Lookup(r.Predicate)
			if err != nil {
				e.logger.Warn("rule skipped", "rule", r.Name, "error", err)
				continue
			}
			if !p.Eval(ctx) {
				continue
			}
		}
		if r.Pattern == "" {
			if r.Predicate != "" {
				triggered = append(triggered, r)
			}
			continue
		}
		if e.matches(r, target) {
			triggered = append(triggered, r)
		}
	}

	var score, total float64
	names := make([]string, 0, len(triggered))
	for _, r := range triggered {
		score += r.Weight * r.Multiplier()
		total += r.Weight
		names = append(names, r.Name)
	}
	normalized := 0.0
	if total > 0 {
		normalized = score / total * 100
	}

	return triggered, model.NewRiskAssessment(normalized, names, nil, confidence)
}

func (e *Engine) matches(r Rule, target string) bool {
	if !r.Regex {
		return strings.Contains(strings.ToLower(target), strings.ToLower(r.Pattern))
	}
	re := e.compiled(r)
	return re != nil && re.MatchString(target)
}

// compiled returns the cached regex for r, or nil if it does not compile.
func (e *Engine) compiled(r Rule) *regexp.Regexp {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if re, ok := e.regexes[r.Pattern]; ok {
		return re
	}
	if e.broken[r.Pattern] {
		return nil
	}
	re, err := regexp.Compile("(?i)" + r.Pattern)
	if err != nil {
		e.broken[r.Pattern] = true
		e.logger.Warn("rule pattern does not compile, skipping", "rule", r.Name, "error", err)
		return nil
	}
	e.regexes[r.Pattern] = re
	return re
}

// AddRule validates r and appends it, replacing a rule with the same name in place.
func (e *Engine) AddRule(r Rule) error {
	if err := r.Validate(e.registry); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.rules {
		if e.rules[i].Name == r.Name {
			e.rules[i] = r
			return nil
		}
	}
	e.rules = append(e.rules, r)
	return nil
}

// RemoveRule deletes every rule named name and reports whether one existed.
func (e *Engine) RemoveRule(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.rules[:0]
	removed := false
	for _, r := range e.rules {
		if r.Name == name {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	e.rules = kept
	return removed
}

// Replace swaps the whole rule set after validating every rule.
// On error the current rules stay in place.
func (e *Engine) Replace(rules []Rule) error {
	for _, r := range rules {
		if err := r.Validate(e.registry); err != nil {
			return err
		}
	}
	next := make([]Rule, len(rules))
	copy(next, rules)

	e.mu.Lock()
	e.rules = next
	e.mu.Unlock()
	return nil
}

// Rules returns a copy of the rule list in evaluation order.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Registry returns the predicate registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Count reports totals plus name-substring categories: financial
// ("payment"), privacy ("password", "privacy"), navigation ("navigation")
// and context (rules with a predicate).
func (e *Engine) Count() RuleCounts {
	e.mu.RLock()
	defer e.mu.RUnlock()

	c := RuleCounts{Total: len(e.rules)}
	for _, r := range e.rules {
		name := strings.ToLower(r.Name)
		if strings.Contains(name, "payment") || strings.Contains(name, "financ") {
			c.Financial++
		}
		if strings.Contains(name, "password") || strings.Contains(name, "privacy") {
			c.Privacy++
		}
		if strings.Contains(name, "navigation") {
			c.Navigation++
		}
		if r.Predicate != "" {
			c.Context++
		}
	}
	return c
}
