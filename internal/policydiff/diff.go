// Package policydiff compares two rule sets and risk weight tables and reports
// what a rollout would change.
package policydiff

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/policy"
	"github.com/ppiankov/actiongate/internal/risk"
)

// Change types.
const (
	Added   = "added"
	Removed = "removed"
	Changed = "changed"
)

// Change represents a scalar field change.
type Change struct {
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Comment string `json:"comment,omitempty"`
}

// RuleChange represents a rule addition, removal, or modification.
type RuleChange struct {
	Type    string   `json:"type"`
	Rule    string   `json:"rule"`
	Changes []Change `json:"changes,omitempty"`
}

// Set is one side of a comparison. Zero Weights are skipped.
type Set struct {
	Path    string
	Rules   []policy.Rule
	Weights risk.Weights
}

// DiffResult holds the comparison of two sets.
type DiffResult struct {
	OldPath     string       `json:"old_path"`
	NewPath     string       `json:"new_path"`
	Changes     []Change     `json:"changes"`
	RuleChanges []RuleChange `json:"rule_changes"`
	HasChanges  bool         `json:"has_changes"`
}

// Diff compares two sets and returns the differences.
func Diff(old, new Set) *DiffResult {
	r := &DiffResult{OldPath: old.Path, NewPath: new.Path}

	diffRules(r, old.Rules, new.Rules)
	diffKinds(r, old.Weights.Kinds, new.Weights.Kinds)
	diffModifiers(r, old.Weights.Modifiers, new.Weights.Modifiers)

	r.HasChanges = len(r.Changes) > 0 || len(r.RuleChanges) > 0
	return r
}

func floatComment(old, new float64) string {
	if new > old {
		return "stricter"
	}
	return "looser"
}

func levelComment(old, new model.RiskLevel) string {
	if new.Rank() > old.Rank() {
		return "stricter"
	}
	return "looser"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func ruleLabel(r policy.Rule) string {
	kind := string(r.Kind)
	if kind == "" {
		kind = "*"
	}
	return fmt.Sprintf("%s (%s, %s, weight %s)", r.Name, kind, r.Level, formatFloat(r.Weight))
}

func diffRules(r *DiffResult, oldRules, newRules []policy.Rule) {
	oldMap := make(map[string]policy.Rule, len(oldRules))
	for _, rule := range oldRules {
		oldMap[rule.Name] = rule
	}
	newMap := make(map[string]policy.Rule, len(newRules))
	for _, rule := range newRules {
		newMap[rule.Name] = rule
	}

	for _, rule := range newRules {
		oldRule, exists := oldMap[rule.Name]
		if !exists {
			r.RuleChanges = append(r.RuleChanges, RuleChange{Type: Added, Rule: ruleLabel(rule)})
			continue
		}
		if fields := ruleFields(oldRule, rule); len(fields) > 0 {
			r.RuleChanges = append(r.RuleChanges, RuleChange{Type: Changed, Rule: rule.Name, Changes: fields})
		}
	}

	for _, rule := range oldRules {
		if _, exists := newMap[rule.Name]; !exists {
			r.RuleChanges = append(r.RuleChanges, RuleChange{Type: Removed, Rule: ruleLabel(rule)})
		}
	}
}

func ruleFields(old, new policy.Rule) []Change {
	var out []Change
	if old.Kind != new.Kind {
		out = append(out, Change{Field: "kind", Old: string(old.Kind), New: string(new.Kind)})
	}
	if old.Level != new.Level {
		out = append(out, Change{Field: "level", Old: string(old.Level), New: string(new.Level), Comment: levelComment(old.Level, new.Level)})
	}
	if old.Weight != new.Weight {
		out = append(out, Change{Field: "weight", Old: formatFloat(old.Weight), New: formatFloat(new.Weight), Comment: floatComment(old.Weight, new.Weight)})
	}
	if old.Pattern != new.Pattern || old.Regex != new.Regex {
		out = append(out, Change{Field: "pattern", Old: old.Pattern, New: new.Pattern})
	}
	if old.Predicate != new.Predicate {
		out = append(out, Change{Field: "predicate", Old: old.Predicate, New: new.Predicate})
	}
	if old.Message != new.Message {
		out = append(out, Change{Field: "message", Old: old.Message, New: new.Message})
	}
	return out
}

func diffKinds(r *DiffResult, old, new map[model.ActionKind]float64) {
	if len(old) == 0 || len(new) == 0 {
		return
	}
	keys := make([]string, 0, len(old)+len(new))
	seen := make(map[model.ActionKind]bool)
	for k := range old {
		seen[k] = true
		keys = append(keys, string(k))
	}
	for k := range new {
		if !seen[k] {
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		k := model.ActionKind(key)
		o, inOld := old[k]
		n, inNew := new[k]
		field := "risk.kinds." + key
		switch {
		case !inOld:
			r.Changes = append(r.Changes, Change{Field: field, New: formatFloat(n), Comment: Added})
		case !inNew:
			r.Changes = append(r.Changes, Change{Field: field, Old: formatFloat(o), Comment: Removed})
		case o != n:
			r.Changes = append(r.Changes, Change{Field: field, Old: formatFloat(o), New: formatFloat(n), Comment: floatComment(o, n)})
		}
	}
}

func diffModifiers(r *DiffResult, old, new []risk.Modifier) {
	if len(old) == 0 || len(new) == 0 {
		return
	}
	oldMap := make(map[string]float64, len(old))
	for _, m := range old {
		oldMap[m.Key] = m.Factor
	}
	newMap := make(map[string]float64, len(new))
	for _, m := range new {
		newMap[m.Key] = m.Factor
	}

	for _, m := range new {
		field := "risk.modifiers." + m.Key
		o, exists := oldMap[m.Key]
		switch {
		case !exists:
			r.Changes = append(r.Changes, Change{Field: field, New: formatFloat(m.Factor), Comment: Added})
		case o != m.Factor:
			r.Changes = append(r.Changes, Change{Field: field, Old: formatFloat(o), New: formatFloat(m.Factor), Comment: floatComment(o, m.Factor)})
		}
	}
	for _, m := range old {
		if _, exists := newMap[m.Key]; !exists {
			r.Changes = append(r.Changes, Change{Field: "risk.modifiers." + m.Key, Old: formatFloat(m.Factor), Comment: Removed})
		}
	}
}
