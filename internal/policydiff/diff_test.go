package policydiff

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/policy"
	"github.com/ppiankov/actiongate/internal/risk"
)

func defaults(path string) Set {
	return Set{Path: path, Rules: policy.DefaultRules(), Weights: risk.DefaultWeights()}
}

func TestIdenticalSetsNoChanges(t *testing.T) {
	r := Diff(defaults("a"), defaults("b"))
	if r.HasChanges {
		t.Errorf("expected no changes, got %d changes + %d rule changes",
			len(r.Changes), len(r.RuleChanges))
	}
	if !strings.Contains(FormatText(r), "No changes detected.") {
		t.Errorf("unexpected text:\n%s", FormatText(r))
	}
}

func TestAddedRuleDetected(t *testing.T) {
	a := defaults("a")
	b := defaults("b")
	b.Rules = append(b.Rules, policy.Rule{
		Name: "danger_button", Kind: model.KindClickButton, Level: model.RiskCritical, Pattern: "danger", Weight: 1,
	})

	r := Diff(a, b)
	if len(r.RuleChanges) != 1 {
		t.Fatalf("expected 1 rule change, got %d", len(r.RuleChanges))
	}
	rc := r.RuleChanges[0]
	if rc.Type != Added || !strings.HasPrefix(rc.Rule, "danger_button (click_button, critical") {
		t.Errorf("unexpected change: %+v", rc)
	}
}

func TestRemovedRuleDetected(t *testing.T) {
	a := defaults("a")
	b := defaults("b")
	b.Rules = b.Rules[1:]

	r := Diff(a, b)
	if len(r.RuleChanges) != 1 {
		t.Fatalf("expected 1 rule change, got %d", len(r.RuleChanges))
	}
	if r.RuleChanges[0].Type != Removed || !strings.HasPrefix(r.RuleChanges[0].Rule, a.Rules[0].Name) {
		t.Errorf("unexpected change: %+v", r.RuleChanges[0])
	}
}

func TestChangedRuleFields(t *testing.T) {
	a := defaults("a")
	b := defaults("b")
	for i := range b.Rules {
		if b.Rules[i].Name == "email_input" {
			b.Rules[i].Level = model.RiskHigh
			b.Rules[i].Weight = 1
		}
	}

	r := Diff(a, b)
	if len(r.RuleChanges) != 1 || r.RuleChanges[0].Type != Changed {
		t.Fatalf("expected one changed rule, got %+v", r.RuleChanges)
	}
	fields := map[string]Change{}
	for _, c := range r.RuleChanges[0].Changes {
		fields[c.Field] = c
	}
	if c := fields["level"]; c.Old != "medium" || c.New != "high" || c.Comment != "stricter" {
		t.Errorf("unexpected level change: %+v", c)
	}
	if c := fields["weight"]; c.Old != "1.5" || c.New != "1" || c.Comment != "looser" {
		t.Errorf("unexpected weight change: %+v", c)
	}
}

func TestChangedKindWeight(t *testing.T) {
	a := defaults("a")
	b := defaults("b")
	b.Weights = b.Weights.Merge(risk.Weights{Kinds: map[model.ActionKind]float64{model.KindDelete: 40}})

	r := Diff(a, b)
	if len(r.Changes) != 1 {
		t.Fatalf("expected 1 change, got %+v", r.Changes)
	}
	c := r.Changes[0]
	if c.Field != "risk.kinds.delete" || c.Old != "25" || c.New != "40" || c.Comment != "stricter" {
		t.Errorf("unexpected change: %+v", c)
	}
}

func TestModifierAddedAndChanged(t *testing.T) {
	a := defaults("a")
	b := defaults("b")
	b.Weights = b.Weights.Merge(risk.Weights{Modifiers: []risk.Modifier{
		{Key: model.KeyIsAdminPage, Factor: 1.2},
		{Key: "is_crypto_page", Factor: 2},
	}})

	r := Diff(a, b)
	if len(r.Changes) != 2 {
		t.Fatalf("expected 2 changes, got %+v", r.Changes)
	}
	if r.Changes[0].Field != "risk.modifiers."+model.KeyIsAdminPage || r.Changes[0].Comment != "looser" {
		t.Errorf("unexpected change: %+v", r.Changes[0])
	}
	if r.Changes[1].Field != "risk.modifiers.is_crypto_page" || r.Changes[1].Comment != Added {
		t.Errorf("unexpected change: %+v", r.Changes[1])
	}
}

func TestEmptyWeightsSkipped(t *testing.T) {
	a := Set{Rules: policy.DefaultRules()}
	b := defaults("b")
	if r := Diff(a, b); r.HasChanges {
		t.Errorf("weights missing on one side must not be reported, got %+v", r.Changes)
	}
}

func TestFormatTextAndJSON(t *testing.T) {
	a := defaults("old.yaml")
	b := defaults("new.yaml")
	b.Rules = append(b.Rules[1:], policy.Rule{Name: "danger_button", Level: model.RiskHigh, Pattern: "danger", Weight: 1})
	b.Weights = b.Weights.Merge(risk.Weights{Kinds: map[model.ActionKind]float64{model.KindScroll: 0.5}})

	r := Diff(a, b)
	text := FormatText(r)
	for _, want := range []string{
		"Rules diff: old.yaml → new.yaml",
		"+ danger_button (*, high, weight 1)",
		"- " + a.Rules[0].Name,
		"Kind Weights:",
		"scroll:",
		"(stricter)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in:\n%s", want, text)
		}
	}

	out, err := FormatJSON(r)
	if err != nil {
		t.Fatal(err)
	}
	var parsed DiffResult
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatal(err)
	}
	if !parsed.HasChanges || len(parsed.RuleChanges) != 2 {
		t.Errorf("unexpected JSON result: %+v", parsed)
	}
}
