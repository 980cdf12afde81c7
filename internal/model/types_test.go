package model

import (
	"errors"
	"strings"
	"testing"
)

func TestParseActionKindRejectsUnknown(t *testing.T) {
	for _, k := range AllKinds {
		got, err := ParseActionKind(string(k))
		if err != nil {
			t.Fatalf("ParseActionKind(%q): unexpected error %v", k, err)
		}
		if got != k {
			t.Errorf("expected %s, got %s", k, got)
		}
	}

	_, err := ParseActionKind("teleport")
	if !errors.Is(err, ErrUnknownActionKind) {
		t.Fatalf("expected ErrUnknownActionKind, got %v", err)
	}
	if ActionKind("").Valid() {
		t.Error("empty kind must not be valid")
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindNavigateSuspicious.IsNavigation() {
		t.Error("navigate_suspicious is navigation")
	}
	if KindNavigateSuspicious.IsRuleExempt() {
		t.Error("navigate_suspicious must stay rule-driven")
	}
	if !KindNavigate.IsRuleExempt() || !KindNavigateExternal.IsRuleExempt() {
		t.Error("plain navigation must be rule exempt")
	}
	if !KindTypeCardNumber.IsTyping() || KindPayment.IsTyping() {
		t.Error("typing classification wrong")
	}
}

func TestLevelForScoreMonotonic(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskLow},
		{29.99, RiskLow},
		{30, RiskMedium},
		{59.9, RiskMedium},
		{60, RiskHigh},
		{79.9, RiskHigh},
		{80, RiskCritical},
		{100, RiskCritical},
	}
	for _, tt := range tests {
		if got := LevelForScore(tt.score); got != tt.want {
			t.Errorf("LevelForScore(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}

	prev := -1
	for s := 0.0; s <= 100; s += 0.5 {
		r := LevelForScore(s).Rank()
		if r < prev {
			t.Fatalf("level rank decreased at score %v", s)
		}
		prev = r
	}
}

func TestNewRiskAssessmentClampsAndDedupes(t *testing.T) {
	rules := []string{"a", "b", "a"}
	ra := NewRiskAssessment(140, rules, []string{"x"}, 2)

	if ra.Score != 100 || ra.Level != RiskCritical {
		t.Fatalf("expected clamped 100/critical, got %v/%s", ra.Score, ra.Level)
	}
	if ra.Confidence != 1 {
		t.Errorf("expected confidence clamped to 1, got %v", ra.Confidence)
	}
	if strings.Join(ra.TriggeredRules, ",") != "a,b" {
		t.Errorf("expected deduped rules a,b, got %v", ra.TriggeredRules)
	}

	rules[0] = "mutated"
	if ra.TriggeredRules[0] != "a" {
		t.Error("assessment must not alias caller slice")
	}

	neg := NewRiskAssessment(-5, nil, nil, 0.5)
	if neg.Score != 0 || neg.Level != RiskLow {
		t.Errorf("expected 0/low, got %v/%s", neg.Score, neg.Level)
	}
}

func TestCloneIsDeep(t *testing.T) {
	ra := NewRiskAssessment(50, []string{"r"}, []string{"rec"}, 0.5)
	c := ra.Clone()
	c.TriggeredRules[0] = "changed"
	if ra.TriggeredRules[0] != "r" {
		t.Error("clone shares rule slice")
	}
}

func TestParseEnforcementLevel(t *testing.T) {
	for in, want := range map[string]EnforcementLevel{
		"low": EnforceLow, "MEDIUM": EnforceMedium, " high ": EnforceHigh,
	} {
		got, err := ParseEnforcementLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseEnforcementLevel(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseEnforcementLevel("paranoid"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestUserDecisionFailsClosed(t *testing.T) {
	allowing := []UserDecision{DecisionApproved, DecisionApprovedAll, DecisionAutoAllowed, DecisionPreviouslyConfirmed}
	for _, d := range allowing {
		if !d.Allows() {
			t.Errorf("%s should allow", d)
		}
	}
	denying := []UserDecision{DecisionBlocked, DecisionTaskAborted, DecisionInterrupted, DecisionInputError,
		DecisionNonInteractive, DecisionTimeout, DecisionAutoBlocked, UserDecision("garbage")}
	for _, d := range denying {
		if d.Allows() {
			t.Errorf("%s must not allow", d)
		}
	}
}

func TestContextAccessors(t *testing.T) {
	c := Context{
		"b":   true,
		"s":   "false",
		"n":   1,
		"f":   0.75,
		"str": "https://x",
	}
	if !c.Bool("b") || c.Bool("s") || !c.Bool("n") || c.Bool("missing") {
		t.Error("Bool truthiness wrong")
	}
	if !c.BoolOr("missing", true) {
		t.Error("BoolOr default not applied")
	}
	if c.Float("f", 0) != 0.75 || c.Float("missing", 0.3) != 0.3 {
		t.Error("Float wrong")
	}
	if c.String("str") != "https://x" || c.String("missing") != "" {
		t.Error("String wrong")
	}

	c.SetIfAbsent("b", false)
	if !c.Bool("b") {
		t.Error("SetIfAbsent overwrote caller key")
	}
	clone := c.Clone()
	clone["b"] = false
	if !c.Bool("b") {
		t.Error("Clone shares map")
	}
}

func TestTruncateRunes(t *testing.T) {
	s := strings.Repeat("я", 250)
	got := Truncate(s, MaxTargetLen)
	if n := len([]rune(got)); n != MaxTargetLen {
		t.Fatalf("expected %d runes, got %d", MaxTargetLen, n)
	}
	if Truncate("short", 10) != "short" {
		t.Error("short strings must be unchanged")
	}
}
