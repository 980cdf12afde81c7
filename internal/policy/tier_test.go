package policy

import (
	"testing"

	"github.com/ppiankov/actiongate/internal/model"
)

func TestEnforce(t *testing.T) {
	low := model.NewRiskAssessment(10, nil, nil, 0.5)
	lowOver := model.NewRiskAssessment(25, nil, nil, 0.5)
	medium := model.NewRiskAssessment(45, nil, nil, 0.5)
	high := model.NewRiskAssessment(70, nil, nil, 0.5)
	critical := model.NewRiskAssessment(96, nil, nil, 0.5)
	mediumLevelLowScore := model.NewRiskAssessment(15, nil, nil, 0.5).WithLevel(model.RiskMedium)

	tests := []struct {
		name  string
		level model.EnforcementLevel
		kind  model.ActionKind
		risk  model.RiskAssessment
		want  Outcome
		id    string
	}{
		{"low allows low", model.EnforceLow, model.KindClick, low, Allow, "enforce.low.allow"},
		{"low escalates above threshold", model.EnforceLow, model.KindClick, lowOver, Confirm, "enforce.escalate"},
		{"low escalates critical", model.EnforceLow, model.KindPayment, critical, Confirm, "enforce.escalate"},
		{"medium allows low", model.EnforceMedium, model.KindClick, low, Allow, "enforce.medium.allow"},
		{"medium escalates high", model.EnforceMedium, model.KindTypePassword, high, Confirm, "enforce.escalate"},
		{"medium suspicious navigation", model.EnforceMedium, model.KindNavigateSuspicious, mediumLevelLowScore, Confirm, "enforce.medium.suspicious_navigation"},
		{"medium plain navigation", model.EnforceMedium, model.KindNavigate, mediumLevelLowScore, Allow, "enforce.medium.allow"},
		{"high blocks critical without prompt", model.EnforceHigh, model.KindPayment, critical, Block, "enforce.high.block"},
		{"high blocks high", model.EnforceHigh, model.KindDelete, high, Block, "enforce.high.block"},
		{"high confirms medium", model.EnforceHigh, model.KindClick, medium, Confirm, "enforce.escalate"},
		{"high confirms medium level at low score", model.EnforceHigh, model.KindClick, mediumLevelLowScore, Confirm, "enforce.high.confirm"},
		{"high allows low", model.EnforceHigh, model.KindClick, low, Allow, "enforce.high.allow"},
		{"high escalates low above threshold", model.EnforceHigh, model.KindClick, lowOver, Confirm, "enforce.escalate"},
		{"unknown level allows", model.EnforcementLevel("custom"), model.KindClick, low, Allow, "enforce.default.allow"},
	}
	for _, tt := range tests {
		got, id := Enforce(tt.level, tt.kind, tt.risk)
		if got != tt.want || id != tt.id {
			t.Errorf("%s: expected %s/%s, got %s/%s", tt.name, tt.want, tt.id, got, id)
		}
	}
}

func TestEnforceNeverPromptsHighTierForHighRisk(t *testing.T) {
	for score := 60.0; score <= 100; score += 5 {
		risk := model.NewRiskAssessment(score, nil, nil, 0.5)
		if got, _ := Enforce(model.EnforceHigh, model.KindPayment, risk); got != Block {
			t.Errorf("score %v: expected block, got %s", score, got)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	if Allow.String() != "allow" || Confirm.String() != "confirm" || Block.String() != "block" || Outcome(9).String() != "unknown" {
		t.Error("unexpected outcome labels")
	}
}
