package policy

import "github.com/ppiankov/actiongate/internal/model"

// EscalationThreshold is the fused score above which a human is asked,
// whatever the enforcement level.
const EscalationThreshold = 20.0

// Outcome is the enforcement decision for one assessed action.
type Outcome int

const (
	Allow Outcome = iota
	Confirm
	Block
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Confirm:
		return "confirm"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// Enforce maps an enforcement level and a fused assessment to an outcome and
// a policy ID. Order matters:
//  1. HIGH blocks high and critical risk outright, before any prompt is considered
//  2. score above EscalationThreshold asks for confirmation
//  3. per-level handling of the remaining low-score actions
func Enforce(level model.EnforcementLevel, kind model.ActionKind, risk model.RiskAssessment) (Outcome, string) {
	if level == model.EnforceHigh && risk.Level.AtLeast(model.RiskHigh) {
		return Block, "enforce.high.block"
	}

	if risk.Score > EscalationThreshold {
		return Confirm, "enforce.escalate"
	}

	switch level {
	case model.EnforceLow:
		return Allow, "enforce.low.allow"
	case model.EnforceMedium:
		if kind == model.KindNavigateSuspicious && risk.Level.AtLeast(model.RiskMedium) {
			return Confirm, "enforce.medium.suspicious_navigation"
		}
		return Allow, "enforce.medium.allow"
	case model.EnforceHigh:
		if risk.Level == model.RiskMedium {
			return Confirm, "enforce.high.confirm"
		}
		return Allow, "enforce.high.allow"
	default:
		return Allow, "enforce.default.allow"
	}
}
