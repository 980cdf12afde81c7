package model

import (
	"fmt"
	"strings"
	"time"
)

// EnforcementLevel is the operating mode controlling how aggressively
// borderline and high-risk actions are gated.
type EnforcementLevel string

const (
	EnforceLow    EnforcementLevel = "low"
	EnforceMedium EnforcementLevel = "medium"
	EnforceHigh   EnforcementLevel = "high"
)

// ParseEnforcementLevel accepts low/medium/high in any case.
func ParseEnforcementLevel(s string) (EnforcementLevel, error) {
	switch EnforcementLevel(strings.ToLower(strings.TrimSpace(s))) {
	case EnforceLow:
		return EnforceLow, nil
	case EnforceMedium:
		return EnforceMedium, nil
	case EnforceHigh:
		return EnforceHigh, nil
	default:
		return "", fmt.Errorf("invalid enforcement level %q (want low, medium or high)", s)
	}
}

// UserDecision tags how an action's outcome was reached.
type UserDecision string

const (
	DecisionApproved            UserDecision = "approved"
	DecisionApprovedAll         UserDecision = "approved_all"
	DecisionBlocked             UserDecision = "blocked"
	DecisionTaskAborted         UserDecision = "task_aborted"
	DecisionInterrupted         UserDecision = "interrupted"
	DecisionInputError          UserDecision = "input_error"
	DecisionNonInteractive      UserDecision = "non_interactive"
	DecisionTimeout             UserDecision = "timeout"
	DecisionAutoAllowed         UserDecision = "auto_allowed"
	DecisionAutoBlocked         UserDecision = "auto_blocked"
	DecisionPreviouslyConfirmed UserDecision = "previously_confirmed"
)

// Allows reports whether the decision lets the action through.
// Anything not explicitly allowing fails closed.
func (d UserDecision) Allows() bool {
	switch d {
	case DecisionApproved, DecisionApprovedAll, DecisionAutoAllowed, DecisionPreviouslyConfirmed:
		return true
	default:
		return false
	}
}

// MaxTargetLen bounds the target stored in history and audit events, in runes.
const MaxTargetLen = 200

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// TimestampFormat is the layout used for event timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Now returns the current UTC time formatted with TimestampFormat.
func Now() string {
	return time.Now().UTC().Format(TimestampFormat)
}

// SecurityEvent is the audit unit: one decided action.
type SecurityEvent struct {
	ID         string         `json:"id"`
	Timestamp  string         `json:"timestamp"`
	Kind       ActionKind     `json:"action"`
	Target     string         `json:"target"`
	Risk       RiskAssessment `json:"risk_assessment"`
	Context    Context        `json:"context"`
	Allowed    bool           `json:"confirmed"`
	Decision   UserDecision   `json:"user_decision"`
	Confidence float64        `json:"confidence"`
}

// HistoryEntry is one recorded action in the orchestrator's short history.
type HistoryEntry struct {
	Kind      ActionKind `json:"action_type"`
	Target    string     `json:"target"`
	URL       string     `json:"url"`
	Timestamp string     `json:"timestamp"`
}
