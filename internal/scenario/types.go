// Package scenario runs YAML regression cases through a fresh Guard each and
// compares the decisions with the expected outcome.
package scenario

import "github.com/ppiankov/actiongate/internal/model"

// Expected outcomes.
const (
	ExpectAllow = "allow"
	ExpectBlock = "block"
)

// ScenarioAction defines the action under test: either Kind and Target, or a
// planner Tool call that is classified first.
type ScenarioAction struct {
	Kind   model.ActionKind `yaml:"kind,omitempty"`
	Target string           `yaml:"target,omitempty"`
	Tool   string           `yaml:"tool,omitempty"`
	Args   map[string]any   `yaml:"args,omitempty"`
}

// Case is one test case within a scenario.
type Case struct {
	Action  ScenarioAction         `yaml:"action"`
	Context map[string]any         `yaml:"context,omitempty"`
	Level   model.EnforcementLevel `yaml:"level,omitempty"`
	// Answer is given to a confirmation prompt (y, n, a or q). Empty answers
	// as a non-interactive session would.
	Answer string `yaml:"answer,omitempty"`

	Expect   string             `yaml:"expect"`
	Decision model.UserDecision `yaml:"decision,omitempty"`
	Risk     model.RiskLevel    `yaml:"risk,omitempty"`
	Prompt   *bool              `yaml:"prompt,omitempty"`
}

// Scenario is a named collection of cases. Level applies to cases without
// their own.
type Scenario struct {
	Name  string                 `yaml:"name"`
	Level model.EnforcementLevel `yaml:"level,omitempty"`
	Cases []Case                 `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index    int                `json:"index"`
	Passed   bool               `json:"passed"`
	Kind     model.ActionKind   `json:"kind"`
	Target   string             `json:"target"`
	Expected string             `json:"expected"`
	Actual   string             `json:"actual"`
	Decision model.UserDecision `json:"decision"`
	Risk     model.RiskLevel    `json:"risk_level"`
	Score    float64            `json:"risk_score"`
	Prompted bool               `json:"prompted"`
	Rules    []string           `json:"rules,omitempty"`
	Reason   string             `json:"reason"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
