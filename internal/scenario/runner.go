package scenario

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/actiongate/internal/analyze"
	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/classify"
	"github.com/ppiankov/actiongate/internal/guard"
	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/policy"
	"github.com/ppiankov/actiongate/internal/redact"
	"github.com/ppiankov/actiongate/internal/risk"
)

// Env is the configuration every case runs against. Nil Rules and Domains
// use the built-in sets; an empty Level means medium.
type Env struct {
	Rules   []policy.Rule
	Domains analyze.Domains
	Weights risk.Weights
	Level   model.EnforcementLevel
}

// Run evaluates all cases in a scenario. Each case gets a fresh Guard, so
// history and remembered approvals never leak between cases.
func Run(s *Scenario, env Env) *RunResult {
	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		cr := runCase(c, s.Level, env)
		cr.Index = i + 1
		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	return result
}

func runCase(c Case, scenarioLevel model.EnforcementLevel, env Env) CaseResult {
	kind, target := c.Action.Kind, c.Action.Target
	snapshot := model.Context(c.Context)
	if c.Action.Tool != "" {
		if kind == "" {
			kind = classify.DetectActionKind(c.Action.Tool, c.Action.Args, snapshot)
		}
		if target == "" {
			target = classify.TargetFor(c.Action.Tool, c.Action.Args)
		}
	}
	cr := CaseResult{
		Kind:     kind,
		Target:   redact.Mask(target),
		Expected: strings.ToLower(c.Expect),
	}

	g, script, err := newGuard(c, scenarioLevel, env)
	if err != nil {
		cr.Actual = "error"
		cr.Reason = err.Error()
		return cr
	}

	allowed, ra, err := g.CheckAction(context.Background(), kind, target, snapshot)
	if err != nil {
		cr.Actual = "error"
		cr.Reason = err.Error()
		return cr
	}

	cr.Actual = ExpectBlock
	if allowed {
		cr.Actual = ExpectAllow
	}
	if events := g.Store().Events(); len(events) > 0 {
		cr.Decision = events[len(events)-1].Decision
	}
	cr.Risk = ra.Level
	cr.Score = ra.Score
	cr.Prompted = len(script.Prompts()) > 0
	cr.Rules = ra.TriggeredRules
	cr.Reason = strings.Join(ra.TriggeredRules, ", ")

	var mismatch []string
	if cr.Actual != cr.Expected {
		mismatch = append(mismatch, fmt.Sprintf("expected %s, got %s", cr.Expected, cr.Actual))
	}
	if c.Decision != "" && c.Decision != cr.Decision {
		mismatch = append(mismatch, fmt.Sprintf("expected decision %s, got %s", c.Decision, cr.Decision))
	}
	if c.Risk != "" && c.Risk != cr.Risk {
		mismatch = append(mismatch, fmt.Sprintf("expected risk %s, got %s", c.Risk, cr.Risk))
	}
	if c.Prompt != nil && *c.Prompt != cr.Prompted {
		mismatch = append(mismatch, fmt.Sprintf("expected prompt=%v, got %v", *c.Prompt, cr.Prompted))
	}
	cr.Passed = len(mismatch) == 0
	if !cr.Passed {
		cr.Reason = strings.Join(mismatch, "; ")
	}
	return cr
}

func newGuard(c Case, scenarioLevel model.EnforcementLevel, env Env) (*guard.Guard, *approval.Scripted, error) {
	level := model.EnforceMedium
	for _, l := range []model.EnforcementLevel{c.Level, scenarioLevel, env.Level} {
		if l != "" {
			parsed, err := model.ParseEnforcementLevel(string(l))
			if err != nil {
				return nil, nil, err
			}
			level = parsed
			break
		}
	}

	answer := model.DecisionNonInteractive
	if c.Answer != "" {
		d, err := approval.ParseAnswer(c.Answer)
		if err != nil {
			return nil, nil, fmt.Errorf("answer %q: %w", c.Answer, err)
		}
		answer = d
	}
	script := approval.ScriptedRequester(answer)

	engine := policy.NewEngine()
	if env.Rules != nil {
		if err := engine.Replace(env.Rules); err != nil {
			return nil, nil, err
		}
	}

	g := guard.New(
		guard.WithLevel(level),
		guard.WithEngine(engine),
		guard.WithAnalyzer(analyze.New(nil, env.Domains)),
		guard.WithAssessor(risk.New(risk.WithWeights(env.Weights))),
		guard.WithRequester(script),
	)
	return g, script, nil
}

// Load reads a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadAndRun loads a scenario YAML file and runs it against env.
func LoadAndRun(path string, env Env) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	result := Run(s, env)
	result.File = path
	return result, nil
}
