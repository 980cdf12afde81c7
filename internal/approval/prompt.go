package approval

import (
	"fmt"
	"strings"

	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/policy"
	"github.com/ppiankov/actiongate/internal/redact"
)

const (
	// maxRuleLines bounds rule messages shown in a prompt.
	maxRuleLines = 5
	maxURLLen    = 100
)

// RuleLine is one triggered rule as shown to the human.
type RuleLine struct {
	Name    string          `json:"name"`
	Message string          `json:"message"`
	Level   model.RiskLevel `json:"level"`
}

// Details is shown on request and carried by queued prompts.
type Details struct {
	Action         model.ActionKind `json:"action_type"`
	Target         string           `json:"target"`
	RiskScore      float64          `json:"risk_score"`
	RiskLevel      model.RiskLevel  `json:"risk_level"`
	TriggeredRules []string         `json:"triggered_rules"`
	PageType       string           `json:"page_type,omitempty"`
	Domain         string           `json:"domain,omitempty"`
	PatternCount   int              `json:"detected_patterns_count,omitempty"`
}

// Prompt is everything a Requester needs to ask a human. Target is masked.
type Prompt struct {
	Kind            model.ActionKind `json:"action"`
	Target          string           `json:"target"`
	Score           float64          `json:"risk_score"`
	Level           model.RiskLevel  `json:"risk_level"`
	Rules           []RuleLine       `json:"rules"`
	Recommendations []string         `json:"recommendations"`
	URL             string           `json:"url,omitempty"`
	Details         Details          `json:"details"`
}

// Request is what the orchestrator hands to the gate.
type Request struct {
	Kind    model.ActionKind
	Target  string
	Risk    model.RiskAssessment
	Context model.Context
	Rules   []policy.Rule
	// Hash overrides the action hash computed from Kind, Target and Context.
	Hash    string
}

// summaryPages are checked in order; the first match names the page type.
var summaryPages = []string{
	model.KeyIsLoginPage,
	model.KeyIsPaymentPage,
	model.KeyIsRegistrationPage,
	model.KeyIsSettingsPage,
	model.KeyIsSocialPage,
}

// NewPrompt builds a masked prompt from a request.
func NewPrompt(req Request) Prompt {
	target := redact.Mask(model.Truncate(req.Target, model.MaxTargetLen))

	lines := make([]RuleLine, 0, len(req.Rules))
	names := make([]string, 0, len(req.Rules))
	for _, r := range req.Rules {
		lines = append(lines, RuleLine{Name: r.Name, Message: r.Message, Level: r.Level})
		names = append(names, r.Name)
	}
	if len(names) == 0 {
		names = append(names, req.Risk.TriggeredRules...)
	}

	d := Details{
		Action:         req.Kind,
		Target:         target,
		RiskScore:      req.Risk.Score,
		RiskLevel:      req.Risk.Level,
		TriggeredRules: names,
		Domain:         req.Context.String(model.KeyDomain),
	}
	for _, key := range summaryPages {
		if req.Context.Bool(key) {
			d.PageType = strings.TrimSuffix(strings.TrimPrefix(key, "is_"), "_page")
			break
		}
	}
	if detected, ok := req.Context[model.KeyDetectedPatterns].([]string); ok {
		d.PatternCount = len(detected)
	}

	return Prompt{
		Kind:            req.Kind,
		Target:          target,
		Score:           req.Risk.Score,
		Level:           req.Risk.Level,
		Rules:           lines,
		Recommendations: append([]string(nil), req.Risk.Recommendations...),
		URL:             model.Truncate(req.Context.String(model.KeyCurrentURL), maxURLLen),
		Details:         d,
	}
}

// FormatPrompt renders the confirmation message.
func FormatPrompt(p Prompt) string {
	var b strings.Builder
	b.WriteString("SECURITY ALERT: confirmation required\n")
	b.WriteString(strings.Repeat("=", 70) + "\n")
	fmt.Fprintf(&b, "\nRisk: %s (%.1f/100)\n", strings.ToUpper(string(p.Level)), p.Score)

	if len(p.Rules) > 0 {
		b.WriteString("\nTriggered rules:\n")
		for _, r := range p.Rules[:min(len(p.Rules), maxRuleLines)] {
			fmt.Fprintf(&b, "  ! %s [%s]\n", r.Message, strings.ToUpper(string(r.Level)))
		}
		if extra := len(p.Rules) - maxRuleLines; extra > 0 {
			fmt.Fprintf(&b, "  ... and %d more\n", extra)
		}
	}

	fmt.Fprintf(&b, "\nAction: %s\n", p.Kind)
	fmt.Fprintf(&b, "Target: %s\n", p.Target)
	if p.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", p.URL)
	}

	if len(p.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, rec := range p.Recommendations {
			fmt.Fprintf(&b, "  - %s\n", rec)
		}
	}
	return b.String()
}

// FormatDetails renders the details block shown for the "d" choice.
func FormatDetails(d Details) string {
	var b strings.Builder
	b.WriteString("\nDetails:\n")
	fmt.Fprintf(&b, "  action_type: %s\n", d.Action)
	fmt.Fprintf(&b, "  target: %s\n", d.Target)
	fmt.Fprintf(&b, "  risk_score: %.1f\n", d.RiskScore)
	fmt.Fprintf(&b, "  risk_level: %s\n", d.RiskLevel)
	fmt.Fprintf(&b, "  triggered_rules: %s\n", strings.Join(d.TriggeredRules, ", "))
	if d.PageType != "" {
		fmt.Fprintf(&b, "  page_type: %s\n", d.PageType)
	}
	if d.Domain != "" {
		fmt.Fprintf(&b, "  domain: %s\n", d.Domain)
	}
	if d.PatternCount > 0 {
		fmt.Fprintf(&b, "  detected_patterns_count: %d\n", d.PatternCount)
	}
	return b.String()
}
