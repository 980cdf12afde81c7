// Package risk scores actions from static per-kind weights and
// multiplicative context modifiers.
package risk

import "github.com/ppiankov/actiongate/internal/model"

const (
	// scale maps the weighted base risk onto 0-100.
	scale = 20.0
	// NavigationCap bounds every navigation score.
	NavigationCap = 25.0
	// defaultBase is used for kinds missing from the weight table.
	defaultBase = 1.0
	// httpRiskFloor is the base risk above which plain HTTP is called out.
	httpRiskFloor = 10.0
)

// Recommendation texts, in emission order.
const (
	RecConfirm      = "User confirmation required"
	RecPasswords    = "Passwords must never be stored in logs"
	RecFinancial    = "Financial operations need extra attention"
	RecSuspicious   = "Suspicious domain: cancelling is recommended"
	RecInsecureHTTP = "Action runs over plain HTTP (insecure)"
)

// contextRulePrefix names triggered modifiers, e.g. "context_is_login_page".
const contextRulePrefix = "context_"

// Assessor is the weight-table scoring strategy. It is immutable after
// construction and safe for concurrent use.
type Assessor struct {
	weights Weights
}

// Option configures an Assessor.
type Option func(*Assessor)

// WithWeights lays w over the default tables.
func WithWeights(w Weights) Option {
	return func(a *Assessor) { a.weights = a.weights.Merge(w) }
}

// New creates an Assessor with DefaultWeights.
func New(opts ...Option) *Assessor {
	a := &Assessor{weights: DefaultWeights()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Assess scores one action:
// min(base × Π modifiers × confidence modifier × 20, 100).
// Navigation kinds only honor the domain and transport modifiers and are
// capped at NavigationCap.
func (a *Assessor) Assess(kind model.ActionKind, target string, ctx model.Context) model.RiskAssessment {
	base, ok := a.weights.Kinds[kind]
	if !ok {
		base = defaultBase
	}
	nav := kind.IsNavigation()

	modifier := 1.0
	var triggered []string
	for _, m := range a.weights.Modifiers {
		if !ctx.Bool(m.Key) {
			continue
		}
		if nav && !navigationModifiers[m.Key] {
			continue
		}
		modifier *= m.Factor
		triggered = append(triggered, contextRulePrefix+m.Key)
	}

	confidence := ctx.Float(model.KeyConfidence, 0.5)
	confMod := 1.0
	switch {
	case confidence > highConfidence:
		confMod = highConfidenceFactor
	case confidence < lowConfidence:
		confMod = lowConfidenceFactor
	}

	score := min(base*modifier*confMod*scale, 100)
	if nav {
		score = min(score, NavigationCap)
	}

	level := model.LevelForScore(score)
	var recs []string
	if level.AtLeast(model.RiskHigh) {
		recs = append(recs, RecConfirm)
	}
	if ctx.Bool(model.KeyContainsPasswords) {
		recs = append(recs, RecPasswords)
	}
	if ctx.Bool(model.KeyContainsFinancial) {
		recs = append(recs, RecFinancial)
	}
	if ctx.Bool(model.KeyIsSuspiciousDomain) {
		recs = append(recs, RecSuspicious)
	}
	if !ctx.BoolOr(model.KeyIsHTTPS, true) && base > httpRiskFloor {
		recs = append(recs, RecInsecureHTTP)
	}

	return model.NewRiskAssessment(score, triggered, recs, confidence)
}

// Weights returns a copy of the active tables.
func (a *Assessor) Weights() Weights {
	return a.weights.Clone()
}
