package risk

import "github.com/ppiankov/actiongate/internal/model"

// Modifier multiplies the base risk when its context key is truthy.
type Modifier struct {
	Key    string  `yaml:"key" json:"key"`
	Factor float64 `yaml:"factor" json:"factor"`
}

// Weights are the two scoring tables. Modifiers apply in slice order, so
// triggered rule names come out in that order too.
type Weights struct {
	Kinds     map[model.ActionKind]float64 `yaml:"kinds" json:"kinds"`
	Modifiers []Modifier                   `yaml:"modifiers" json:"modifiers"`
}

// Clone returns a deep copy.
func (w Weights) Clone() Weights {
	out := Weights{
		Kinds:     make(map[model.ActionKind]float64, len(w.Kinds)),
		Modifiers: make([]Modifier, len(w.Modifiers)),
	}
	for k, v := range w.Kinds {
		out.Kinds[k] = v
	}
	copy(out.Modifiers, w.Modifiers)
	return out
}

// Merge returns w with the entries of o laid over it. Modifiers with a known
// key keep their position; new keys are appended.
func (w Weights) Merge(o Weights) Weights {
	out := w.Clone()
	for k, v := range o.Kinds {
		out.Kinds[k] = v
	}
	for _, m := range o.Modifiers {
		found := false
		for i := range out.Modifiers {
			if out.Modifiers[i].Key == m.Key {
				out.Modifiers[i].Factor = m.Factor
				found = true
				break
			}
		}
		if !found {
			out.Modifiers = append(out.Modifiers, m)
		}
	}
	return out
}

// navigationModifiers are the only context keys that move navigation risk.
var navigationModifiers = map[string]bool{
	model.KeyIsSuspiciousDomain: true,
	model.KeyIsHTTP:             true,
	model.KeyIsHTTPS:            true,
}

// Confidence modifiers.
const (
	highConfidence       = 0.7
	lowConfidence        = 0.3
	highConfidenceFactor = 1.1
	lowConfidenceFactor  = 0.9
)

// DefaultWeights returns the built-in tables.
func DefaultWeights() Weights {
	return Weights{
		Kinds: map[model.ActionKind]float64{
			model.KindTypeGeneric:        0.5,
			model.KindTypePassword:       80,
			model.KindTypeEmail:          2,
			model.KindTypePhone:          1.5,
			model.KindTypeCardNumber:     89,
			model.KindTypePersonalData:   2,
			model.KindClick:              1,
			model.KindClickButton:        1,
			model.KindClickLink:          0.8,
			model.KindNavigate:           0.2,
			model.KindNavigateExternal:   0.3,
			model.KindNavigateSuspicious: 1,
			model.KindFormSubmit:         1.5,
			model.KindPayment:            60,
			model.KindDelete:             25,
			model.KindSocialAction:       1.5,
			model.KindLegalAction:        1.5,
			model.KindScroll:             0.1,
			model.KindAnalyze:            0,
		},
		Modifiers: []Modifier{
			// page types
			{model.KeyIsPaymentPage, 1.3},
			{model.KeyIsLoginPage, 1.1},
			{model.KeyIsRegistrationPage, 1.2},
			{model.KeyIsSettingsPage, 1.1},
			{model.KeyIsAdminPage, 1.5},
			{model.KeyIsSocialPage, 1.1},
			{model.KeyIsSearchPage, 0.9},
			{model.KeyIsEmailPage, 1.1},

			// content
			{model.KeyContainsFinancial, 1.5},
			{model.KeyContainsPasswords, 1.8},
			{model.KeyContainsPersonalData, 1.3},
			{model.KeyContainsContactInfo, 1.1},

			// domain and transport
			{model.KeyIsExternalDomain, 1.0},
			{model.KeyIsSuspiciousDomain, 1.2},
			{model.KeyIsTrustedDomain, 0.9},
			{model.KeyIsHTTPS, 0.9},
			{model.KeyIsHTTP, 1.1},

			// flows
			{model.KeyIsLoginFlow, 1.3},
			{model.KeyIsPaymentFlow, 1.8},
			{model.KeyIsRegistrationFlow, 1.3},
			{model.KeyIsFormFilling, 1.2},

			// combined signals
			{model.KeyPasswordInLogin, 1.4},
			{model.KeyPaymentInCheckout, 1.6},
			{model.KeyDeleteInSettings, 1.7},
			{model.KeySocialInContext, 1.1},
		},
	}
}
