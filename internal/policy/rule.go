package policy

import (
	"errors"
	"fmt"

	"github.com/ppiankov/actiongate/internal/model"
)

// ErrInvalidRule is returned for rules that cannot be added to an engine.
var ErrInvalidRule = errors.New("invalid rule")

// Rule is one weighted security rule. A rule bound to a Kind only applies to
// that kind. It triggers when its Pattern matches the target (regex search or
// case-insensitive substring), or, when it has no Pattern, whenever its
// Predicate holds. A Predicate on a pattern rule acts as an extra guard.
type Rule struct {
	Name      string           `yaml:"name" json:"name"`
	Kind      model.ActionKind `yaml:"kind,omitempty" json:"kind,omitempty"`
	Level     model.RiskLevel  `yaml:"level" json:"level"`
	Message   string           `yaml:"message" json:"message"`
	Pattern   string           `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Regex     bool             `yaml:"regex,omitempty" json:"regex,omitempty"`
	Predicate string           `yaml:"predicate,omitempty" json:"predicate,omitempty"`
	Weight    float64          `yaml:"weight" json:"weight"`
}

// levelMultiplier scales a triggered rule's weight by its severity.
var levelMultiplier = map[model.RiskLevel]float64{
	model.RiskLow:      0.3,
	model.RiskMedium:   0.6,
	model.RiskHigh:     0.9,
	model.RiskCritical: 1.0,
}

// Multiplier returns the severity multiplier for the rule's level.
func (r Rule) Multiplier() float64 {
	if m, ok := levelMultiplier[r.Level]; ok {
		return m
	}
	return 0.5
}

// Validate checks the rule against reg. Predicate names must resolve.
func (r Rule) Validate(reg *Registry) error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if r.Weight <= 0 {
		return fmt.Errorf("%w: %s: weight must be positive, got %v", ErrInvalidRule, r.Name, r.Weight)
	}
	if _, ok := levelMultiplier[r.Level]; !ok {
		return fmt.Errorf("%w: %s: unknown level %q", ErrInvalidRule, r.Name, r.Level)
	}
	if r.Kind != "" && !r.Kind.Valid() {
		return fmt.Errorf("%w: %s: %w", ErrInvalidRule, r.Name, model.ErrUnknownActionKind)
	}
	if r.Pattern == "" && r.Predicate == "" {
		return fmt.Errorf("%w: %s: needs a pattern or a predicate", ErrInvalidRule, r.Name)
	}
	if r.Predicate != "" {
		if _, err := reg.Lookup(r.Predicate); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidRule, r.Name, err)
		}
	}
	return nil
}

// DefaultRules returns the built-in rule set in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "payment_click",
			Kind:    model.KindPayment,
			Level:   model.RiskHigh,
			Message: "Payment or purchase button",
			Pattern: `(купить|оплатить|покупка|заказ|checkout|buy now|add to cart|оформить|заказать|корзин|basket)`,
			Regex:   true,
			Weight:  2.0,
		},
		{
			Name:    "card_data_input",
			Kind:    model.KindTypeCardNumber,
			Level:   model.RiskCritical,
			Message: "Card data entry",
			Pattern: `(карт|card|номер.*карт|cvv|cvc|срок.*действия|expir|valid|пластик|\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4})`,
			Regex:   true,
			Weight:  3.0,
		},
		{
			Name:    "password_input",
			Kind:    model.KindTypePassword,
			Level:   model.RiskCritical,
			Message: "Password or key entry",
			Pattern: `(пароль|password|pwd|pass|ключ|key|секрет|secret|pin|код.*доступ)`,
			Regex:   true,
			Weight:  3.0,
		},
		{
			Name:    "email_input",
			Kind:    model.KindTypeEmail,
			Level:   model.RiskMedium,
			Message: "Email entry",
			Pattern: `(@|email|емейл|почта|e-mail|mail\.|gmail\.|yandex\.)`,
			Regex:   true,
			Weight:  1.5,
		},
		{
			Name:      "context_login_flow_password",
			Kind:      model.KindTypePassword,
			Level:     model.RiskHigh,
			Message:   "Password entry on a login page",
			Predicate: IsLoginPage.Name(),
			Weight:    2.5,
		},
		{
			Name:      "context_payment_flow",
			Kind:      model.KindPayment,
			Level:     model.RiskCritical,
			Message:   "Payment on a checkout page",
			Predicate: IsPaymentPage.Name(),
			Weight:    3.0,
		},
	}
}
