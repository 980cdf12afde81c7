package policy

import (
	"errors"
	"testing"

	"github.com/ppiankov/actiongate/internal/model"
)

func TestBuiltinPredicates(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"is_login_page", "is_payment_page", "is_settings_page", "is_suspicious_domain", "is_form_filling"} {
		p, err := reg.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if p.Eval(model.Context{}) {
			t.Errorf("%s should be false on empty context", name)
		}
		if !p.Eval(model.Context{name: true}) {
			t.Errorf("%s should be true when its key is set", name)
		}
	}
}

func TestFlagPredicate(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.Lookup("flag:contains_dangerous")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "flag:contains_dangerous" {
		t.Errorf("unexpected name %q", p.Name())
	}
	if !p.Eval(model.Context{model.KeyContainsDangerous: "yes"}) {
		t.Error("expected loose truthiness")
	}
	if _, err := reg.Lookup("flag:"); !errors.Is(err, ErrUnknownPredicate) {
		t.Errorf("expected ErrUnknownPredicate for empty flag, got %v", err)
	}
}

type afterHours struct{}

func (afterHours) Name() string                { return "after_hours" }
func (afterHours) Eval(ctx model.Context) bool { return ctx.Bool("after_hours") }

func TestRegisterCustomPredicate(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Lookup("after_hours"); !errors.Is(err, ErrUnknownPredicate) {
		t.Fatalf("expected unknown before registration, got %v", err)
	}
	if err := reg.Register(afterHours{}); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(WithRegistry(reg))
	err := e.AddRule(Rule{Name: "night_payment", Kind: model.KindPayment, Level: model.RiskCritical, Predicate: "after_hours", Weight: 1})
	if err != nil {
		t.Fatal(err)
	}
	triggered, _ := e.Evaluate(model.KindPayment, "nothing", model.Context{"after_hours": true})
	if len(triggered) != 1 || triggered[0].Name != "night_payment" {
		t.Errorf("expected custom predicate rule, got %v", ruleNames(triggered))
	}
}

func TestRegisterRejectsReservedNames(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(NewContextFlag("flag:x", "x")); err == nil {
		t.Error("flag: prefix is reserved")
	}
	if err := reg.Register(NewContextFlag("", "x")); err == nil {
		t.Error("empty name must be rejected")
	}
}
