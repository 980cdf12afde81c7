package guard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/actiongate/internal/classify"
	"github.com/ppiankov/actiongate/internal/model"
)

func TestWrapForwardsAllowedCalls(t *testing.T) {
	g, _ := newGuard(model.EnforceMedium)
	calls := 0
	eff := g.Wrap(EffectorFunc(func(_ context.Context, tool string, _ map[string]any, _ model.Context) (any, error) {
		calls++
		return "done:" + tool, nil
	}))

	out, err := eff.Execute(context.Background(), classify.ToolScrollDown, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "done:scroll_down" || calls != 1 {
		t.Errorf("expected forwarded call, got %v (%d calls)", out, calls)
	}
}

func TestWrapBlocksRefusedCalls(t *testing.T) {
	g, _ := newGuard(model.EnforceHigh)
	calls := 0
	eff := g.Wrap(EffectorFunc(func(context.Context, string, map[string]any, model.Context) (any, error) {
		calls++
		return nil, nil
	}))

	_, err := eff.Execute(context.Background(), classify.ToolClickElement,
		map[string]any{classify.ArgDescription: "Оформить заказ"},
		model.Context{model.KeyIsPaymentPage: true})

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if blocked.Kind != model.KindPayment || blocked.Risk.Level != model.RiskCritical {
		t.Errorf("unexpected blocked error: %+v", blocked)
	}
	if !strings.Contains(err.Error(), "payment") {
		t.Errorf("error should name the action: %v", err)
	}
	if calls != 0 {
		t.Error("blocked call must not reach the effector")
	}
}

func TestBlockedErrorMasksTarget(t *testing.T) {
	g, _ := newGuard(model.EnforceMedium, model.DecisionBlocked)
	eff := g.Wrap(EffectorFunc(func(context.Context, string, map[string]any, model.Context) (any, error) {
		return nil, nil
	}))

	_, err := eff.Execute(context.Background(), classify.ToolTypeText,
		map[string]any{classify.ArgText: "4111 1111 1111 1234"}, nil)
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if strings.Contains(err.Error(), "4111 1111 1111 1234") {
		t.Errorf("card number leaked: %v", err)
	}
}
