package guard

import (
	"context"
	"fmt"

	"github.com/ppiankov/actiongate/internal/classify"
	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/redact"
)

// Effector executes a planner tool call against the browser.
type Effector interface {
	Execute(ctx context.Context, tool string, args map[string]any, snapshot model.Context) (any, error)
}

// EffectorFunc adapts a function to Effector.
type EffectorFunc func(ctx context.Context, tool string, args map[string]any, snapshot model.Context) (any, error)

func (f EffectorFunc) Execute(ctx context.Context, tool string, args map[string]any, snapshot model.Context) (any, error) {
	return f(ctx, tool, args, snapshot)
}

// BlockedError is returned by a wrapped effector when the guard refuses a call.
type BlockedError struct {
	Tool   string
	Kind   model.ActionKind
	Target string // masked
	Risk   model.RiskAssessment
}

func (e *BlockedError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("action blocked (%s, risk %.1f %s): %s", e.Kind, e.Risk.Score, e.Risk.Level, e.Target)
	}
	return fmt.Sprintf("action blocked (%s, risk %.1f %s)", e.Kind, e.Risk.Score, e.Risk.Level)
}

// Wrap returns an effector that classifies each call, checks it and only
// then forwards it to next.
func (g *Guard) Wrap(next Effector) Effector {
	return EffectorFunc(func(ctx context.Context, tool string, args map[string]any, snapshot model.Context) (any, error) {
		kind := classify.DetectActionKind(tool, args, snapshot)
		target := classify.TargetFor(tool, args)

		allowed, ra, err := g.CheckAction(ctx, kind, target, snapshot)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, &BlockedError{
				Tool:   tool,
				Kind:   kind,
				Target: redact.Mask(target),
				Risk:   ra,
			}
		}
		return next.Execute(ctx, tool, args, snapshot)
	})
}
