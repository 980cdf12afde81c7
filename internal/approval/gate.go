// Package approval asks a human to confirm risky actions and remembers
// "allow all" answers by action hash.
package approval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/ppiankov/actiongate/internal/model"
)

// Requester obtains a decision for one prompt. Implementations must fail
// closed: any decision that does not allow the action is treated as a block.
type Requester interface {
	Request(ctx context.Context, p Prompt) (model.UserDecision, error)
}

// Gate owns the confirmation memo and hash cache and routes prompts to a
// Requester. Safe for concurrent use if the Requester is.
type Gate struct {
	requester Requester
	memo      *Memo
	hashes    *HashCache
	logger    *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithHashTTL sets the hash cache TTL.
func WithHashTTL(ttl time.Duration) GateOption {
	return func(g *Gate) { g.hashes = NewHashCache(ttl) }
}

// WithGateLogger sets the logger.
func WithGateLogger(l *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

// NewGate creates a gate. A nil requester blocks every prompt as non-interactive.
func NewGate(r Requester, opts ...GateOption) *Gate {
	if r == nil {
		r = denyAll{}
	}
	g := &Gate{requester: r, memo: NewMemo()}
	for _, o := range opts {
		o(g)
	}
	if g.hashes == nil {
		g.hashes = NewHashCache(DefaultHashTTL)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return g
}

// Hash returns the (cached) action hash.
func (g *Gate) Hash(kind model.ActionKind, target string, ctx model.Context) string {
	return g.hashes.Hash(kind, target, ctx)
}

// Memo returns the gate's approval memo.
func (g *Gate) Memo() *Memo {
	return g.memo
}

// Confirm asks for a decision on req. A memoized hash returns
// (true, previously_confirmed) without prompting. "approved_all" memoizes
// the hash. Requester errors and cancellation never allow the action.
func (g *Gate) Confirm(ctx context.Context, req Request) (bool, model.UserDecision) {
	hash := req.Hash
	if hash == "" {
		hash = g.Hash(req.Kind, req.Target, req.Context)
	}
	if g.memo.Approved(hash) {
		return true, model.DecisionPreviouslyConfirmed
	}

	decision, err := g.requester.Request(ctx, NewPrompt(req))
	if err != nil {
		decision = failClosed(decision, err)
		g.logger.Warn("confirmation failed", "action", req.Kind, "decision", decision, "error", err)
		return false, decision
	}
	if decision == "" {
		decision = model.DecisionInputError
	}
	if decision == model.DecisionApprovedAll {
		g.memo.Approve(hash)
	}
	return decision.Allows(), decision
}

// failClosed picks a non-allowing decision for a requester error.
func failClosed(d model.UserDecision, err error) model.UserDecision {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return model.DecisionTimeout
	case errors.Is(err, context.Canceled):
		return model.DecisionInterrupted
	case d != "" && !d.Allows():
		return d
	default:
		return model.DecisionInputError
	}
}

type denyAll struct{}

func (denyAll) Request(context.Context, Prompt) (model.UserDecision, error) {
	return model.DecisionNonInteractive, nil
}
