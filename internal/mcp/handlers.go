package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/classify"
	"github.com/ppiankov/actiongate/internal/guard"
	"github.com/ppiankov/actiongate/internal/model"
)

// --- Input/output types ---

// CheckInput is the input for actiongate_check.
type CheckInput struct {
	Kind    string         `json:"kind,omitempty" jsonschema:"action kind, e.g. click_button or type_password; omit to classify tool"`
	Target  string         `json:"target,omitempty" jsonschema:"element text, typed value or URL the action operates on"`
	Tool    string         `json:"tool,omitempty" jsonschema:"browser tool name (click/type/navigate/...)"`
	Args    map[string]any `json:"args,omitempty" jsonschema:"tool arguments"`
	Context map[string]any `json:"context,omitempty" jsonschema:"page snapshot: current_url, page_title, page_content, ..."`
}

// CheckOutput is the decision.
type CheckOutput struct {
	Allowed         bool     `json:"allowed"`
	Kind            string   `json:"kind"`
	Score           float64  `json:"score"`
	Level           string   `json:"level"`
	Rules           []string `json:"rules"`
	Recommendations []string `json:"recommendations"`
	Reason          string   `json:"reason,omitempty"`
}

// ClassifyInput is the input for actiongate_classify.
type ClassifyInput struct {
	Tool    string         `json:"tool" jsonschema:"browser tool name"`
	Args    map[string]any `json:"args,omitempty" jsonschema:"tool arguments"`
	Context map[string]any `json:"context,omitempty" jsonschema:"page snapshot"`
}

// ClassifyOutput is the detected kind and target.
type ClassifyOutput struct {
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// StatsInput is the input for actiongate_stats.
type StatsInput struct{}

// PendingInput is the input for actiongate_pending.
type PendingInput struct{}

// PendingItem is one waiting confirmation.
type PendingItem struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Target    string   `json:"target"`
	Score     float64  `json:"score"`
	Level     string   `json:"level"`
	Rules     []string `json:"rules"`
	URL       string   `json:"url,omitempty"`
	CreatedAt string   `json:"created_at"`
	ExpiresAt string   `json:"expires_at"`
}

// PendingOutput lists waiting confirmations.
type PendingOutput struct {
	Pending []PendingItem `json:"pending"`
}

// ResolveInput is the input for actiongate_resolve.
type ResolveInput struct {
	ID       string `json:"id" jsonschema:"pending confirmation id"`
	Decision string `json:"decision" jsonschema:"y (allow once), a (allow identical actions), n (block) or q (abort task)"`
}

// ResolveOutput echoes the recorded decision.
type ResolveOutput struct {
	ID       string `json:"id"`
	Decision string `json:"decision"`
}

// --- Handlers ---

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	snapshot := model.Context(input.Context)
	kind, target := model.ActionKind(input.Kind), input.Target
	if input.Tool != "" {
		if kind == "" {
			kind = classify.DetectActionKind(input.Tool, input.Args, snapshot)
		}
		if target == "" {
			target = classify.TargetFor(input.Tool, input.Args)
		}
	}
	if kind == "" {
		return nil, CheckOutput{}, errors.New("kind or tool is required")
	}

	allowed, ra, err := s.guard.CheckAction(ctx, kind, target, snapshot)
	if err != nil {
		return nil, CheckOutput{}, err
	}

	out := CheckOutput{
		Allowed:         allowed,
		Kind:            string(kind),
		Score:           ra.Score,
		Level:           string(ra.Level),
		Rules:           nonNil(ra.TriggeredRules),
		Recommendations: nonNil(ra.Recommendations),
	}
	if !allowed {
		out.Reason = fmt.Sprintf("blocked: %s risk %.1f", ra.Level, ra.Score)
		s.logger.Info("mcp check blocked", "action", kind, "score", ra.Score)
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleClassify(ctx context.Context, req *mcpsdk.CallToolRequest, input ClassifyInput) (*mcpsdk.CallToolResult, ClassifyOutput, error) {
	if input.Tool == "" {
		return nil, ClassifyOutput{}, errors.New("tool is required")
	}
	return nil, ClassifyOutput{
		Kind:   string(classify.DetectActionKind(input.Tool, input.Args, model.Context(input.Context))),
		Target: classify.TargetFor(input.Tool, input.Args),
	}, nil
}

func (s *Server) handleStats(ctx context.Context, req *mcpsdk.CallToolRequest, input StatsInput) (*mcpsdk.CallToolResult, guard.Stats, error) {
	return nil, s.guard.Stats(), nil
}

func (s *Server) handlePending(ctx context.Context, req *mcpsdk.CallToolRequest, input PendingInput) (*mcpsdk.CallToolResult, PendingOutput, error) {
	items := []PendingItem{}
	if s.queue != nil {
		for _, p := range s.queue.Pending() {
			items = append(items, pendingItem(p))
		}
	}
	return nil, PendingOutput{Pending: items}, nil
}

func (s *Server) handleResolve(ctx context.Context, req *mcpsdk.CallToolRequest, input ResolveInput) (*mcpsdk.CallToolResult, ResolveOutput, error) {
	if s.queue == nil {
		return nil, ResolveOutput{}, errors.New("no confirmation queue configured")
	}
	d, err := approval.ParseAnswer(input.Decision)
	if err != nil {
		return nil, ResolveOutput{}, err
	}
	if err := s.queue.Resolve(input.ID, d); err != nil {
		return nil, ResolveOutput{}, err
	}
	s.logger.Info("mcp confirmation resolved", "id", input.ID, "decision", d)
	return nil, ResolveOutput{ID: input.ID, Decision: string(d)}, nil
}

func pendingItem(p approval.Pending) PendingItem {
	rules := make([]string, len(p.Prompt.Rules))
	for i, r := range p.Prompt.Rules {
		rules[i] = r.Name
	}
	return PendingItem{
		ID:        p.ID,
		Kind:      string(p.Prompt.Kind),
		Target:    p.Prompt.Target,
		Score:     p.Prompt.Score,
		Level:     string(p.Prompt.Level),
		Rules:     rules,
		URL:       p.Prompt.URL,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		ExpiresAt: p.ExpiresAt.Format(time.RFC3339),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
