package v1

import (
	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/model"
)

// CheckRequest asks for a decision on one action. Kind may be omitted when
// Tool is set; the server then classifies Tool and Args. Target defaults to
// the tool's target argument.
type CheckRequest struct {
	Kind    model.ActionKind `json:"kind,omitempty"`
	Tool    string           `json:"tool,omitempty"`
	Args    map[string]any   `json:"args,omitempty"`
	Target  string           `json:"target,omitempty"`
	Context map[string]any   `json:"context,omitempty"`
}

// CheckResponse is the decision.
type CheckResponse struct {
	Allowed bool                 `json:"allowed"`
	Kind    model.ActionKind     `json:"kind"`
	Risk    model.RiskAssessment `json:"risk_assessment"`
	Reason  string               `json:"reason,omitempty"`
}

// ClassifyRequest names a tool call.
type ClassifyRequest struct {
	Tool    string         `json:"tool"`
	Args    map[string]any `json:"args,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ClassifyResponse is the detected kind and the target the guard would check.
type ClassifyResponse struct {
	Kind   model.ActionKind `json:"kind"`
	Target string           `json:"target"`
}

// SaveLogsRequest names the report file. Empty uses the server default.
type SaveLogsRequest struct {
	Path string `json:"path,omitempty"`
}

// SaveLogsResponse echoes the written path.
type SaveLogsResponse struct {
	Path string `json:"path"`
}

// PendingResponse lists confirmations waiting for a decision.
type PendingResponse struct {
	Pending []approval.Pending `json:"pending"`
}

// ResolveRequest answers a pending confirmation. Decision accepts
// y/n/a/q or approved/blocked/approved_all/task_aborted.
type ResolveRequest struct {
	ID       string `json:"id"`
	Decision string `json:"decision"`
}

// ResolveResponse is the applied decision.
type ResolveResponse struct {
	ID       string             `json:"id"`
	Decision model.UserDecision `json:"decision"`
}
