// Package client talks to a remote actiongate gRPC server.
package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	pb "github.com/ppiankov/actiongate/api/proto/actiongate/v1"
	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/guard"
	"github.com/ppiankov/actiongate/internal/model"
)

// FailClosedRule names the assessment returned when the server cannot decide.
const FailClosedRule = "failclosed.unreachable"

const callTimeout = 5 * time.Second

// Client connects to an actiongate gRPC server.
type Client struct {
	conn *grpc.ClientConn
}

// New creates a gRPC client for addr. The connection is lazy; an unreachable
// server surfaces on the first call.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("client: connect to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// failClosed is the assessment for an action the server could not decide.
func failClosed(err error) model.RiskAssessment {
	return model.NewRiskAssessment(100, []string{FailClosedRule}, []string{fmt.Sprintf("policy server unreachable: %v", err)}, 0)
}

// CheckAction asks the server for a decision. ctx is used as is because a
// remote confirmation may wait minutes.
// Fail-closed: any RPC error other than a rejected request blocks the action
// and returns a nil error.
func (c *Client) CheckAction(ctx context.Context, kind model.ActionKind, target string, snapshot model.Context) (bool, model.RiskAssessment, error) {
	resp, err := c.check(ctx, pb.CheckRequest{Kind: kind, Target: target, Context: snapshot})
	if err != nil {
		return false, model.RiskAssessment{}, err
	}
	return resp.Allowed, resp.Risk, nil
}

// CheckTool lets the server classify the tool call before checking it.
func (c *Client) CheckTool(ctx context.Context, tool string, args map[string]any, snapshot model.Context) (pb.CheckResponse, error) {
	return c.check(ctx, pb.CheckRequest{Tool: tool, Args: args, Context: snapshot})
}

func (c *Client) check(ctx context.Context, req pb.CheckRequest) (pb.CheckResponse, error) {
	var resp pb.CheckResponse
	err := pb.Invoke(ctx, c.conn, pb.MethodCheckAction, req, &resp)
	if err == nil {
		return resp, nil
	}
	if status.Code(err) == codes.InvalidArgument {
		return pb.CheckResponse{}, fmt.Errorf("client: check action: %w", err)
	}
	return pb.CheckResponse{
		Allowed: false,
		Kind:    req.Kind,
		Risk:    failClosed(err),
		Reason:  fmt.Sprintf("policy server unreachable: %v", err),
	}, nil
}

// Classify returns the server's classification of a tool call.
func (c *Client) Classify(tool string, args map[string]any, snapshot model.Context) (pb.ClassifyResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	var resp pb.ClassifyResponse
	err := pb.Invoke(ctx, c.conn, pb.MethodClassify, pb.ClassifyRequest{Tool: tool, Args: args, Context: snapshot}, &resp)
	return resp, err
}

// Stats fetches the server's guard statistics.
func (c *Client) Stats() (guard.Stats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	var st guard.Stats
	err := pb.Invoke(ctx, c.conn, pb.MethodStats, struct{}{}, &st)
	return st, err
}

// SaveLogs asks the server to write its audit report. Empty path uses the
// server default. Returns the written path.
func (c *Client) SaveLogs(path string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	var resp pb.SaveLogsResponse
	if err := pb.Invoke(ctx, c.conn, pb.MethodSaveLogs, pb.SaveLogsRequest{Path: path}, &resp); err != nil {
		return "", err
	}
	return resp.Path, nil
}

// Pending lists confirmations waiting on the server.
func (c *Client) Pending() ([]approval.Pending, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	var resp pb.PendingResponse
	if err := pb.Invoke(ctx, c.conn, pb.MethodPending, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Pending, nil
}

// Resolve answers a pending confirmation.
func (c *Client) Resolve(id, decision string) (model.UserDecision, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	var resp pb.ResolveResponse
	if err := pb.Invoke(ctx, c.conn, pb.MethodResolve, pb.ResolveRequest{ID: id, Decision: decision}, &resp); err != nil {
		return "", err
	}
	return resp.Decision, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
