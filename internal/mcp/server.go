// Package mcp exposes the action guard as MCP tools over stdio.
package mcp

import (
	"context"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/guard"
)

// Server wraps the MCP SDK server around a Guard.
type Server struct {
	mcpServer *mcpsdk.Server
	guard     *guard.Guard
	queue     *approval.Queue
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithQueue enables the pending and resolve tools. The guard's gate should
// use the same queue as its requester.
func WithQueue(q *approval.Queue) Option {
	return func(s *Server) { s.queue = q }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates an MCP server with all actiongate tools registered.
func New(g *guard.Guard, version string, opts ...Option) *Server {
	s := &Server{guard: g}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s.mcpServer = mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "actiongate",
		Version: version,
	}, nil)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "actiongate_check",
		Description: "Decide whether a browser action may run. Pass kind and target, or a tool name with its arguments.",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "actiongate_classify",
		Description: "Classify a tool call into an action kind without checking it",
	}, s.handleClassify)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "actiongate_stats",
		Description: "Report enforcement level, audit counters and rule counts",
	}, s.handleStats)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "actiongate_pending",
		Description: "List confirmations waiting for a human decision",
	}, s.handlePending)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "actiongate_resolve",
		Description: "Answer a pending confirmation (y, n, a or q)",
	}, s.handleResolve)
}
