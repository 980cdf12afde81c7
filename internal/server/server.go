// Package server exposes a Guard over gRPC.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/ppiankov/actiongate/api/proto/actiongate/v1"
	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/audit"
	"github.com/ppiankov/actiongate/internal/classify"
	"github.com/ppiankov/actiongate/internal/domainlist"
	"github.com/ppiankov/actiongate/internal/guard"
	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/policy"
)

// Config holds gRPC server configuration.
type Config struct {
	Addr        string
	RulesPath   string
	DomainsPath string
	ReportPath  string
}

// Server implements the ActionGate gRPC service on top of a Guard.
type Server struct {
	guard   *guard.Guard
	queue   *approval.Queue
	journal *audit.Journal
	cfg     Config
	logger  *slog.Logger

	mu         sync.RWMutex
	policyHash string

	grpcServer *grpc.Server
}

// Option configures a Server.
type Option func(*Server)

// WithQueue exposes q through Pending and Resolve. q should be the
// guard's requester.
func WithQueue(q *approval.Queue) Option {
	return func(s *Server) { s.queue = q }
}

// WithJournal stamps reloaded policy hashes into j.
func WithJournal(j *audit.Journal) Option {
	return func(s *Server) { s.journal = j }
}

// WithPolicyHash records the hash of the rule file the guard started with.
func WithPolicyHash(hash string) Option {
	return func(s *Server) { s.policyHash = hash }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a gRPC server for g.
func New(g *guard.Guard, cfg Config, opts ...Option) *Server {
	s := &Server{
		guard:      g,
		cfg:        cfg,
		grpcServer: grpc.NewServer(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pb.RegisterActionGateServer(s.grpcServer, s)
	return s
}

// Serve listens on the configured address. Blocks until stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.Addr, err)
	}
	return s.ServeOn(lis)
}

// ServeOn serves on the given listener.
func (s *Server) ServeOn(lis net.Listener) error {
	s.logger.Info("grpc server listening", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// GracefulStop gracefully shuts down the gRPC server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// PolicyHash returns the hash of the rule file last loaded by ReloadPolicy.
func (s *Server) PolicyHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policyHash
}

// CheckAction implements the CheckAction RPC.
func (s *Server) CheckAction(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pb.CheckRequest
	if err := pb.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	snapshot := model.Context(req.Context)
	kind, target := req.Kind, req.Target
	if req.Tool != "" {
		if kind == "" {
			kind = classify.DetectActionKind(req.Tool, req.Args, snapshot)
		}
		if target == "" {
			target = classify.TargetFor(req.Tool, req.Args)
		}
	}
	if kind == "" {
		return nil, status.Error(codes.InvalidArgument, "kind or tool is required")
	}

	allowed, ra, err := s.guard.CheckAction(ctx, kind, target, snapshot)
	if err != nil {
		if errors.Is(err, model.ErrUnknownActionKind) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	resp := pb.CheckResponse{Allowed: allowed, Kind: kind, Risk: ra}
	if !allowed {
		resp.Reason = fmt.Sprintf("blocked: %s risk %.1f", ra.Level, ra.Score)
	}
	return encode(resp)
}

// Classify implements the Classify RPC.
func (s *Server) Classify(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pb.ClassifyRequest
	if err := pb.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return encode(pb.ClassifyResponse{
		Kind:   classify.DetectActionKind(req.Tool, req.Args, model.Context(req.Context)),
		Target: classify.TargetFor(req.Tool, req.Args),
	})
}

// Stats implements the Stats RPC.
func (s *Server) Stats(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return encode(s.guard.Stats())
}

// SaveLogs implements the SaveLogs RPC.
func (s *Server) SaveLogs(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pb.SaveLogsRequest
	if err := pb.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	path := req.Path
	if path == "" {
		path = s.cfg.ReportPath
	}
	if path == "" {
		return nil, status.Error(codes.InvalidArgument, "no report path configured")
	}
	if err := s.guard.SaveLogs(path); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return encode(pb.SaveLogsResponse{Path: path})
}

// Pending implements the Pending RPC.
func (s *Server) Pending(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	resp := pb.PendingResponse{Pending: []approval.Pending{}}
	if s.queue != nil {
		resp.Pending = s.queue.Pending()
	}
	return encode(resp)
}

// Resolve implements the Resolve RPC.
func (s *Server) Resolve(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pb.ResolveRequest
	if err := pb.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if s.queue == nil {
		return nil, status.Error(codes.FailedPrecondition, "server has no confirmation queue")
	}
	d, err := approval.ParseAnswer(req.Decision)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.queue.Resolve(req.ID, d); err != nil {
		if errors.Is(err, approval.ErrNotPending) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return encode(pb.ResolveResponse{ID: req.ID, Decision: d})
}

// ReloadPolicy reloads the rule file and domain lists into the guard.
// Called by the hot-reloader on file change. On error the active rules stay.
func (s *Server) ReloadPolicy() error {
	rules, hash, err := policy.LoadRulesWithHash(s.cfg.RulesPath)
	if err != nil {
		return fmt.Errorf("server: reload rules: %w", err)
	}
	domains, err := domainlist.Load(s.cfg.DomainsPath)
	if err != nil {
		return fmt.Errorf("server: reload domains: %w", err)
	}
	if err := s.guard.ReloadRules(rules); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	s.guard.ReloadDomains(domains)

	s.mu.Lock()
	s.policyHash = hash
	s.mu.Unlock()
	if s.journal != nil {
		s.journal.SetPolicyHash(hash)
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	st, err := pb.Encode(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}
