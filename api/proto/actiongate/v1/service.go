// Package v1 defines the actiongate.v1.ActionGate gRPC service. Requests and
// responses travel as google.protobuf.Struct; the Go message types below are
// their JSON shapes, so no generated code is needed.
package v1

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "actiongate.v1.ActionGate"

// Method names.
const (
	MethodCheckAction = "CheckAction"
	MethodClassify    = "Classify"
	MethodStats       = "Stats"
	MethodSaveLogs    = "SaveLogs"
	MethodPending     = "Pending"
	MethodResolve     = "Resolve"
)

// FullMethod returns "/actiongate.v1.ActionGate/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ActionGateServer is implemented by the gRPC server.
type ActionGateServer interface {
	CheckAction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Classify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveLogs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Pending(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resolve(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type call func(ActionGateServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, fn call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ActionGateServer)
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes the service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ActionGateServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodCheckAction, ActionGateServer.CheckAction),
		unary(MethodClassify, ActionGateServer.Classify),
		unary(MethodStats, ActionGateServer.Stats),
		unary(MethodSaveLogs, ActionGateServer.SaveLogs),
		unary(MethodPending, ActionGateServer.Pending),
		unary(MethodResolve, ActionGateServer.Resolve),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "actiongate/v1/actiongate.proto",
}

// RegisterActionGateServer registers srv on s.
func RegisterActionGateServer(s grpc.ServiceRegistrar, srv ActionGateServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Invoke calls method on conn, encoding req and decoding the reply into resp.
func Invoke(ctx context.Context, conn grpc.ClientConnInterface, method string, req, resp any) error {
	in, err := Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return err
	}
	return Decode(out, resp)
}

// Encode converts a JSON-serializable message to a Struct.
func Encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("actiongate.v1: encode: %w", err)
	}
	st := new(structpb.Struct)
	if err := protojson.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("actiongate.v1: encode: %w", err)
	}
	return st, nil
}

// Decode fills v from a Struct. A nil Struct leaves v untouched.
func Decode(st *structpb.Struct, v any) error {
	if st == nil {
		return nil
	}
	data, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("actiongate.v1: decode: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("actiongate.v1: decode: %w", err)
	}
	return nil
}
