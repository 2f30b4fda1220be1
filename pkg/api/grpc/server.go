// Package grpcapi implements a gRPC surface over pkg/store, the lunarc
// counterpart to the teacher's pkg/api/grpc server that fronts the real,
// code-generated cloud.google.com/go/workflows protobuf packages.
//
// Those generated packages exist only for GCP's own Workflows API; lunarc
// programs/executions have no such generated types, and fabricating a fake
// generated package (hand-written .pb.go stubs behind the real import
// paths) is exactly the kind of vendored fake this project avoids. Instead
// every RPC here exchanges google.golang.org/protobuf's well-known
// structpb.Struct — a real, compiled-in proto.Message — keyed by field
// name the same way the REST handlers in pkg/api key their JSON bodies.
// The grpc.ServiceDesc below is hand-assembled rather than protoc-
// generated, using the same registration mechanism generated code relies
// on (grpc.Server.RegisterService + a HandlerType checked by reflection).
package grpcapi

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/lunarc/pkg/store"
)

// Server implements the hand-rolled Programs gRPC service.
type Server struct {
	store *store.Store
	grpc  *grpc.Server
}

// New creates a gRPC server wrapping the given store.
func New(s *store.Store) *Server {
	srv := &Server{store: s}

	gs := grpc.NewServer()
	gs.RegisterService(&serviceDesc, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on addr and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// programsServer is the HandlerType grpc.RegisterService checks *Server
// against by reflection — the hand-written analogue of a protoc-generated
// xxxServer interface.
type programsServer interface {
	CreateProgram(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProgram(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPrograms(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateExecution(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetExecution(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "lunarc.v1.Programs",
	HandlerType: (*programsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateProgram", Handler: methodHandler(programsServer.CreateProgram)},
		{MethodName: "GetProgram", Handler: methodHandler(programsServer.GetProgram)},
		{MethodName: "ListPrograms", Handler: methodHandler(programsServer.ListPrograms)},
		{MethodName: "CreateExecution", Handler: methodHandler(programsServer.CreateExecution)},
		{MethodName: "GetExecution", Handler: methodHandler(programsServer.GetExecution)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/api/grpc/server.go",
}

type unaryFunc func(programsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// methodHandler adapts one programsServer method into the grpc.methodHandler
// shape generated code produces per RPC: decode the request into a
// *structpb.Struct, run interceptors, call through.
func methodHandler(fn unaryFunc) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(programsServer)
		if interceptor == nil {
			return fn(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceDesc.ServiceName}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(s, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// --- RPC implementations ---

func (s *Server) CreateProgram(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, source := getString(req, "name"), getString(req, "source")
	if name == "" || source == "" {
		return nil, status.Error(codes.InvalidArgument, "name and source are required")
	}
	p, err := s.store.CreateProgram(name, source)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return programToStruct(p), nil
}

func (s *Server) GetProgram(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.store.GetProgram(getString(req, "name"))
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return programToStruct(p), nil
}

func (s *Server) ListPrograms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	programs := s.store.ListPrograms()
	items := make([]any, len(programs))
	for i, p := range programs {
		items[i] = programToStruct(p).AsMap()
	}
	list, err := structpb.NewStruct(map[string]any{"programs": items})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return list, nil
}

func (s *Server) CreateExecution(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	mode := store.Mode(getString(req, "mode"))
	if mode == "" {
		mode = store.ModeInterp
	}
	exec, err := s.store.CreateExecution(getString(req, "program"), mode)
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return executionToStruct(exec), nil
}

func (s *Server) GetExecution(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	exec, err := s.store.GetExecution(getString(req, "name"))
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return executionToStruct(exec), nil
}

// --- helpers ---

// getString reads a string field out of a request Struct, nil-safe the same
// way a generated message's Getxxx accessor is: a missing key or a Struct
// built from a zero-value request simply yields "".
func getString(st *structpb.Struct, key string) string {
	return st.GetFields()[key].GetStringValue()
}

func programToStruct(p *store.Program) *structpb.Struct {
	st, _ := structpb.NewStruct(map[string]any{
		"name":       p.Name,
		"state":      string(p.State),
		"revisionId": p.RevisionID,
		"createTime": p.CreateTime.Format("2006-01-02T15:04:05Z07:00"),
		"updateTime": p.UpdateTime.Format("2006-01-02T15:04:05Z07:00"),
	})
	return st
}

func executionToStruct(exec *store.Execution) *structpb.Struct {
	fields := map[string]any{
		"name":      exec.Name,
		"program":   exec.Program,
		"mode":      string(exec.Mode),
		"state":     string(exec.State),
		"startTime": exec.StartTime.Format("2006-01-02T15:04:05Z07:00"),
	}
	if exec.Error != "" {
		fields["error"] = exec.Error
	}
	if !exec.EndTime.IsZero() {
		fields["endTime"] = exec.EndTime.Format("2006-01-02T15:04:05Z07:00")
	}
	st, _ := structpb.NewStruct(fields)
	return st
}
