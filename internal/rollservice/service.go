// Package rollservice exposes the formula pipeline over gRPC. Messages are
// google.protobuf.Struct values, so the service needs no generated code:
//
//	request:  {"text": "attack 1d20+5"}
//	response: {"results": [{"original": ..., "value": 17, ...}]}
package rollservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/dnddice/internal/config"
	"github.com/cory-johannsen/dnddice/internal/processor"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "dnddice.v1.RollService"

const processTextMethod = "/" + ServiceName + "/ProcessText"

// MaxTextLength bounds the request text in bytes.
const MaxTextLength = 64 << 10

// RollServiceServer is the server API for the roll service.
type RollServiceServer interface {
	ProcessText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the roll service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RollServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ProcessText", Handler: processTextHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dnddice/v1/roll.proto",
}

func processTextHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RollServiceServer).ProcessText(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: processTextMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RollServiceServer).ProcessText(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterRollServiceServer registers srv on s.
func RegisterRollServiceServer(s grpc.ServiceRegistrar, srv RollServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// TextProcessor evaluates the formulas embedded in a text.
type TextProcessor interface {
	ProcessText(ctx context.Context, text string) []processor.Result
}

// Service implements RollServiceServer over a TextProcessor.
type Service struct {
	processor TextProcessor
	logger    *zap.Logger
}

// NewService creates a Service.
//
// Precondition: proc and logger must be non-nil.
func NewService(proc TextProcessor, logger *zap.Logger) *Service {
	return &Service{processor: proc, logger: logger}
}

// ProcessText implements RollServiceServer.
//
// Postcondition: Returns InvalidArgument when "text" is missing, not a
// string, or longer than MaxTextLength.
func (s *Service) ProcessText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	field, ok := req.GetFields()["text"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}
	text, ok := field.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "text must be a string")
	}
	if len(text.StringValue) > MaxTextLength {
		return nil, status.Errorf(codes.InvalidArgument, "text exceeds %d bytes", MaxTextLength)
	}

	results := s.processor.ProcessText(ctx, text.StringValue)
	resp, err := resultsToStruct(results)
	if err != nil {
		s.logger.Error("encoding results", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "encoding results: %v", err)
	}
	return resp, nil
}

// resultsToStruct encodes results through their JSON form, so the Struct
// fields match the JSON served by the other front ends.
func resultsToStruct(results []processor.Result) (*structpb.Struct, error) {
	if results == nil {
		results = []processor.Result{}
	}
	data, err := json.Marshal(map[string]any{"results": results})
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return structpb.NewStruct(payload)
}

// LoggingInterceptor logs every unary call with a request id, its method
// and duration.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc call",
			zap.String("request_id", uuid.NewString()),
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

// Server hosts the roll service on a gRPC listener.
type Server struct {
	cfg    config.GRPCConfig
	grpc   *grpc.Server
	logger *zap.Logger
}

// NewServer creates a gRPC server with svc registered.
func NewServer(cfg config.GRPCConfig, svc RollServiceServer, logger *zap.Logger) *Server {
	gs := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(logger)))
	RegisterRollServiceServer(gs, svc)
	return &Server{cfg: cfg, grpc: gs, logger: logger}
}

// ListenAndServe listens on the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles gRPC on ln until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(ln) }()
	s.logger.Info("gRPC server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("serving grpc: %w", err)
	case <-ctx.Done():
	}
	s.grpc.GracefulStop()
	<-errCh
	s.logger.Info("gRPC server stopped")
	return nil
}
