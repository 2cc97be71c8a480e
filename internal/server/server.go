// Package server exposes the analysis pipeline over gRPC.
//
// The service has a single unary method, flowcheck.v1.Analyzer/Analyze,
// whose request and response are google.protobuf.Struct messages:
//
//	request:  {units: [{path, source}], settings: {report_mixed_issues: false, ...}}
//	response: {run_id, issues: [{file, line, column, code, severity, message}],
//	           unanalyzable: [{path, error}]}
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/flowcheck/internal/config"
	"github.com/funvibe/flowcheck/internal/pipeline"
)

const (
	ServiceName   = "flowcheck.v1.Analyzer"
	AnalyzeMethod = "/" + ServiceName + "/Analyze"
)

// AnalyzerServer is the service implementation.
type AnalyzerServer interface {
	Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalyzerServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Analyze",
		Handler:    analyzeHandler,
	}},
	Streams:  []grpc.StreamDesc{},
	Metadata: "flowcheck/v1/analyzer.proto",
}

func analyzeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalyzerServer).Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AnalyzeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnalyzerServer).Analyze(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server runs analysis requests with base settings that a request may
// override.
type Server struct {
	settings config.Settings
	grpc     *grpc.Server
	health   *health.Server
}

// New creates a server with the analyzer and health services registered.
func New(settings config.Settings, opts ...grpc.ServerOption) *Server {
	s := &Server{
		settings: settings,
		grpc:     grpc.NewServer(opts...),
		health:   health.NewServer(),
	}
	s.grpc.RegisterService(&serviceDesc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("server.listen", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop marks the services as not serving and waits for pending requests.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// Analyze runs the pipeline over the units of the request.
func (s *Server) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	units, err := decodeUnits(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	settings, err := s.requestSettings(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := pipeline.Run(ctx, units, settings)
	if err != nil {
		if ctx.Err() != nil {
			return nil, status.FromContextError(err).Err()
		}
		return nil, status.Errorf(codes.Internal, "analysis failed: %v", err)
	}
	out, err := encodeResult(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding result: %v", err)
	}
	slog.Info("server.analyze", "run", res.RunID, "units", len(units), "issues", len(res.Issues))
	return out, nil
}

func decodeUnits(req *structpb.Struct) ([]pipeline.Unit, error) {
	list := req.GetFields()["units"].GetListValue()
	if list == nil || len(list.GetValues()) == 0 {
		return nil, fmt.Errorf("request has no units")
	}
	units := make([]pipeline.Unit, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		fields := v.GetStructValue().GetFields()
		path := fields["path"].GetStringValue()
		if path == "" {
			return nil, fmt.Errorf("units[%d]: path is required", i)
		}
		units = append(units, pipeline.Unit{Path: path, Data: []byte(fields["source"].GetStringValue())})
	}
	return units, nil
}

// requestSettings applies the request's settings object over the server
// settings, using the same keys as flowcheck.yaml.
func (s *Server) requestSettings(req *structpb.Struct) (config.Settings, error) {
	override := req.GetFields()["settings"].GetStructValue()
	if override == nil {
		return s.settings, nil
	}
	base, err := yaml.Marshal(s.settings)
	if err != nil {
		return config.Settings{}, err
	}
	merged := make(map[string]any)
	if err := yaml.Unmarshal(base, &merged); err != nil {
		return config.Settings{}, err
	}
	for k, v := range override.AsMap() {
		merged[k] = v
	}
	data, err := yaml.Marshal(merged)
	if err != nil {
		return config.Settings{}, err
	}
	parsed, err := config.ParseSettings(data, "request settings")
	if err != nil {
		return config.Settings{}, err
	}
	return *parsed, nil
}

func encodeResult(res *pipeline.Result) (*structpb.Struct, error) {
	issues := make([]any, 0, len(res.Issues))
	for _, is := range res.Issues {
		sp := is.Span()
		issues = append(issues, map[string]any{
			"file":     sp.File,
			"line":     sp.Line,
			"column":   sp.Column,
			"code":     string(is.Code),
			"severity": is.Severity.String(),
			"message":  is.Message,
		})
	}
	failures := make([]any, 0, len(res.Unanalyzable))
	for _, f := range res.Unanalyzable {
		failures = append(failures, map[string]any{"path": f.Path, "error": f.Err.Error()})
	}
	return structpb.NewStruct(map[string]any{
		"run_id":       res.RunID,
		"issues":       issues,
		"unanalyzable": failures,
	})
}

// Analyze calls the service over conn.
func Analyze(ctx context.Context, conn grpc.ClientConnInterface, req *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, AnalyzeMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}
