package server

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/funvibe/flowcheck/internal/config"
)

func startServer(t *testing.T, settings config.Settings) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := New(settings)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return req
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAnalyze(t *testing.T) {
	conn := startServer(t, config.DefaultSettings())
	ctx := testContext(t)

	req := request(t, map[string]any{
		"units": []any{
			map[string]any{"path": "main.yaml", "source": "- {kind: echo, values: [$x]}\n"},
			map[string]any{"path": "broken.yaml", "source": "- {kind: goto}\n"},
		},
	})
	resp, err := Analyze(ctx, conn, req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	fields := resp.GetFields()
	if fields["run_id"].GetStringValue() == "" {
		t.Error("response has no run_id")
	}

	issues := fields["issues"].GetListValue().GetValues()
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %v", len(issues), resp)
	}
	got := issues[0].GetStructValue().GetFields()
	if got["code"].GetStringValue() != "undefined-variable" || got["file"].GetStringValue() != "main.yaml" {
		t.Errorf("issue = %v", got)
	}
	if got["line"].GetNumberValue() != 1 {
		t.Errorf("line = %v, want 1", got["line"].GetNumberValue())
	}

	failed := fields["unanalyzable"].GetListValue().GetValues()
	if len(failed) != 1 || failed[0].GetStructValue().GetFields()["path"].GetStringValue() != "broken.yaml" {
		t.Errorf("unanalyzable = %v", failed)
	}
}

func TestAnalyzeSettingsOverride(t *testing.T) {
	conn := startServer(t, config.DefaultSettings())
	ctx := testContext(t)

	req := request(t, map[string]any{
		"units": []any{
			map[string]any{"path": "vendor_lib.yaml", "source": "- {kind: echo, values: [$x]}\n"},
		},
		"settings": map[string]any{"exclude": []any{"vendor_*"}},
	})
	resp, err := Analyze(ctx, conn, req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if n := len(resp.GetFields()["issues"].GetListValue().GetValues()); n != 0 {
		t.Errorf("excluded unit produced %d issues", n)
	}
}

func TestAnalyzeInvalidRequest(t *testing.T) {
	conn := startServer(t, config.DefaultSettings())
	ctx := testContext(t)

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"no units", map[string]any{}},
		{"missing path", map[string]any{"units": []any{map[string]any{"source": "[]"}}}},
		{"bad settings", map[string]any{
			"units":    []any{map[string]any{"path": "a.yaml", "source": "[]"}},
			"settings": map[string]any{"workers": -1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(ctx, conn, request(t, tt.fields))
			if status.Code(err) != codes.InvalidArgument {
				t.Errorf("code = %v, want InvalidArgument (err %v)", status.Code(err), err)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	conn := startServer(t, config.DefaultSettings())
	ctx := testContext(t)

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}
}
