package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dicecore "github.com/louisbranch/diceroller/internal/core/dice"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
)

type fakeDiceClient struct {
	limits dicecore.Limits
}

func (f *fakeDiceClient) Roll(_ context.Context, expression string, _ *uint64, _ ...grpc.CallOption) (dicecore.Record, error) {
	return dicecore.Roll(dicecore.Request{Expression: expression}), nil
}

func (f *fakeDiceClient) GetLimits(context.Context, ...grpc.CallOption) (dicecore.Limits, error) {
	return f.limits, nil
}

func setLocalhostHeaders(req *http.Request) {
	req.Host = "localhost:8081"
}

func TestIsLoopbackHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"127.0.0.1", true},
		{"::1", true},
		{" localhost ", true},
		{"example.com", false},
		{"127.0.0.2", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := isLoopbackHost(tt.host); got != tt.want {
				t.Errorf("isLoopbackHost(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOk bool
	}{
		{"localhost:8081", "localhost", true},
		{"example.com:443", "example.com", true},
		{"[::1]:8081", "::1", true},
		{"[::1]", "::1", true},
		{"::1", "::1", true},
		{"example.com", "example.com", true},
		{"", "", false},
		{"  ", "", false},
		{"[::1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := normalizeHost(tt.input)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("normalizeHost(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestIsAllowedHostHeader(t *testing.T) {
	t.Setenv("DICE_MCP_ALLOWED_HOSTS", "")

	t.Run("loopback always allowed", func(t *testing.T) {
		transport := NewHTTPTransport("")
		if !transport.isAllowedHostHeader("localhost:8081") {
			t.Error("expected localhost to be allowed")
		}
		if !transport.isAllowedHostHeader("[::1]:8081") {
			t.Error("expected [::1] to be allowed")
		}
	})

	t.Run("unknown host rejected", func(t *testing.T) {
		transport := NewHTTPTransport("")
		if transport.isAllowedHostHeader("evil.com:8081") {
			t.Error("expected evil.com to be rejected")
		}
	})

	t.Run("configured host allowed", func(t *testing.T) {
		t.Setenv("DICE_MCP_ALLOWED_HOSTS", " Dice.Example.com ,,")
		transport := NewHTTPTransport("")
		if !transport.isAllowedHostHeader("dice.example.com:443") {
			t.Error("expected configured host to be allowed")
		}
	})
}

func TestValidateLocalRequest(t *testing.T) {
	transport := NewHTTPTransport("")
	if err := transport.validateLocalRequest(nil); err == nil {
		t.Error("expected error for nil request")
	}

	tests := []struct {
		name    string
		host    string
		origin  string
		wantErr bool
	}{
		{name: "local host", host: "localhost:8081"},
		{name: "local origin", host: "localhost:8081", origin: "http://127.0.0.1:3000"},
		{name: "remote host", host: "evil.com", wantErr: true},
		{name: "remote origin", host: "localhost:8081", origin: "https://evil.com", wantErr: true},
		{name: "origin without host", host: "localhost:8081", origin: "file://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			err := transport.validateLocalRequest(req)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateLocalRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	transport := NewHTTPTransport("")

	t.Run("GET", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/mcp/health", nil)
		setLocalhostHeaders(req)
		w := httptest.NewRecorder()
		transport.handleHealth(w, req)
		if w.Code != http.StatusOK || w.Body.String() != "OK" {
			t.Errorf("expected 200 OK, got %d %q", w.Code, w.Body.String())
		}
	})

	t.Run("POST", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/mcp/health", nil)
		setLocalhostHeaders(req)
		w := httptest.NewRecorder()
		transport.handleHealth(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", w.Code)
		}
	})

	t.Run("remote host", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/mcp/health", nil)
		req.Host = "evil.com"
		w := httptest.NewRecorder()
		transport.handleHealth(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestHandlerRejectsRemoteHost(t *testing.T) {
	transport := NewHTTPTransportWithServer("", newMCPServer(&fakeDiceClient{}))
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Host = "evil.com"
	w := httptest.NewRecorder()
	transport.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestHandlerServesStreamableHTTP(t *testing.T) {
	client := &fakeDiceClient{limits: dicecore.DefaultLimits()}
	transport := NewHTTPTransportWithServer("", newMCPServer(client))
	httpServer := httptest.NewServer(transport.Handler())
	t.Cleanup(httpServer.Close)

	session := connectClient(t, &mcp.StreamableClientTransport{Endpoint: httpServer.URL + "/mcp"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	limits, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "dice_limits", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("call dice_limits: %v", err)
	}
	if got := structuredFields(t, limits)["maxExplosions"]; got != float64(dicecore.DefaultMaxExplosions) {
		t.Errorf("expected maxExplosions %d, got %v", dicecore.DefaultMaxExplosions, got)
	}

	rolled, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "roll_dice",
		Arguments: map[string]any{"expression": "2d1*3"},
	})
	if err != nil {
		t.Fatalf("call roll_dice: %v", err)
	}
	if got := structuredFields(t, rolled)["final"]; got != float64(6) {
		t.Errorf("expected final 6, got %v", got)
	}
}

func TestStartRequiresServer(t *testing.T) {
	if err := NewHTTPTransport("").Start(context.Background()); err == nil {
		t.Fatal("expected error without MCP server")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	transport := NewHTTPTransportWithServer("127.0.0.1:0", newMCPServer(&fakeDiceClient{}))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- transport.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("HTTP transport did not stop after cancel")
	}
}
