package service

import (
	"context"
	"fmt"
	"sync"

	dicegrpc "github.com/louisbranch/diceroller/internal/services/dice/api/grpc/dice"
	"github.com/louisbranch/diceroller/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Dice Roller MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over streamable HTTP for browser or remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	GRPCAddr  string
	Transport TransportKind
	HTTPAddr  string // HTTP server address (e.g., "localhost:8081"). Defaults to localhost:8081 for HTTP transport.
	// Locale is sent to the DiceService so error messages come back
	// localized, e.g. "pt-BR".
	Locale string
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	mu        sync.Mutex
	conn      *grpc.ClientConn
}

type toolRegistration struct {
	name     string
	register func(*mcp.Server)
}

// diceTools lists the tools backed by the DiceService.
func diceTools(client domain.DiceClient) []toolRegistration {
	return []toolRegistration{
		{
			name: domain.RollDiceTool().Name,
			register: func(server *mcp.Server) {
				mcp.AddTool(server, domain.RollDiceTool(), domain.RollDiceHandler(client))
			},
		},
		{
			name: domain.DiceLimitsTool().Name,
			register: func(server *mcp.Server) {
				mcp.AddTool(server, domain.DiceLimitsTool(), domain.DiceLimitsHandler(client))
			},
		},
	}
}

// New connects to the DiceService at grpcAddr and builds the MCP server.
func New(ctx context.Context, grpcAddr, locale string) (*Server, error) {
	conn, err := dialDiceGRPC(ctx, grpcAddress(grpcAddr))
	if err != nil {
		return nil, err
	}
	return newServer(conn, locale), nil
}

// newServer registers every tool against a DiceService client over conn.
// The server owns conn and closes it when serving ends.
func newServer(conn *grpc.ClientConn, locale string) *Server {
	server := &Server{conn: conn}
	var client domain.DiceClient
	if conn != nil {
		client = dicegrpc.NewClient(conn, locale)
	}
	server.mcpServer = newMCPServer(client)
	return server
}

func newMCPServer(client domain.DiceClient) *mcp.Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	for _, tool := range diceTools(client) {
		tool.register(mcpServer)
	}
	return mcpServer
}

// Close releases the gRPC connection held by the server.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("close gRPC connection: %w", err)
	}
	s.conn = nil
	return nil
}
