// Package server wires the dice roller into a gRPC server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"

	platformgrpc "github.com/louisbranch/diceroller/internal/platform/grpc"
	diceservice "github.com/louisbranch/diceroller/internal/services/dice/api/grpc/dice"
	"github.com/louisbranch/diceroller/internal/services/dice/roller"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/status"
)

// Server hosts the dice gRPC API.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
}

// New creates a dice server listening on addr.
func New(addr string, r *roller.Roller) (*Server, error) {
	if r == nil {
		return nil, errors.New("dice roller is required")
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return newWithListener(listener, r), nil
}

func newWithListener(listener net.Listener, r *roller.Roller) *Server {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(logFailures),
	)
	diceservice.RegisterDiceServiceServer(grpcServer, diceservice.NewService(r))
	healthServer := platformgrpc.RegisterHealth(grpcServer, diceservice.ServiceName)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
	}
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("dice server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		return serveResult(<-serveErr)
	case err := <-serveErr:
		return serveResult(err)
	}
}

func serveResult(err error) error {
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return fmt.Errorf("serve gRPC: %w", err)
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// logFailures logs calls that end in a server-side failure. Evaluation
// errors are the caller's problem and are not logged.
func logFailures(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		if code := status.Code(err); code == codes.Internal || code == codes.Unknown {
			log.Printf("%s failed: %v", info.FullMethod, err)
		}
	}
	return resp, err
}
