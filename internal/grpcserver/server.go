// Package grpcserver serves the standard gRPC health service and reflection.
//
// Health follows the store: SERVING while the backend answers Ping,
// NOT_SERVING otherwise. Orchestrators probe it with grpc_health_probe.
package grpcserver

import (
	"context"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "leadsync"

const pingTimeout = 3 * time.Second

// Pinger reports backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server owns the grpc.Server and its health state.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	pinger Pinger
}

// New builds a Server with health and reflection registered. Status starts
// at NOT_SERVING until the first Check.
func New(pinger Pinger, opts ...grpc.ServerOption) *Server {
	s := &Server{
		srv:    grpc.NewServer(opts...),
		health: health.NewServer(),
		pinger: pinger,
	}
	healthpb.RegisterHealthServer(s.srv, s.health)
	reflection.Register(s.srv)
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Check pings the backend once and updates the health status.
func (s *Server) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.pinger.Ping(ctx); err != nil {
		log.Printf("[grpc] Store ping failed: %v", err)
		s.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return false
	}
	s.set(healthpb.HealthCheckResponse_SERVING)
	return true
}

// Watch runs Check every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	s.Check(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Check(ctx)
		}
	}
}

// Serve blocks serving lis.
func (s *Server) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

func (s *Server) set(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
