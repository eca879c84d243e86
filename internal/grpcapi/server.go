// Package grpcapi exposes the standard gRPC health service.  A vein-server
// instance reports SERVING while its database answers pings.
package grpcapi

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-check name of the vein API.  The empty name
// reports the same status.
const ServiceName = "gt6.veins.v1.VeinService"

type Dependencies struct {
	Logger *log.Logger
	Addr   string
	// Ping reports backing-store health.
	Ping func(ctx context.Context) error
	// CheckInterval defaults to 15s.
	CheckInterval time.Duration
}

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *log.Logger
	addr       string
	ping       func(ctx context.Context) error
	interval   time.Duration

	mu      sync.Mutex
	serving bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewServer(d Dependencies) *Server {
	interval := d.CheckInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		grpcServer: gs,
		health:     hs,
		logger:     d.Logger,
		addr:       d.Addr,
		ping:       d.Ping,
		interval:   interval,
		done:       make(chan struct{}),
	}
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve runs the health poll loop and serves gRPC on lis.  It blocks until
// the server stops.
func (s *Server) Serve(lis net.Listener) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go s.loop(ctx)

	return s.grpcServer.Serve(lis)
}

// Shutdown stops the poll loop and drains in-flight RPCs.  If ctx expires
// first, remaining RPCs are cut off.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-s.done
	}

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.grpcServer.Stop()
		return ctx.Err()
	}
}

func (s *Server) loop(ctx context.Context) {
	defer close(s.done)

	s.Check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Check pings the store once and updates the reported status.  Transitions
// are logged.
func (s *Server) Check(ctx context.Context) {
	ok := true
	if s.ping != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := s.ping(pingCtx)
		cancel()
		if err != nil {
			ok = false
			if ctx.Err() == nil {
				s.logger.Printf("grpc health: store ping failed: %v", err)
			}
		}
	}

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)

	s.mu.Lock()
	changed := s.serving != ok
	s.serving = ok
	s.mu.Unlock()
	if changed {
		s.logger.Printf("grpc health: %s", status)
	}
}
