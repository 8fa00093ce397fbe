// Package grpcapi exposes the standard gRPC health service.  The overall
// server is always SERVING while up; the device link has its own entry
// that tracks whether the actuator board is reachable.
package grpcapi

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DeviceLinkService is the health service name for the actuator link.
const DeviceLinkService = "facegate.DeviceLink"

const defaultPollInterval = 5 * time.Second

// LinkProbe reports link state without blocking.
type LinkProbe interface {
	IsConnected() bool
}

type Config struct {
	PollInterval time.Duration
}

type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	link     LinkProbe
	interval time.Duration
	logger   logrus.FieldLogger

	mu       sync.Mutex
	lastUp   bool
	reported bool
}

func NewServer(cfg Config, link LinkProbe, logger logrus.FieldLogger) *Server {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	s := &Server{grpc: gs, health: hs, link: link, interval: interval, logger: logger}
	s.Refresh()
	return s
}

// Refresh publishes the current link state.
func (s *Server) Refresh() {
	up := s.link.IsConnected()
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if up {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(DeviceLinkService, status)

	s.mu.Lock()
	changed := !s.reported || s.lastUp != up
	s.lastUp, s.reported = up, true
	s.mu.Unlock()

	if changed {
		s.logger.WithField("connected", up).Info("device link health changed")
	}
}

// Serve polls the link and serves on lis until ctx is cancelled or Stop is
// called.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.poll(ctx)

	return s.grpc.Serve(lis)
}

// ListenAndServe is Serve on a fresh TCP listener.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.WithField("addr", lis.Addr().String()).Info("grpc health listening")
	return s.Serve(ctx, lis)
}

// Stop marks every service NOT_SERVING and drains in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) poll(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh()
		}
	}
}
