package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// grpcHealth serves grpc.health.v1.Health for orchestrators that probe over
// gRPC. The empty service name covers the whole process.
type grpcHealth struct {
	srv    *grpc.Server
	status *health.Server
}

func newGRPCHealth() *grpcHealth {
	srv := grpc.NewServer()
	status := health.NewServer()
	healthpb.RegisterHealthServer(srv, status)
	status.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return &grpcHealth{srv: srv, status: status}
}

// serve blocks until stop. A stop that lands before Serve starts is not an error.
func (h *grpcHealth) serve(ln net.Listener) error {
	if err := h.srv.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve grpc %s: %w", ln.Addr(), err)
	}
	return nil
}

// drain flips every service to NOT_SERVING and ignores later updates.
func (h *grpcHealth) drain() {
	h.status.Shutdown()
}

// stop waits for in-flight RPCs, forcing the stop once ctx expires.
func (h *grpcHealth) stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		h.srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		h.srv.Stop()
		<-done
	}
}
