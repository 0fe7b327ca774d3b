// Package server provides the service lifecycle runner: signal handling,
// config loading, observability init, listeners, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/localdemo/docker-k8s-helm-local-demo/internal/config"
	"github.com/localdemo/docker-k8s-helm-local-demo/internal/domain"
	"github.com/localdemo/docker-k8s-helm-local-demo/internal/observability"
	"github.com/localdemo/docker-k8s-helm-local-demo/internal/responder"
)

// Params configures the lifecycle runner.
type Params struct {
	// Name identifies the service in logs and telemetry.
	Name string

	// Version is the build version reported in logs and telemetry.
	Version string

	// LogOutput receives log records. Nil means stdout.
	LogOutput io.Writer
}

// Listeners lets callers supply pre-bound listeners (port-0 testing).
// A nil HTTP listener is bound from config; nil Metrics/GRPC listeners are
// bound only when their configured port is non-zero.
type Listeners struct {
	HTTP    net.Listener
	Metrics net.Listener
	GRPC    net.Listener
}

// Run executes the full lifecycle and blocks until ctx is cancelled or
// SIGINT/SIGTERM arrives. Failing to bind the HTTP port is returned
// immediately; there is no retry and no fallback port.
func Run(ctx context.Context, p Params, ls Listeners) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		ls.closeAll()
		return fmt.Errorf("load config: %w", err)
	}

	id := observability.Identity{
		ServiceName:    p.Name,
		ServiceVersion: p.Version,
		Environment:    cfg.Environment,
	}

	logger := observability.InitLogger(observability.LogConfig{
		Identity: id,
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		Output:   p.LogOutput,
	})

	// --- Startup order: listeners -> tracer -> metrics -> servers ---

	if err := bindListeners(ctx, cfg, &ls); err != nil {
		return err
	}

	tracerProvider, err := observability.InitTracer(ctx, observability.TracerConfig{
		Identity:     id,
		OTLPEndpoint: cfg.OTEL.Endpoint,
	})
	if err != nil {
		ls.closeAll()
		return fmt.Errorf("initialize tracer: %w", err)
	}

	metricsProvider, err := observability.InitMetrics(ctx, observability.MetricsConfig{
		Identity:     id,
		OTLPEndpoint: cfg.OTEL.Endpoint,
	})
	if err != nil {
		ls.closeAll()
		_ = tracerProvider.Shutdown(context.Background())
		return fmt.Errorf("initialize metrics: %w", err)
	}

	if cfg.IsProd() && cfg.OTEL.Endpoint == "" {
		logger.Warn("OTEL_ENDPOINT not set, traces are not exported")
	}

	rs := responder.New(logger)
	httpServer := newHTTPServer(otelhttp.NewHandler(rs.Routes(), p.Name,
		otelhttp.WithTracerProvider(tracerProvider.Provider()),
		otelhttp.WithMeterProvider(metricsProvider.Provider()),
	))

	var metricsServer *http.Server
	if ls.Metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsProvider.Handler())
		metricsServer = newHTTPServer(mux)
	}

	var health *grpcHealth
	if ls.GRPC != nil {
		health = newGRPCHealth()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening",
			slog.Int("port", portOf(ls.HTTP)),
			slog.String("addr", ls.HTTP.Addr().String()),
		)
		return serveHTTP(httpServer, ls.HTTP)
	})

	if metricsServer != nil {
		g.Go(func() error {
			logger.Debug("serving metrics", slog.String("addr", ls.Metrics.Addr().String()))
			return serveHTTP(metricsServer, ls.Metrics)
		})
	}

	if health != nil {
		g.Go(func() error {
			logger.Debug("serving grpc health", slog.String("addr", ls.GRPC.Addr().String()))
			return health.serve(ls.GRPC)
		})
	}

	// Shutdown runs in reverse of startup once ctx is done, whether from a
	// signal, the caller, or a serve error.
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("received shutdown signal, starting graceful shutdown")

		// 1. Report not-ready so the orchestrator stops routing traffic.
		rs.Drain()
		if health != nil {
			health.drain()
		}

		// 2. Give endpoint removal time to propagate.
		time.Sleep(cfg.Shutdown.Drain)

		// 3. Drain in-flight requests.
		httpCtx, httpCancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer httpCancel()
		if err := httpServer.Shutdown(httpCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(httpCtx); err != nil {
				logger.Error("metrics server shutdown error", slog.String("error", err.Error()))
			}
		}
		if health != nil {
			health.stop(httpCtx)
		}

		// 4. Flush telemetry: metrics first, then traces.
		otelCtx, otelCancel := context.WithTimeout(context.Background(), domain.ShutdownOTELTimeout)
		defer otelCancel()
		if err := metricsProvider.Shutdown(otelCtx); err != nil {
			logger.Error("failed to shutdown metrics", slog.String("error", err.Error()))
		}
		if err := tracerProvider.Shutdown(otelCtx); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}

		logger.Info("shutdown complete")
		return nil
	})

	return g.Wait()
}

func newHTTPServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadHeaderTimeout: domain.ReadHeaderTimeout,
		ReadTimeout:       domain.ReadTimeout,
		WriteTimeout:      domain.WriteTimeout,
		IdleTimeout:       domain.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, ln net.Listener) error {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", ln.Addr(), err)
	}
	return nil
}

// bindListeners fills in every listener the caller did not inject.
// On failure, listeners bound here and injected ones are closed.
func bindListeners(ctx context.Context, cfg *config.Config, ls *Listeners) error {
	lc := &net.ListenConfig{}

	if ls.HTTP == nil {
		ln, err := lc.Listen(ctx, "tcp", cfg.HTTPAddr())
		if err != nil {
			ls.closeAll()
			return fmt.Errorf("listen on port %d: %w", cfg.Port, err)
		}
		ls.HTTP = ln
	}

	if ls.Metrics == nil && cfg.Metrics.Port != 0 {
		ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", cfg.Metrics.Port))
		if err != nil {
			ls.closeAll()
			return fmt.Errorf("listen on metrics port %d: %w", cfg.Metrics.Port, err)
		}
		ls.Metrics = ln
	}

	if ls.GRPC == nil && cfg.GRPC.Port != 0 {
		ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
		if err != nil {
			ls.closeAll()
			return fmt.Errorf("listen on grpc port %d: %w", cfg.GRPC.Port, err)
		}
		ls.GRPC = ln
	}

	return nil
}

func (ls *Listeners) closeAll() {
	for _, ln := range []net.Listener{ls.HTTP, ls.Metrics, ls.GRPC} {
		if ln != nil {
			_ = ln.Close()
		}
	}
}

func portOf(ln net.Listener) int {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
