package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds configuration for the meter provider.
type MetricsConfig struct {
	Identity
	OTLPEndpoint string // Empty string disables OTLP export
}

// MetricsProvider wraps the SDK meter provider and the Prometheus registry
// its pull reader feeds.
type MetricsProvider struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry
}

// InitMetrics creates the meter provider and installs it as the OTel global.
// Instruments are always readable through Handler; with an endpoint they are
// also pushed over OTLP. The returned provider must be shut down on exit.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (*MetricsProvider, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	promReader, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus reader: %w", err)
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(newResource(cfg.Identity)),
		sdkmetric.WithReader(promReader),
	}

	if cfg.OTLPEndpoint != "" {
		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(), // in-cluster collector, plaintext
		)
		if err != nil {
			return nil, fmt.Errorf("create OTLP metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	provider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)

	return &MetricsProvider{provider: provider, registry: registry}, nil
}

// Provider exposes the provider for explicit instrumentation wiring.
func (mp *MetricsProvider) Provider() metric.MeterProvider {
	if mp.provider == nil {
		return otel.GetMeterProvider()
	}
	return mp.provider
}

// Handler serves the Prometheus text exposition of every instrument.
func (mp *MetricsProvider) Handler() http.Handler {
	if mp.registry == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(mp.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes pending metrics and stops the provider.
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	return mp.provider.Shutdown(ctx)
}
