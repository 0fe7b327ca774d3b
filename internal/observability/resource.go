// Package observability sets up structured logging, OpenTelemetry tracing and
// metrics for the service. Providers are created once at startup by
// server.Run and shut down in reverse order.
package observability

import (
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Identity names the running service in logs and telemetry.
type Identity struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// newResource builds the OTel resource from service attributes only
// (resource.Default() would pull in a conflicting schema URL).
func newResource(id Identity) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(id.ServiceName),
		semconv.ServiceVersion(id.ServiceVersion),
		semconv.DeploymentEnvironment(id.Environment),
	)
}
