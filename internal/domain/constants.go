package domain

import "time"

// Fixed responses served by the responder.
const (
	// RepositoryURL is the walkthrough repository the root page links to.
	RepositoryURL = "https://github.com/localdemo/docker-k8s-helm-local-demo"

	// LinkText is the display text of the root page anchor.
	LinkText = "App 1 : docker-k8s-helm-local-demo"

	// RootHTML is the complete body of GET /.
	RootHTML = `<a href="` + RepositoryURL + `">` + LinkText + `</a>`

	// HealthBody is the body of GET /health while the process is serving.
	HealthBody = "ok"

	// DrainingBody is the body of GET /health once shutdown has begun.
	DrainingBody = "shutting down"
)

// DefaultPort is the listen port when PORT is not set. The Dockerfile,
// the Kubernetes manifests and the Helm chart all expose this port.
const DefaultPort = 6969

// HTTP server limits.
const (
	ReadHeaderTimeout = 5 * time.Second
	ReadTimeout       = 10 * time.Second
	WriteTimeout      = 10 * time.Second
	IdleTimeout       = 60 * time.Second
)

// Graceful shutdown. Drain + HTTP shutdown must fit inside the default
// Kubernetes terminationGracePeriodSeconds (30s).
const (
	ShutdownDrainDelay  = 5 * time.Second  // health reports 503 before listeners close
	ShutdownHTTPTimeout = 25 * time.Second // max time to finish in-flight requests
	ShutdownOTELTimeout = 5 * time.Second  // flush budget for metrics and traces
)

// ProbeTimeout bounds a single healthcheck command round trip.
const ProbeTimeout = 3 * time.Second
