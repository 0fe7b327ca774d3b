// Package responder serves the public HTTP surface: a static HTML page on /
// and a plain-text liveness/readiness answer on /health.
package responder

import (
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/localdemo/docker-k8s-helm-local-demo/internal/domain"
)

// Responder holds the handlers. The only state is the drain flag, flipped
// once at shutdown; handlers are otherwise pure.
type Responder struct {
	logger   *slog.Logger
	draining atomic.Bool
}

// New creates a Responder that logs requests to logger.
func New(logger *slog.Logger) *Responder {
	return &Responder{logger: logger}
}

// Routes wires the chi router, its middleware, and both routes.
// Unknown paths fall through to chi's 404, wrong methods to 405.
func (rs *Responder) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(RequestID)
	r.Use(chimw.GetHead)
	r.Use(RequestLogger(rs.logger))

	r.Get("/", rs.Root)
	r.Get("/health", rs.Health)

	return r
}

// Drain makes /health report 503 from now on. Safe to call more than once.
func (rs *Responder) Drain() {
	rs.draining.Store(true)
}

// Draining reports whether Drain has been called.
func (rs *Responder) Draining() bool {
	return rs.draining.Load()
}

// Root handles GET /
func (rs *Responder) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, domain.RootHTML)
}

// Health handles GET /health
func (rs *Responder) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if rs.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, domain.DrainingBody)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, domain.HealthBody)
}
