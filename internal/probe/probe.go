// Package probe checks a running instance's /health endpoint from the
// outside. The healthcheck command uses it so a shell-less image can still
// declare a container HEALTHCHECK.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/localdemo/docker-k8s-helm-local-demo/internal/domain"
)

// maxBody bounds how much of the response is read.
const maxBody = 512

// Check issues GET url and succeeds only on 200 with body "ok".
// Any other outcome wraps domain.ErrUnhealthy.
func Check(ctx context.Context, client *http.Client, url string) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", domain.ErrUnhealthy, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnhealthy, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", domain.ErrUnhealthy, err)
	}

	got := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK || got != domain.HealthBody {
		return fmt.Errorf("%w: status %d, body %q", domain.ErrUnhealthy, resp.StatusCode, got)
	}

	return nil
}

// URL returns the health endpoint of an instance listening on port locally.
func URL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d/health", port)
}
