package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/localdemo/docker-k8s-helm-local-demo/internal/config"
	"github.com/localdemo/docker-k8s-helm-local-demo/internal/domain"
	"github.com/localdemo/docker-k8s-helm-local-demo/internal/probe"
)

func newHealthcheckCmd() *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe /health of a running instance",
		Long: `healthcheck exits 0 when the instance answers 200 "ok" and 1 otherwise.
It needs no shell or curl, so it works as a HEALTHCHECK in distroless images:

    HEALTHCHECK CMD ["/app", "healthcheck"]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHealthcheck(cmd, url, timeout)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Health URL (default http://127.0.0.1:$PORT/health)")
	cmd.Flags().DurationVar(&timeout, "timeout", domain.ProbeTimeout, "Probe timeout")

	return cmd
}

func runHealthcheck(cmd *cobra.Command, url string, timeout time.Duration) error {
	if url == "" {
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		url = probe.URL(cfg.Port)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := probe.Check(ctx, &http.Client{}, url); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), domain.HealthBody)
	return nil
}
