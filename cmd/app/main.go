// Command app runs the docker-k8s-helm-local-demo web service.
//
// Usage:
//
//	app                 Serve / and /health on $PORT (default 6969)
//	app serve           Same as above
//	app healthcheck     Probe a running instance; exit 1 when unhealthy
//	app version         Show version
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/localdemo/docker-k8s-helm-local-demo/internal/server"
)

const serviceName = "app"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   serviceName,
		Short: "Serve the docker-k8s-helm-local-demo web page",
		Long: `app answers two routes:

    GET /        an HTML link to the walkthrough repository
    GET /health  "ok" while serving, 503 once shutdown begins

Configuration comes from the environment (PORT, LOG_LEVEL, LOG_FORMAT,
METRICS_PORT, GRPC_PORT, OTEL_ENDPOINT, SHUTDOWN_DRAIN, SHUTDOWN_TIMEOUT).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newHealthcheckCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	return server.Run(ctx, server.Params{
		Name:    serviceName,
		Version: getVersion(),
	}, server.Listeners{})
}
