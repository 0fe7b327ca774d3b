package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localdemo/docker-k8s-helm-local-demo/internal/domain"
	"github.com/localdemo/docker-k8s-helm-local-demo/internal/responder"
)

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"serve", "healthcheck", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	_, err := execute(t, context.Background(), "unexpected")

	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, context.Background(), "version")

	require.NoError(t, err)
	assert.Equal(t, "app "+getVersion()+"\n", out)
}

func TestGetVersion(t *testing.T) {
	v := getVersion()

	assert.NotEmpty(t, v)
	if v != "dev" && !strings.HasPrefix(v, "v") {
		t.Errorf("getVersion() = %q, want 'dev' or 'vX.Y.Z'", v)
	}
}

func TestGetVersion_Ldflags(t *testing.T) {
	orig := version
	t.Cleanup(func() { version = orig })

	version = "v9.9.9"

	assert.Equal(t, "v9.9.9", getVersion())
}

func TestHealthcheckCommand_Flags(t *testing.T) {
	cmd := newHealthcheckCmd()

	timeoutFlag := cmd.Flags().Lookup("timeout")
	require.NotNil(t, timeoutFlag)
	assert.Equal(t, domain.ProbeTimeout.String(), timeoutFlag.DefValue)

	urlFlag := cmd.Flags().Lookup("url")
	require.NotNil(t, urlFlag)
	assert.Empty(t, urlFlag.DefValue)
}

func TestHealthcheckCommand(t *testing.T) {
	rs := responder.New(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	srv := httptest.NewServer(rs.Routes())
	t.Cleanup(srv.Close)

	t.Run("healthy prints ok", func(t *testing.T) {
		out, err := execute(t, context.Background(), "healthcheck", "--url", srv.URL+"/health")

		require.NoError(t, err)
		assert.Equal(t, "ok\n", out)
	})

	t.Run("default url follows PORT", func(t *testing.T) {
		t.Setenv("PORT", strconv.Itoa(srv.Listener.Addr().(*net.TCPAddr).Port))

		out, err := execute(t, context.Background(), "healthcheck")

		require.NoError(t, err)
		assert.Equal(t, "ok\n", out)
	})

	t.Run("invalid PORT fails before probing", func(t *testing.T) {
		t.Setenv("PORT", "nope")

		_, err := execute(t, context.Background(), "healthcheck")

		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("draining instance is unhealthy", func(t *testing.T) {
		rs.Drain()

		_, err := execute(t, context.Background(), "healthcheck", "--url", srv.URL+"/health")

		assert.ErrorIs(t, err, domain.ErrUnhealthy)
	})
}

func TestHealthcheckCommand_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	begin := time.Now()
	_, err := execute(t, context.Background(), "healthcheck", "--url", srv.URL, "--timeout", "100ms")

	assert.ErrorIs(t, err, domain.ErrUnhealthy)
	assert.Less(t, time.Since(begin), 2*time.Second)
}

func TestServeCommand(t *testing.T) {
	ln, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	t.Setenv("PORT", strconv.Itoa(port))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("METRICS_PORT", "")
	t.Setenv("GRPC_PORT", "")
	t.Setenv("SHUTDOWN_DRAIN", "0s")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := execute(t, ctx, "serve")
		errCh <- err
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	assert.Eventually(t, func() bool {
		out, err := execute(t, context.Background(), "healthcheck", "--url", url)
		return err == nil && out == "ok\n"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}
