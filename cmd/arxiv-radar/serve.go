// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-radar/internal/httputil"
	"github.com/pdiddy/arxiv-radar/internal/observability"
	"github.com/pdiddy/arxiv-radar/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the paper set and admin operations over HTTP",
	Long: `Serve exposes the stored paper set (/api/papers, /api/meta), the
admin operations (/api/admin/rebuild, repair, clock, ping, debug-html) and
Prometheus metrics at /metrics. Rebuild triggers are serialized; a trigger
that arrives while one is running is refused with 409.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		appCfg.Server.Addr = addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	client := newClient(metrics)
	srv := server.New(appCfg.Server, server.Deps{
		Rebuilder:   newOrchestrator(client, repo, metrics),
		Papers:      repo,
		Diagnostics: client,
		Gatherer:    reg,
		PingPolicy:  httputil.DiagnosticPolicy(),
	}, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")

	rootCmd.AddCommand(serveCmd)
}
