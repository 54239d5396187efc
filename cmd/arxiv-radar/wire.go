// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pdiddy/arxiv-radar/internal/arxiv"
	"github.com/pdiddy/arxiv-radar/internal/ingest"
	"github.com/pdiddy/arxiv-radar/internal/observability"
	"github.com/pdiddy/arxiv-radar/internal/store"
)

func newClient(metrics *observability.Metrics) *arxiv.Client {
	return arxiv.NewClient(appCfg.Arxiv,
		arxiv.WithLogger(logger),
		arxiv.WithMetrics(metrics),
	)
}

func openRepository(ctx context.Context) (*store.Repository, error) {
	docs, err := store.Open(ctx, appCfg.Store, logger)
	if err != nil {
		return nil, err
	}
	return store.NewRepository(docs, logger), nil
}

func newOrchestrator(client *arxiv.Client, repo *store.Repository, metrics *observability.Metrics) *ingest.Orchestrator {
	fetcher := ingest.NewFetcher(client,
		ingest.WithFetcherLogger(logger),
		ingest.WithFetcherMetrics(metrics),
	)
	return ingest.NewOrchestrator(fetcher, repo, appCfg.Ingest,
		ingest.WithVersion(version),
		ingest.WithLogger(logger),
		ingest.WithMetrics(metrics),
	)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
