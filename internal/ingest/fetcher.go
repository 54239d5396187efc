// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest builds the recent-window paper set. The API-window fetcher
// sweeps category chunks page by page; the HTML-window fetcher scrapes the
// listing and re-fetches metadata by id. The rebuild orchestrator chooses
// between them and persists the result.
package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/arxiv-radar/internal/arxiv"
	"github.com/pdiddy/arxiv-radar/internal/httputil"
	"github.com/pdiddy/arxiv-radar/internal/observability"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// Upstream is the subset of *arxiv.Client the fetchers use.
type Upstream interface {
	ServerNow(ctx context.Context) arxiv.ClockReading
	FetchPage(ctx context.Context, r arxiv.PageRequest) (arxiv.Page, error)
	FetchListingIDs(ctx context.Context) (arxiv.Listing, error)
}

// Result is a deduplicated, sorted paper set with the stats of the fetch
// that produced it.
type Result struct {
	Papers []types.Paper    `json:"papers"`
	Stats  types.FetchStats `json:"stats"`
}

// Fetcher runs window fetches against an Upstream. Every request is issued
// sequentially; no two upstream calls overlap.
type Fetcher struct {
	upstream   Upstream
	categories []string
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
	metrics    *observability.Metrics
	log        zerolog.Logger
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithCategories replaces the category catalog swept by the API fetcher.
func WithCategories(cats []string) FetcherOption {
	return func(f *Fetcher) { f.categories = cats }
}

// WithNow replaces the local clock.
func WithNow(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// WithSleep replaces the pacing pause.
func WithSleep(sleep func(context.Context, time.Duration) error) FetcherOption {
	return func(f *Fetcher) { f.sleep = sleep }
}

// WithFetcherMetrics records rejected entries and kept papers on m.
func WithFetcherMetrics(m *observability.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

// WithFetcherLogger sets the base logger.
func WithFetcherLogger(log zerolog.Logger) FetcherOption {
	return func(f *Fetcher) { f.log = log }
}

// NewFetcher creates a Fetcher over up.
func NewFetcher(up Upstream, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		upstream:   up,
		categories: arxiv.CSCategories,
		now:        time.Now,
		sleep:      httputil.Sleep,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// normalize converts raw entries and keeps those w retains. It returns the
// kept papers and the number rejected.
func (f *Fetcher) normalize(log zerolog.Logger, entries []arxiv.RawEntry, w Window) ([]types.Paper, int) {
	var kept []types.Paper
	rejected := 0
	for _, e := range entries {
		p, rej := arxiv.NormalizeEntry(e)
		if rej != arxiv.RejectNone {
			rejected++
			f.metrics.RejectEntry()
			log.Debug().Str("entry_id", e.ID).Str("reason", string(rej)).Msg("entry rejected")
			continue
		}
		if w.Keeps(p) {
			kept = append(kept, p)
		}
	}
	return kept, rejected
}

// pacer inserts a fixed pause before every request except the first.
type pacer struct {
	delay   time.Duration
	sleep   func(context.Context, time.Duration) error
	started bool
}

func (p *pacer) wait(ctx context.Context) error {
	if !p.started {
		p.started = true
		return nil
	}
	return p.sleep(ctx, p.delay)
}
