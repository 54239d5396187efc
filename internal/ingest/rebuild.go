// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/arxiv-radar/internal/observability"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// ErrInvalidOptions is returned for options that fail validation.
var ErrInvalidOptions = errors.New("invalid rebuild options")

// WindowFetcher runs one fetch strategy. *Fetcher implements it.
type WindowFetcher interface {
	FetchRecentWindowAPI(ctx context.Context, opts APIOptions) (Result, error)
	FetchRecentWindowHTML(ctx context.Context, opts HTMLOptions) (Result, error)
}

// PaperSetStore replaces the persisted paper set and its run metadata as
// one unit.
type PaperSetStore interface {
	Replace(ctx context.Context, papers []types.Paper, meta types.RunMetadata) error
}

// RebuildOptions selects the window and the source strategy.
type RebuildOptions struct {
	Days           int               `json:"days" validate:"min=1,max=365"`
	UseServerClock bool              `json:"useServerClock"`
	ForceSource    types.ForceSource `json:"forceSource" validate:"oneof=auto api html"`

	// DryRun fetches without persisting.
	DryRun bool `json:"dryRun"`
}

// RebuildResult reports a completed rebuild.
type RebuildResult struct {
	OK        bool              `json:"ok"`
	Count     int               `json:"count"`
	Stats     types.FetchStats  `json:"stats"`
	Meta      types.RunMetadata `json:"meta"`
	Persisted bool              `json:"persisted"`

	// Papers is the new paper set.
	Papers []types.Paper `json:"-"`
}

// Orchestrator rebuilds the recent-window paper set. Callers serialize
// rebuilds; two concurrent runs race on the store.
type Orchestrator struct {
	fetcher  WindowFetcher
	store    PaperSetStore
	cfg      types.IngestConfig
	version  string
	now      func() time.Time
	newRunID func() string
	metrics  *observability.Metrics
	log      zerolog.Logger
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithVersion stamps RunMetadata.Version.
func WithVersion(v string) OrchestratorOption {
	return func(o *Orchestrator) { o.version = v }
}

// WithClock replaces the clock used for lastFetchedAt.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// WithRunID replaces the run identifier generator.
func WithRunID(gen func() string) OrchestratorOption {
	return func(o *Orchestrator) { o.newRunID = gen }
}

// WithMetrics records rebuild outcomes on m.
func WithMetrics(m *observability.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger. The orchestrator adds component=rebuild.
func WithLogger(log zerolog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.log = observability.Component(log, "rebuild") }
}

// NewOrchestrator wires a fetcher and store. cfg supplies page size,
// batch size and pacing delays.
func NewOrchestrator(fetcher WindowFetcher, store PaperSetStore, cfg types.IngestConfig, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		fetcher:  fetcher,
		store:    store,
		cfg:      cfg,
		version:  "dev",
		now:      time.Now,
		newRunID: uuid.NewString,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DefaultOptions returns rebuild options from the ingest config.
func (o *Orchestrator) DefaultOptions() RebuildOptions {
	return RebuildOptions{
		Days:           o.cfg.Days,
		UseServerClock: o.cfg.UseServerClock,
		ForceSource:    o.cfg.ForceSource,
	}
}

var validate = validator.New()

// RebuildRecentNDays fetches the window using the strategy opts selects and
// replaces the stored paper set with the result. In auto mode the HTML
// fetcher runs only when the API fetcher keeps nothing, and its result is
// used instead; sources are never merged. Any fetch error aborts the
// rebuild before anything is written.
func (o *Orchestrator) RebuildRecentNDays(ctx context.Context, opts RebuildOptions) (RebuildResult, error) {
	if opts.ForceSource == "" {
		opts.ForceSource = types.ForceAuto
	}
	if err := validate.Struct(opts); err != nil {
		return RebuildResult{}, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	o.log.Info().
		Int("days", opts.Days).
		Bool("server_clock", opts.UseServerClock).
		Str("force_source", string(opts.ForceSource)).
		Bool("dry_run", opts.DryRun).
		Msg("rebuild starting")

	res, err := o.fetch(ctx, opts)
	if err != nil {
		o.metrics.RecordRebuild(string(opts.ForceSource), err, o.now())
		o.log.Error().Err(err).Msg("rebuild failed, nothing written")
		return RebuildResult{}, fmt.Errorf("rebuilding %d-day window: %w", opts.Days, err)
	}

	fetchedAt := o.now().UTC()
	meta := types.RunMetadata{
		RunID:           o.newRunID(),
		LastFetchedAt:   &fetchedAt,
		Count:           len(res.Papers),
		WindowDays:      opts.Days,
		BaseNowISO:      res.Stats.BaseNowISO,
		WindowStartISO:  res.Stats.WindowStartISO,
		UsedServerClock: res.Stats.UsedServerClock,
		Source:          res.Stats.Source,
		Version:         o.version,
	}
	result := RebuildResult{
		OK:     true,
		Count:  len(res.Papers),
		Stats:  res.Stats,
		Meta:   meta,
		Papers: res.Papers,
	}

	if opts.DryRun {
		o.log.Info().Int("count", result.Count).Msg("dry run, skipping persistence")
		return result, nil
	}

	if err := o.store.Replace(ctx, res.Papers, meta); err != nil {
		o.metrics.RecordRebuild(string(opts.ForceSource), err, fetchedAt)
		return RebuildResult{}, fmt.Errorf("persisting paper set: %w", err)
	}
	result.Persisted = true
	o.metrics.RecordRebuild(string(opts.ForceSource), nil, fetchedAt)
	o.log.Info().
		Int("count", result.Count).
		Str("source", string(meta.Source)).
		Str("run_id", meta.RunID).
		Msg("rebuild complete")
	return result, nil
}

func (o *Orchestrator) fetch(ctx context.Context, opts RebuildOptions) (Result, error) {
	switch opts.ForceSource {
	case types.ForceAPI:
		return o.fetchAPI(ctx, opts)
	case types.ForceHTML:
		return o.fetchHTML(ctx, opts)
	}

	res, err := o.fetchAPI(ctx, opts)
	if err != nil {
		return Result{}, err
	}
	if len(res.Papers) > 0 {
		return res, nil
	}
	o.log.Warn().Msg("API kept no papers, falling back to HTML listing")
	return o.fetchHTML(ctx, opts)
}

func (o *Orchestrator) fetchAPI(ctx context.Context, opts RebuildOptions) (Result, error) {
	return o.fetcher.FetchRecentWindowAPI(ctx, APIOptions{
		Days:           opts.Days,
		PageSize:       o.cfg.PageSize,
		Delay:          o.cfg.APIDelay,
		UseServerClock: opts.UseServerClock,
	})
}

func (o *Orchestrator) fetchHTML(ctx context.Context, opts RebuildOptions) (Result, error) {
	return o.fetcher.FetchRecentWindowHTML(ctx, HTMLOptions{
		Days:           opts.Days,
		BatchSize:      o.cfg.HTMLBatchSize,
		Delay:          o.cfg.HTMLDelay,
		UseServerClock: opts.UseServerClock,
	})
}
