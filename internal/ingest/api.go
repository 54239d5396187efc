// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/arxiv-radar/internal/arxiv"
	"github.com/pdiddy/arxiv-radar/internal/observability"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// APIOptions configures an API-window fetch.
type APIOptions struct {
	Days           int
	PageSize       int
	Delay          time.Duration
	UseServerClock bool
}

// FetchRecentWindowAPI sweeps every category chunk sorted by submission
// date and keeps entries whose recency is at or after the window start.
// When the whole sweep keeps nothing it sweeps again sorted by last-update
// date. Any upstream error aborts the fetch.
func (f *Fetcher) FetchRecentWindowAPI(ctx context.Context, opts APIOptions) (Result, error) {
	log := observability.Component(f.log, "ingest.api")
	if opts.Days < 1 || opts.PageSize < 1 {
		return Result{}, fmt.Errorf("%w: days %d, page size %d", ErrInvalidOptions, opts.Days, opts.PageSize)
	}

	w := f.resolveWindow(ctx, opts.Days, opts.UseServerClock)
	stats := types.FetchStats{Source: types.StrategyAPI, CategoriesCount: len(f.categories)}
	w.stamp(&stats)

	pace := &pacer{delay: opts.Delay, sleep: f.sleep}

	kept, err := f.sweep(ctx, arxiv.SortSubmitted, opts.PageSize, w, pace, &stats)
	if err != nil {
		return Result{}, err
	}
	log.Info().Int("kept", len(kept)).Int("pages", stats.PageCount).Msg("first sweep complete")

	if len(kept) == 0 {
		log.Warn().Msg("first sweep kept nothing, sweeping again by last update")
		stats.FallbackSweep = true
		kept, err = f.sweep(ctx, arxiv.SortLastUpdated, opts.PageSize, w, pace, &stats)
		if err != nil {
			return Result{}, err
		}
	}

	papers := finalize(kept)
	stats.TotalKept = len(papers)
	f.metrics.KeepPapers(string(types.StrategyAPI), len(papers))
	log.Info().
		Int("kept", stats.TotalKept).
		Int("fetched", stats.TotalFetched).
		Int("pages", stats.PageCount).
		Msg("API window fetch complete")
	return Result{Papers: papers, Stats: stats}, nil
}

// sweep pages through every chunk for one sort key.
func (f *Fetcher) sweep(ctx context.Context, sortBy arxiv.SortKey, pageSize int, w Window, pace *pacer, stats *types.FetchStats) ([]types.Paper, error) {
	chunks := arxiv.BuildCategoryChunks(f.categories, sortBy)
	stats.ChunksUsed = len(chunks)

	var kept []types.Paper
	for _, chunk := range chunks {
		log := observability.Component(f.log, "ingest.api").With().Str("chunk", chunk.Label).Logger()

		for start := 0; ; start += pageSize {
			if err := pace.wait(ctx); err != nil {
				return nil, err
			}

			page, err := f.upstream.FetchPage(ctx, arxiv.PageRequest{Query: chunk.Query, Start: start, Size: pageSize})
			stats.PageCount++
			if err != nil {
				return nil, fmt.Errorf("%s at offset %d: %w", chunk.Label, start, err)
			}
			if len(page.Entries) == 0 {
				log.Debug().Int("start", start).Msg("empty page, chunk done")
				break
			}
			stats.TotalFetched += len(page.Entries)

			pageKept, rejected := f.normalize(log, page.Entries, w)
			kept = append(kept, pageKept...)
			log.Debug().
				Int("start", start).
				Int("entries", len(page.Entries)).
				Int("kept", len(pageKept)).
				Int("rejected", rejected).
				Msg("page processed")

			if !morePages(page, start, pageSize, w) {
				break
			}
		}
	}
	return kept, nil
}

// morePages reports whether the chunk may still hold in-window entries
// after this page. Results are assumed newest first, so a tail entry older
// than the window start ends the chunk.
func morePages(page arxiv.Page, start, pageSize int, w Window) bool {
	last := page.Entries[len(page.Entries)-1]
	tail, ok := arxiv.EntryRecency(last)
	if !ok || tail.Before(w.Start) {
		return false
	}
	return start+pageSize < page.TotalResults
}
