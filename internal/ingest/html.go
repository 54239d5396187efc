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

// HTMLOptions configures an HTML-window fetch.
type HTMLOptions struct {
	Days           int
	BatchSize      int
	Delay          time.Duration
	UseServerClock bool
}

// FetchRecentWindowHTML scrapes the recent listing for identifiers and
// fetches their metadata in id_list batches. A listing with no identifiers
// is an empty result, not an error.
func (f *Fetcher) FetchRecentWindowHTML(ctx context.Context, opts HTMLOptions) (Result, error) {
	log := observability.Component(f.log, "ingest.html")
	if opts.Days < 1 || opts.BatchSize < 1 {
		return Result{}, fmt.Errorf("%w: days %d, batch size %d", ErrInvalidOptions, opts.Days, opts.BatchSize)
	}

	w := f.resolveWindow(ctx, opts.Days, opts.UseServerClock)
	stats := types.FetchStats{Source: types.StrategyHTML}
	w.stamp(&stats)

	listing, err := f.upstream.FetchListingIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetching listing: %w", err)
	}
	stats.TotalIDs = len(listing.IDs)
	if len(listing.IDs) == 0 {
		log.Warn().Str("url", listing.URL).Msg("listing has no identifiers")
		return Result{Papers: []types.Paper{}, Stats: stats}, nil
	}

	batches := batchIDs(listing.IDs, opts.BatchSize)
	stats.Batches = len(batches)

	var kept []types.Paper
	for i, batch := range batches {
		page, err := f.upstream.FetchPage(ctx, arxiv.PageRequest{
			Query: arxiv.IDListQuery(batch),
			Size:  len(batch),
		})
		if err != nil {
			return Result{}, fmt.Errorf("batch %d of %d: %w", i+1, len(batches), err)
		}
		stats.TotalFetched += len(page.Entries)

		batchKept, rejected := f.normalize(log, page.Entries, w)
		kept = append(kept, batchKept...)
		log.Debug().
			Int("batch", i+1).
			Int("ids", len(batch)).
			Int("entries", len(page.Entries)).
			Int("kept", len(batchKept)).
			Int("rejected", rejected).
			Msg("batch processed")

		if i < len(batches)-1 {
			if err := f.sleep(ctx, opts.Delay); err != nil {
				return Result{}, err
			}
		}
	}

	papers := finalize(kept)
	stats.TotalKept = len(papers)
	f.metrics.KeepPapers(string(types.StrategyHTML), len(papers))
	log.Info().
		Int("ids", stats.TotalIDs).
		Int("batches", stats.Batches).
		Int("fetched", stats.TotalFetched).
		Int("kept", stats.TotalKept).
		Msg("HTML window fetch complete")
	return Result{Papers: papers, Stats: stats}, nil
}

func batchIDs(ids []string, size int) [][]string {
	var batches [][]string
	for i := 0; i < len(ids); i += size {
		batches = append(batches, ids[i:min(i+size, len(ids))])
	}
	return batches
}
