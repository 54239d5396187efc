// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"time"

	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// Window is the interval [Start, Now] a paper's recency must fall in.
type Window struct {
	Now   time.Time
	Start time.Time
	Days  int

	// ServerClock is true when Now came from the upstream Date header.
	ServerClock bool
}

// NewWindow anchors a window of days ending at now.
func NewWindow(now time.Time, days int) Window {
	now = now.UTC()
	return Window{
		Now:   now,
		Start: now.Add(-time.Duration(days) * 24 * time.Hour),
		Days:  days,
	}
}

// Contains reports whether t lies in the closed interval [Start, Now].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.Now)
}

// IsInWindow reports whether max(publishedAt, updatedAt) of p lies in w.
func (w Window) IsInWindow(p types.Paper) bool {
	return w.Contains(p.RecentAt())
}

// Keeps is the retention test used while fetching. Only the lower bound is
// checked.
func (w Window) Keeps(p types.Paper) bool {
	return !p.RecentAt().Before(w.Start)
}

func (w Window) stamp(stats *types.FetchStats) {
	stats.WindowDays = w.Days
	stats.BaseNowISO = w.Now.Format(isoMillis)
	stats.WindowStartISO = w.Start.Format(isoMillis)
	stats.UsedServerClock = w.ServerClock
}

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// resolveWindow picks the base time from the server clock probe or the
// local clock.
func (f *Fetcher) resolveWindow(ctx context.Context, days int, useServerClock bool) Window {
	if !useServerClock {
		w := NewWindow(f.now(), days)
		f.log.Info().Time("base_now", w.Now).Msg("using local clock")
		return w
	}

	reading := f.upstream.ServerNow(ctx)
	w := NewWindow(reading.ServerNow, days)
	w.ServerClock = reading.FromServer
	f.log.Info().
		Time("base_now", w.Now).
		Str("date_header", reading.DateHeader).
		Bool("from_server", reading.FromServer).
		Msg("using server clock")
	return w
}
