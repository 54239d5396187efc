// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/pdiddy/arxiv-radar/internal/httputil"
)

// Markers placed in ClockReading.DateHeader when the server time could not
// be read.
const (
	DateHeaderMissing = "(not available)"
	DateHeaderError   = "(error)"
)

// ClockReading is the result of a server clock probe.
type ClockReading struct {
	ServerNow  time.Time `json:"serverNow"`
	DateHeader string    `json:"dateHeader"`
	ProbeURL   string    `json:"probeUrl"`
	Status     int       `json:"status"`
	// FromServer is false when ServerNow is the local fallback.
	FromServer bool `json:"fromServer"`
}

// ProbeURL returns the minimal query used to read the server Date header.
func (c *Client) ProbeURL() string {
	return c.PageURL(PageRequest{
		Query: SearchQuery("cat:cs.AI", SortLastUpdated),
		Size:  1,
	})
}

// ServerNow probes the search endpoint and reads its Date header. It never
// fails: on a missing or unparseable header, or a transport error, it
// returns the local time with a marker in DateHeader.
func (c *Client) ServerNow(ctx context.Context) ClockReading {
	probe := c.ProbeURL()

	res, err := c.fetch(ctx, "clock", probe, httputil.RetryPolicy{})
	if err != nil {
		c.log.Warn().Err(err).Msg("clock probe failed, falling back to local time")
		return ClockReading{ServerNow: c.now().UTC(), DateHeader: DateHeaderError, ProbeURL: probe}
	}

	reading := ClockReading{ProbeURL: probe, Status: res.status}
	header := res.header.Get("Date")
	if header == "" {
		c.log.Warn().Int("status", res.status).Msg("no Date header, falling back to local time")
		reading.ServerNow = c.now().UTC()
		reading.DateHeader = DateHeaderMissing
		return reading
	}

	reading.DateHeader = header
	t, err := http.ParseTime(header)
	if err != nil {
		c.log.Warn().Str("date", header).Msg("unparseable Date header, falling back to local time")
		reading.ServerNow = c.now().UTC()
		return reading
	}

	reading.ServerNow = t.UTC()
	reading.FromServer = true
	c.log.Debug().Time("server_now", reading.ServerNow).Msg("read server clock")
	return reading
}

// ClockDrift compares the local clock against the server clock.
type ClockDrift struct {
	LocalNow time.Time    `json:"localNow"`
	Server   ClockReading `json:"server"`
	// DriftMs is server minus local, in milliseconds.
	DriftMs      int64   `json:"driftMs"`
	DriftMinutes float64 `json:"driftMinutes"`
}

// CompareClock reads the local clock and then probes the server.
func (c *Client) CompareClock(ctx context.Context) ClockDrift {
	local := c.now().UTC()
	reading := c.ServerNow(ctx)
	drift := reading.ServerNow.Sub(local)

	c.metrics.SetClockDrift(drift)
	return ClockDrift{
		LocalNow:     local,
		Server:       reading,
		DriftMs:      drift.Milliseconds(),
		DriftMinutes: math.Round(drift.Minutes()*100) / 100,
	}
}
