// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv talks to the arXiv search API and recent-items listing. It
// fetches single feed pages, scrapes listing identifiers, probes the server
// clock and normalizes raw feed entries into canonical papers.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/arxiv-radar/internal/httputil"
	"github.com/pdiddy/arxiv-radar/internal/observability"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

const (
	// minFeedBytes is the smallest body treated as a feed. Shorter bodies
	// are degenerate responses and yield zero entries.
	minFeedBytes = 100

	// snippetBytes bounds the body excerpt carried by UpstreamHTTPError.
	snippetBytes = 500

	// maxBodyBytes caps how much of any upstream body is read.
	maxBodyBytes = 32 << 20
)

// UpstreamHTTPError reports a non-200 response from arXiv.
type UpstreamHTTPError struct {
	URL        string
	StatusCode int
	Snippet    string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("arXiv returned HTTP %d for %s: %s", e.StatusCode, e.URL, e.Snippet)
}

// Client issues requests to the arXiv API and listing page. Requests are
// sequential from the caller's point of view; the optional limiter only
// adds spacing on top of the caller's own pacing.
type Client struct {
	http       *http.Client
	apiBase    string
	listingURL string
	userAgent  string
	retry      httputil.RetryPolicy
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	log        zerolog.Logger
	now        func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger. The client adds component=arxiv.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = observability.Component(log, "arxiv") }
}

// WithMetrics records upstream requests on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock replaces the local wall clock used as the clock-probe fallback.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithRetryPolicy overrides the 429 retry schedule from config.
func WithRetryPolicy(p httputil.RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// NewClient builds a client from cfg.
func NewClient(cfg types.ArxivConfig, opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		apiBase:    cfg.APIBase,
		listingURL: cfg.ListingURL,
		userAgent:  cfg.ResolvedUserAgent(),
		retry:      httputil.RetryPolicy{Backoff: cfg.RetryBackoff},
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PageRequest selects one page of an encoded query.
type PageRequest struct {
	// Query is an encoded search_query or id_list query string.
	Query string
	Start int
	Size  int
}

// Page is one parsed page of API results.
type Page struct {
	Entries      []RawEntry
	TotalResults int
	URL          string
}

// PageURL returns the request URL for r.
func (c *Client) PageURL(r PageRequest) string {
	return fmt.Sprintf("%s?%s&start=%d&max_results=%d", c.apiBase, r.Query, r.Start, r.Size)
}

// FetchPage performs one search API request. A non-200 status returns an
// *UpstreamHTTPError. A short or unparseable body returns an empty page.
func (c *Client) FetchPage(ctx context.Context, r PageRequest) (Page, error) {
	u := c.PageURL(r)
	page := Page{URL: u}

	body, err := c.get(ctx, "api", u, c.retry)
	if err != nil {
		return page, err
	}

	if len(body) < minFeedBytes {
		c.log.Warn().Str("url", truncate(u, 200)).Int("bytes", len(body)).Msg("short feed body, treating as empty")
		return page, nil
	}

	f, err := parseFeed(body)
	if err != nil {
		c.log.Warn().Err(err).Str("url", truncate(u, 200)).Msg("unparseable feed, treating as empty")
		return page, nil
	}

	page.Entries = f.Entries
	page.TotalResults = f.TotalResults
	c.log.Debug().
		Str("url", truncate(u, 200)).
		Int("entries", len(page.Entries)).
		Int("total_results", page.TotalResults).
		Msg("fetched page")
	return page, nil
}

// get issues a GET and returns the body of a 200 response. Any other status
// becomes an *UpstreamHTTPError.
func (c *Client) get(ctx context.Context, endpoint, u string, policy httputil.RetryPolicy) ([]byte, error) {
	res, err := c.fetch(ctx, endpoint, u, policy)
	if err != nil {
		return nil, err
	}
	if res.status != http.StatusOK {
		return nil, &UpstreamHTTPError{
			URL:        u,
			StatusCode: res.status,
			Snippet:    truncate(string(res.body), snippetBytes),
		}
	}
	return res.body, nil
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// fetch issues a GET and returns whatever the server answered. Only
// transport failures are errors.
func (c *Client) fetch(ctx context.Context, endpoint, u string, policy httputil.RetryPolicy) (response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return response{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return response{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if endpoint != "listing" {
		req.Header.Set("Accept", "application/atom+xml")
	}

	started := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.http, req, policy, c.log)
	if err != nil {
		c.metrics.ObserveUpstream(endpoint, 0, time.Since(started))
		return response{}, fmt.Errorf("requesting %s: %w", truncate(u, 200), err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(endpoint, resp.StatusCode, time.Since(started))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, fmt.Errorf("reading %s: %w", truncate(u, 200), err)
	}
	return response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
