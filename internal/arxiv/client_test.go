// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-radar/internal/httputil"
	"github.com/pdiddy/arxiv-radar/internal/observability"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

func testConfig(base string) types.ArxivConfig {
	return types.ArxivConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, ContactEmail: "ops@example.com"},
		APIBase:    base + "/api/query",
		ListingURL: base + "/list/cs/pastweek?show=2000",
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewClient(testConfig(ts.URL), append([]Option{WithHTTPClient(ts.Client())}, opts...)...)
}

func fastRetry(n int) httputil.RetryPolicy {
	backoff := make([]time.Duration, n)
	for i := range backoff {
		backoff[i] = time.Millisecond
	}
	return httputil.RetryPolicy{Backoff: backoff}
}

// --- FetchPage ---

func TestFetchPage(t *testing.T) {
	var gotQuery, gotUA string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(atomFeed(450, sampleEntry(), sampleEntry())))
	})

	page, err := c.FetchPage(context.Background(), PageRequest{
		Query: SearchQuery("cat:cs.AI", SortSubmitted),
		Start: 200,
		Size:  200,
	})
	require.NoError(t, err)

	assert.Len(t, page.Entries, 2)
	assert.Equal(t, 450, page.TotalResults)
	assert.Contains(t, page.URL, "/api/query?")
	assert.Contains(t, gotQuery, "start=200")
	assert.Contains(t, gotQuery, "max_results=200")
	assert.Contains(t, gotQuery, "search_query=cat%3Acs.AI")
	assert.Equal(t, "arxiv-radar/0.1 (mailto:ops@example.com)", gotUA)
}

func TestFetchPage_SingleEntry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(atomFeed(1, sampleEntry())))
	})

	page, err := c.FetchPage(context.Background(), PageRequest{Query: IDListQuery([]string{"2506.01234v2"}), Size: 100})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "http://arxiv.org/abs/2506.01234v2", page.Entries[0].ID)
}

func TestFetchPage_Non200SnippetKeepsRunesWhole(t *testing.T) {
	// 499 ASCII bytes put the 500-byte cut inside the two-byte "é".
	body := strings.Repeat("x", snippetBytes-1) + strings.Repeat("é", 10)
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(body))
	})

	_, err := c.FetchPage(context.Background(), PageRequest{Query: "search_query=all", Size: 10})
	var upErr *UpstreamHTTPError
	require.True(t, errors.As(err, &upErr))
	assert.True(t, utf8.ValidString(upErr.Snippet))
	assert.Equal(t, strings.Repeat("x", snippetBytes-1), upErr.Snippet)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "a", truncate("aé", 2))
	assert.Equal(t, "aé", truncate("aé", 3))
	assert.Equal(t, "", truncate("日本", 2))
}

func TestFetchPage_Non200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(strings.Repeat("x", 2000)))
	})

	_, err := c.FetchPage(context.Background(), PageRequest{Query: "search_query=all", Size: 10})
	require.Error(t, err)

	var upErr *UpstreamHTTPError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusServiceUnavailable, upErr.StatusCode)
	assert.Len(t, upErr.Snippet, 500)
	assert.Contains(t, upErr.URL, "max_results=10")
}

func TestFetchPage_DegenerateBodiesAreEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"short", "<feed></feed>"},
		{"html instead of feed", "<html><head><title>Down</title></head><body>" + strings.Repeat("please retry later ", 10) + "</body></html>"},
		{"truncated xml", `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><entry><id>http://arxiv.org/abs/2506.01234</id><title>Cut off mid-`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			})
			page, err := c.FetchPage(context.Background(), PageRequest{Query: "search_query=all", Size: 10})
			require.NoError(t, err)
			assert.Empty(t, page.Entries)
			assert.Zero(t, page.TotalResults)
		})
	}
}

func TestFetchPage_DefaultPolicyDoesNotRetry429(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.FetchPage(context.Background(), PageRequest{Query: "search_query=all", Size: 10})
	var upErr *UpstreamHTTPError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusTooManyRequests, upErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchPage_InjectedRetryPolicy(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(atomFeed(1, sampleEntry())))
	}, WithRetryPolicy(fastRetry(2)))

	page, err := c.FetchPage(context.Background(), PageRequest{Query: "search_query=all", Size: 10})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchPage_RecordsMetrics(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(atomFeed(0)))
	}, WithMetrics(m))

	_, err := c.FetchPage(context.Background(), PageRequest{Query: "search_query=all", Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("api", "200")))
}

func TestFetchPage_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	c := NewClient(testConfig(base))
	_, err := c.FetchPage(context.Background(), PageRequest{Query: "search_query=all", Size: 10})
	require.Error(t, err)
	var upErr *UpstreamHTTPError
	assert.False(t, errors.As(err, &upErr))
}

// --- clock ---

func TestServerNow_DateHeader(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Date", "Tue, 10 Jun 2025 00:00:00 GMT")
		w.Write([]byte(atomFeed(1, sampleEntry())))
	})

	reading := c.ServerNow(context.Background())
	assert.True(t, reading.FromServer)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), reading.ServerNow)
	assert.Equal(t, "Tue, 10 Jun 2025 00:00:00 GMT", reading.DateHeader)
	assert.Equal(t, http.StatusOK, reading.Status)
	assert.Contains(t, gotQuery, "max_results=1")
	assert.Contains(t, gotQuery, "sortBy=lastUpdatedDate")
}

func TestServerNow_MissingHeaderFallsBack(t *testing.T) {
	local := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header()["Date"] = nil
		w.WriteHeader(http.StatusOK)
	}, WithClock(func() time.Time { return local }))

	reading := c.ServerNow(context.Background())
	assert.False(t, reading.FromServer)
	assert.Equal(t, local, reading.ServerNow)
	assert.Equal(t, DateHeaderMissing, reading.DateHeader)
	assert.Equal(t, http.StatusOK, reading.Status)
}

func TestServerNow_ErrorFallsBack(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	local := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewClient(testConfig(base), WithClock(func() time.Time { return local }))

	reading := c.ServerNow(context.Background())
	assert.False(t, reading.FromServer)
	assert.Equal(t, local, reading.ServerNow)
	assert.Equal(t, DateHeaderError, reading.DateHeader)
	assert.Zero(t, reading.Status)
	assert.NotEmpty(t, reading.ProbeURL)
}

func TestCompareClock(t *testing.T) {
	local := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	m := observability.NewMetrics(prometheus.NewRegistry())
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Date", "Tue, 10 Jun 2025 00:01:30 GMT")
	}, WithClock(func() time.Time { return local }), WithMetrics(m))

	drift := c.CompareClock(context.Background())
	assert.Equal(t, int64(90_000), drift.DriftMs)
	assert.Equal(t, 1.5, drift.DriftMinutes)
	assert.Equal(t, local, drift.LocalNow)
	assert.Equal(t, 90.0, testutil.ToFloat64(m.ClockDrift))
}

// --- listing ---

const listingHTML = `<!DOCTYPE html>
<html><body>
<dl>
  <dt><a href="/abs/2506.01234" title="Abstract">arXiv:2506.01234</a>
      <a href="/pdf/2506.01234" title="Download PDF">pdf</a></dt>
  <dt><a href="/abs/2506.05555v3">arXiv:2506.05555</a></dt>
  <dt><a href="https://arxiv.org/abs/cs/0701001v2">old</a></dt>
  <dt><a href="/abs/2506.01234">duplicate</a></dt>
  <dt><a href="/list/cs/new">new</a> <a>no href</a></dt>
</dl>
</body></html>`

func TestExtractListingIDs(t *testing.T) {
	ids, err := ExtractListingIDs(strings.NewReader(listingHTML))
	require.NoError(t, err)
	assert.Equal(t, []string{"2506.01234", "2506.05555v3", "cs/0701001v2"}, ids)
}

func TestExtractListingIDs_NoLinks(t *testing.T) {
	ids, err := ExtractListingIDs(strings.NewReader("<html><body><p>No new submissions.</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFetchListingIDs(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(listingHTML))
	})

	listing, err := c.FetchListingIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/list/cs/pastweek", path)
	assert.Len(t, listing.IDs, 3)
	assert.Equal(t, len(listingHTML), listing.Bytes)
}

func TestFetchListingIDs_Non200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := c.FetchListingIDs(context.Background())
	var upErr *UpstreamHTTPError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
}

// --- ping ---

func TestPingAPI_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(atomFeed(12345, sampleEntry())))
	})

	report, err := c.PingAPI(context.Background(), "cs.LG", fastRetry(2))
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.True(t, report.HasEntry)
	assert.Equal(t, 12345, report.TotalResults)
	assert.Equal(t, "api", report.Mode)
	assert.Contains(t, report.URL, "cat%3Acs.LG")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPingAPI_StillRateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	report, err := c.PingAPI(context.Background(), "cs.AI", fastRetry(1))
	require.NoError(t, err)
	assert.False(t, report.OK)
	assert.True(t, report.RateLimited)
	assert.Equal(t, http.StatusTooManyRequests, report.Status)
}

func TestPingHTML(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(listingHTML))
	})

	report, err := c.PingHTML(context.Background(), httputil.RetryPolicy{})
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Equal(t, 3, report.AbsLinks)
	assert.Equal(t, "2506.01234", report.FirstAbsID)
}
