// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"bytes"
	"context"
	"net/http"

	"github.com/pdiddy/arxiv-radar/internal/httputil"
)

// PingReport describes one diagnostic request against arXiv.
type PingReport struct {
	OK      bool   `json:"ok"`
	Mode    string `json:"mode"`
	URL     string `json:"url"`
	Status  int    `json:"status"`
	Length  int    `json:"length"`
	Preview string `json:"preview,omitempty"`

	// API mode.
	HasEntry     bool `json:"hasEntry,omitempty"`
	TotalResults int  `json:"totalResults,omitempty"`

	// HTML mode.
	AbsLinks    int    `json:"absIds,omitempty"`
	FirstAbsID  string `json:"firstAbsId,omitempty"`
	RateLimited bool   `json:"rateLimited,omitempty"`
}

// PingAPI requests one result for category, retrying 429 per policy.
func (c *Client) PingAPI(ctx context.Context, category string, policy httputil.RetryPolicy) (PingReport, error) {
	u := c.PageURL(PageRequest{Query: SearchQuery("cat:"+category, SortLastUpdated), Size: 1})
	report := PingReport{Mode: "api", URL: u}

	res, err := c.fetch(ctx, "ping", u, policy)
	if err != nil {
		return report, err
	}
	report.Status = res.status
	report.Length = len(res.body)
	report.Preview = truncate(string(res.body), snippetBytes)
	report.RateLimited = res.status == http.StatusTooManyRequests

	if res.status == http.StatusOK && len(res.body) >= minFeedBytes {
		if f, err := parseFeed(res.body); err == nil {
			report.HasEntry = len(f.Entries) > 0
			report.TotalResults = f.TotalResults
		}
	}
	report.OK = res.status == http.StatusOK && report.HasEntry
	return report, nil
}

// PingHTML requests the listing page, retrying 429 per policy.
func (c *Client) PingHTML(ctx context.Context, policy httputil.RetryPolicy) (PingReport, error) {
	report := PingReport{Mode: "html", URL: c.listingURL}

	res, err := c.fetch(ctx, "ping", c.listingURL, policy)
	if err != nil {
		return report, err
	}
	report.Status = res.status
	report.Length = len(res.body)
	report.Preview = truncate(string(res.body), snippetBytes)
	report.RateLimited = res.status == http.StatusTooManyRequests

	if res.status == http.StatusOK {
		if ids, err := ExtractListingIDs(bytes.NewReader(res.body)); err == nil && len(ids) > 0 {
			report.AbsLinks = len(ids)
			report.FirstAbsID = ids[0]
		}
	}
	report.OK = res.status == http.StatusOK && report.AbsLinks > 0
	return report, nil
}
