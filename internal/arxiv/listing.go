// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// ExtractListingIDs returns every identifier referenced by an anchor whose
// href contains "/abs/<id>[vK]", deduplicated in order of first appearance.
func ExtractListingIDs(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing listing HTML: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		id, ok := ParseAbsURL(href)
		if !ok {
			return
		}
		key := id.String()
		if seen[key] {
			return
		}
		seen[key] = true
		ids = append(ids, key)
	})
	return ids, nil
}

// Listing is the scraped recent-items page.
type Listing struct {
	URL   string
	Bytes int
	IDs   []string
}

// FetchListingIDs downloads the configured listing page and extracts its
// identifiers. A non-200 status returns an *UpstreamHTTPError. A page that
// cannot be parsed yields no identifiers.
func (c *Client) FetchListingIDs(ctx context.Context) (Listing, error) {
	listing := Listing{URL: c.listingURL}

	body, err := c.get(ctx, "listing", c.listingURL, c.retry)
	if err != nil {
		return listing, err
	}
	listing.Bytes = len(body)

	ids, err := ExtractListingIDs(bytes.NewReader(body))
	if err != nil {
		c.log.Warn().Err(err).Msg("unparseable listing, treating as empty")
		return listing, nil
	}
	listing.IDs = ids
	c.log.Info().Int("bytes", len(body)).Int("ids", len(ids)).Msg("scraped listing")
	return listing, nil
}
