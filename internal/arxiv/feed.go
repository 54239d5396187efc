// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Atom feed structures. Repeated elements decode into slices, so a feed or
// entry carrying exactly one <entry>, <author> or <category> still yields a
// one-element list.
type feed struct {
	XMLName      xml.Name   `xml:"feed"`
	TotalResults int        `xml:"totalResults"`
	Entries      []RawEntry `xml:"entry"`
}

// RawEntry is one <entry> as returned by the search API.
type RawEntry struct {
	ID         string        `xml:"id"`
	Title      string        `xml:"title"`
	Summary    string        `xml:"summary"`
	Published  string        `xml:"published"`
	Updated    string        `xml:"updated"`
	Authors    []RawAuthor   `xml:"author"`
	Categories []RawCategory `xml:"category"`
}

// RawAuthor is an <author> element.
type RawAuthor struct {
	Name string `xml:"name"`
}

// RawCategory is a <category term="..."/> element.
type RawCategory struct {
	Term string `xml:"term,attr"`
}

// parseFeed decodes an Atom document.
func parseFeed(body []byte) (feed, error) {
	var f feed
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&f); err != nil {
		return feed{}, fmt.Errorf("parsing arXiv feed: %w", err)
	}
	return f, nil
}
