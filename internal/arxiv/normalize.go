// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"html"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// Rejection explains why NormalizeEntry dropped an entry.
type Rejection string

const (
	RejectNone  Rejection = ""
	RejectID    Rejection = "unrecognized identifier"
	RejectDates Rejection = "no parseable published or updated date"
)

// NormalizeEntry converts a raw feed entry into a canonical Paper. It
// returns the paper and RejectNone, or a zero Paper and the reason the
// entry cannot be used. It never fails the batch.
func NormalizeEntry(e RawEntry) (types.Paper, Rejection) {
	id, ok := ParseAbsURL(e.ID)
	if !ok {
		return types.Paper{}, RejectID
	}

	published, pubOK := parseTimestamp(e.Published)
	updated, updOK := parseTimestamp(e.Updated)
	if !pubOK && !updOK {
		return types.Paper{}, RejectDates
	}

	arxivID := id.String()
	sourceURL, pdfURL := types.URLsFor(arxivID)

	return types.Paper{
		ID:          types.IDPrefix + arxivID,
		ArxivID:     arxivID,
		Title:       CleanText(e.Title),
		Abstract:    CleanText(e.Summary),
		Authors:     authorNames(e.Authors),
		Categories:  categoryTerms(e.Categories),
		PublishedAt: published,
		UpdatedAt:   updated,
		SourceURL:   sourceURL,
		PDFURL:      pdfURL,
		Source:      types.PaperSource,
	}, RejectNone
}

// CleanText decodes HTML entities and collapses every whitespace run,
// newlines included, into a single space.
func CleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// EntryRecency returns max(updated, published) for a raw entry, reporting
// false when neither timestamp parses.
func EntryRecency(e RawEntry) (time.Time, bool) {
	published, pubOK := parseTimestamp(e.Published)
	updated, updOK := parseTimestamp(e.Updated)
	switch {
	case pubOK && updOK:
		if updated.After(published) {
			return updated, true
		}
		return published, true
	case updOK:
		return updated, true
	case pubOK:
		return published, true
	default:
		return time.Time{}, false
	}
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func authorNames(authors []RawAuthor) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := CleanText(a.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func categoryTerms(cats []RawCategory) []string {
	terms := make([]string, 0, len(cats))
	for _, c := range cats {
		if t := strings.TrimSpace(c.Term); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}
