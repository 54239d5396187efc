// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// atomEntry renders one <entry>. Empty dates are omitted.
type atomEntry struct {
	id         string
	title      string
	summary    string
	published  string
	updated    string
	authors    []string
	categories []string
}

func (e atomEntry) xml() string {
	var b strings.Builder
	b.WriteString("  <entry>\n")
	fmt.Fprintf(&b, "    <id>%s</id>\n", e.id)
	if e.updated != "" {
		fmt.Fprintf(&b, "    <updated>%s</updated>\n", e.updated)
	}
	if e.published != "" {
		fmt.Fprintf(&b, "    <published>%s</published>\n", e.published)
	}
	fmt.Fprintf(&b, "    <title>%s</title>\n", e.title)
	fmt.Fprintf(&b, "    <summary>%s</summary>\n", e.summary)
	for _, a := range e.authors {
		fmt.Fprintf(&b, "    <author><name>%s</name></author>\n", a)
	}
	for _, c := range e.categories {
		fmt.Fprintf(&b, "    <category term=\"%s\" scheme=\"http://arxiv.org/schemas/atom\"/>\n", c)
	}
	b.WriteString("  </entry>\n")
	return b.String()
}

func atomFeed(total int, entries ...atomEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">` + "\n")
	b.WriteString("  <title>arXiv Query</title>\n")
	fmt.Fprintf(&b, "  <opensearch:totalResults>%d</opensearch:totalResults>\n", total)
	b.WriteString("  <opensearch:startIndex>0</opensearch:startIndex>\n")
	for _, e := range entries {
		b.WriteString(e.xml())
	}
	b.WriteString("</feed>\n")
	return b.String()
}

func sampleEntry() atomEntry {
	return atomEntry{
		id:         "http://arxiv.org/abs/2506.01234v2",
		title:      "Sparse   Attention\n  for Graphs",
		summary:    "We study &amp;lt;sparse&amp;gt; attention.\n\nIt works.",
		published:  "2025-06-05T17:59:59Z",
		updated:    "2025-06-08T10:00:00Z",
		authors:    []string{"Ada Lovelace", "Alan Turing"},
		categories: []string{"cs.LG", "cs.AI"},
	}
}

// --- identifiers ---

func TestParseAbsURL(t *testing.T) {
	tests := []struct {
		in      string
		core    string
		version string
		ok      bool
	}{
		{"http://arxiv.org/abs/2506.01234v2", "2506.01234", "v2", true},
		{"http://arxiv.org/abs/2506.0123", "2506.0123", "", true},
		{"/abs/hep-th/9901001v1", "hep-th/9901001", "v1", true},
		{"http://arxiv.org/abs/math.GT/0309136", "math.GT/0309136", "", true},
		{"https://arxiv.org/pdf/2506.01234", "", "", false},
		{"http://arxiv.org/abs/garbage", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, ok := ParseAbsURL(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.core, id.Core)
			assert.Equal(t, tt.version, id.Version)
		})
	}
}

func TestValidateURL(t *testing.T) {
	assert.True(t, ValidateURL("https://arxiv.org/abs/2506.01234"))
	assert.True(t, ValidateURL("https://export.arxiv.org/api/query"))
	assert.True(t, ValidateURL("https://www.arxiv.org/pdf/2506.01234.pdf"))
	assert.False(t, ValidateURL("https://evil.example.com/abs/2506.01234"))
	assert.False(t, ValidateURL("/abs/2506.01234"))
	assert.False(t, ValidateURL("::not a url"))
}

// --- feed parsing ---

func TestParseFeed_SingleEntryIsAList(t *testing.T) {
	e := sampleEntry()
	e.authors = []string{"Solo Author"}
	e.categories = []string{"cs.CL"}

	f, err := parseFeed([]byte(atomFeed(1, e)))
	require.NoError(t, err)
	require.Len(t, f.Entries, 1)
	assert.Equal(t, 1, f.TotalResults)
	require.Len(t, f.Entries[0].Authors, 1)
	require.Len(t, f.Entries[0].Categories, 1)
	assert.Equal(t, "cs.CL", f.Entries[0].Categories[0].Term)
}

func TestParseFeed_NoEntries(t *testing.T) {
	f, err := parseFeed([]byte(atomFeed(0)))
	require.NoError(t, err)
	assert.Empty(t, f.Entries)
	assert.Zero(t, f.TotalResults)
}

func TestParseFeed_NotAFeed(t *testing.T) {
	_, err := parseFeed([]byte("<html><body>Service unavailable</body></html>"))
	assert.Error(t, err)
}

// --- normalization ---

func TestNormalizeEntry(t *testing.T) {
	f, err := parseFeed([]byte(atomFeed(1, sampleEntry())))
	require.NoError(t, err)
	require.Len(t, f.Entries, 1)

	p, rej := NormalizeEntry(f.Entries[0])
	require.Equal(t, RejectNone, rej)

	assert.Equal(t, "arxiv-2506.01234v2", p.ID)
	assert.Equal(t, "2506.01234v2", p.ArxivID)
	assert.Equal(t, "Sparse Attention for Graphs", p.Title)
	assert.Equal(t, "We study <sparse> attention. It works.", p.Abstract)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, p.Authors)
	assert.Equal(t, []string{"cs.LG", "cs.AI"}, p.Categories)
	assert.Equal(t, time.Date(2025, 6, 5, 17, 59, 59, 0, time.UTC), p.PublishedAt)
	assert.Equal(t, time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC), p.UpdatedAt)
	assert.Equal(t, "https://arxiv.org/abs/2506.01234v2", p.SourceURL)
	assert.Equal(t, "https://arxiv.org/pdf/2506.01234v2.pdf", p.PDFURL)
	assert.Equal(t, "arxiv", p.Source)
	assert.True(t, p.HasDerivedURLs())
}

func TestNormalizeEntry_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		entry RawEntry
		want  Rejection
	}{
		{
			name:  "unrecognized id",
			entry: RawEntry{ID: "http://example.com/paper/1", Published: "2025-06-05T00:00:00Z"},
			want:  RejectID,
		},
		{
			name:  "both dates unparseable",
			entry: RawEntry{ID: "http://arxiv.org/abs/2506.01234v1", Published: "yesterday", Updated: "not a date"},
			want:  RejectDates,
		},
		{
			name:  "both dates missing",
			entry: RawEntry{ID: "http://arxiv.org/abs/2506.01234v1"},
			want:  RejectDates,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rej := NormalizeEntry(tt.entry)
			assert.Equal(t, tt.want, rej)
			assert.Empty(t, p.ID)

			// Rejection is stable across repeated calls.
			_, again := NormalizeEntry(tt.entry)
			assert.Equal(t, tt.want, again)
		})
	}
}

func TestNormalizeEntry_OneDateSuffices(t *testing.T) {
	p, rej := NormalizeEntry(RawEntry{
		ID:      "http://arxiv.org/abs/2506.01234v1",
		Updated: "2025-06-09T00:00:00Z",
	})
	require.Equal(t, RejectNone, rej)
	assert.True(t, p.PublishedAt.IsZero())
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), p.RecentAt())
}

func TestNormalizeEntry_SkipsBlankAuthors(t *testing.T) {
	p, rej := NormalizeEntry(RawEntry{
		ID:         "http://arxiv.org/abs/cs/0701001v2",
		Published:  "2007-01-01T00:00:00Z",
		Authors:    []RawAuthor{{Name: "  "}, {Name: "Grace\n Hopper"}},
		Categories: []RawCategory{{Term: ""}, {Term: "cs.PL"}},
	})
	require.Equal(t, RejectNone, rej)
	assert.Equal(t, "cs/0701001v2", p.ArxivID)
	assert.Equal(t, []string{"Grace Hopper"}, p.Authors)
	assert.Equal(t, []string{"cs.PL"}, p.Categories)
}

func TestEntryRecency(t *testing.T) {
	tests := []struct {
		name  string
		entry RawEntry
		want  string
		ok    bool
	}{
		{"updated later", RawEntry{Published: "2025-06-01T00:00:00Z", Updated: "2025-06-03T00:00:00Z"}, "2025-06-03T00:00:00Z", true},
		{"published later", RawEntry{Published: "2025-06-04T00:00:00Z", Updated: "2025-06-03T00:00:00Z"}, "2025-06-04T00:00:00Z", true},
		{"only published", RawEntry{Published: "2025-06-01T00:00:00Z", Updated: "bad"}, "2025-06-01T00:00:00Z", true},
		{"neither", RawEntry{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EntryRecency(tt.entry)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format(time.RFC3339))
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", CleanText("  a\n\tb   c \r\n"))
	assert.Equal(t, "Tom & Jerry", CleanText("Tom &amp; Jerry"))
	assert.Equal(t, "", CleanText(" \n "))
}

// --- category partitioning ---

func TestBuildCategoryChunks(t *testing.T) {
	chunks := BuildCategoryChunks(CSCategories, SortSubmitted)
	require.Len(t, CSCategories, 40)
	require.Len(t, chunks, 4)

	for i, c := range chunks {
		assert.Equal(t, fmt.Sprintf("chunk-%d", i+1), c.Label)
		assert.Len(t, c.Categories, ChunkSize)
		assert.Contains(t, c.Query, "sortBy=submittedDate")
		assert.Contains(t, c.Query, "sortOrder=descending")
	}
	assert.Contains(t, chunks[0].Query, "search_query=cat%3Acs.AI+OR+cat%3Acs.AR")
	assert.Equal(t, "cs.SY", chunks[3].Categories[9])

	// Deterministic.
	assert.Equal(t, chunks, BuildCategoryChunks(CSCategories, SortSubmitted))
}

func TestBuildCategoryChunks_FallbackAndRemainder(t *testing.T) {
	cats := CSCategories[:13]
	chunks := BuildCategoryChunks(cats, SortLastUpdated)
	require.Len(t, chunks, 2)
	assert.Equal(t, "chunk-1-fallback", chunks[0].Label)
	assert.Equal(t, "chunk-2-fallback", chunks[1].Label)
	assert.Len(t, chunks[1].Categories, 3)
	assert.Contains(t, chunks[1].Query, "sortBy=lastUpdatedDate")

	assert.Empty(t, BuildCategoryChunks(nil, SortSubmitted))
}

func TestIDListQuery(t *testing.T) {
	assert.Equal(t, "id_list=2506.01234v1%2Ccs%2F0701001v2", IDListQuery([]string{"2506.01234v1", "cs/0701001v2"}))
}
