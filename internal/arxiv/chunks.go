// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"fmt"
	"net/url"
	"strings"
)

// CSCategories is the fixed catalog of computer-science categories swept by
// the API window fetcher.
var CSCategories = []string{
	"cs.AI", "cs.AR", "cs.CC", "cs.CE", "cs.CG", "cs.CL", "cs.CR", "cs.CV", "cs.CY", "cs.DB",
	"cs.DC", "cs.DL", "cs.DM", "cs.DS", "cs.ET", "cs.FL", "cs.GL", "cs.GR", "cs.GT", "cs.HC",
	"cs.IR", "cs.IT", "cs.LG", "cs.LO", "cs.MA", "cs.MM", "cs.MS", "cs.NA", "cs.NE", "cs.NI",
	"cs.OH", "cs.OS", "cs.PF", "cs.PL", "cs.RO", "cs.SC", "cs.SD", "cs.SE", "cs.SI", "cs.SY",
}

// ChunkSize is the maximum number of categories OR-ed into one query.
const ChunkSize = 10

// SortKey is the upstream sortBy value.
type SortKey string

const (
	SortSubmitted   SortKey = "submittedDate"
	SortLastUpdated SortKey = "lastUpdatedDate"
)

// QueryChunk is one upstream search covering up to ChunkSize categories.
// Query is an encoded query string without pagination parameters.
type QueryChunk struct {
	Query      string
	Label      string
	Categories []string
}

// BuildCategoryChunks partitions categories into groups of ChunkSize, each
// expressed as one OR query sorted by sortBy, newest first. The result is
// deterministic for a given input.
func BuildCategoryChunks(categories []string, sortBy SortKey) []QueryChunk {
	var chunks []QueryChunk
	for i := 0; i < len(categories); i += ChunkSize {
		end := min(i+ChunkSize, len(categories))
		cats := categories[i:end]

		terms := make([]string, len(cats))
		for j, c := range cats {
			terms[j] = "cat:" + c
		}

		label := fmt.Sprintf("chunk-%d", len(chunks)+1)
		if sortBy == SortLastUpdated {
			label += "-fallback"
		}
		chunks = append(chunks, QueryChunk{
			Query:      SearchQuery(strings.Join(terms, " OR "), sortBy),
			Label:      label,
			Categories: append([]string(nil), cats...),
		})
	}
	return chunks
}

// SearchQuery encodes a search expression with a descending sort.
func SearchQuery(expr string, sortBy SortKey) string {
	v := url.Values{}
	v.Set("search_query", expr)
	v.Set("sortBy", string(sortBy))
	v.Set("sortOrder", "descending")
	return v.Encode()
}

// IDListQuery encodes an explicit id_list query, bypassing category search.
func IDListQuery(ids []string) string {
	v := url.Values{}
	v.Set("id_list", strings.Join(ids, ","))
	return v.Encode()
}
