// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"sort"

	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// Dedupe keeps the first paper seen for each arXiv identifier and returns
// the survivors in input order with the number removed.
func Dedupe(papers []types.Paper) ([]types.Paper, int) {
	seen := make(map[string]bool, len(papers))
	out := make([]types.Paper, 0, len(papers))
	removed := 0
	for _, p := range papers {
		key := p.CanonicalArxivID()
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out, removed
}

// SortByPublished orders papers newest first by PublishedAt. Ties keep
// their relative order.
func SortByPublished(papers []types.Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].PublishedAt.After(papers[j].PublishedAt)
	})
}

// finalize deduplicates and sorts a kept set.
func finalize(kept []types.Paper) []types.Paper {
	papers, _ := Dedupe(kept)
	SortByPublished(papers)
	return papers
}
