// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures for arxiv-radar: the
// canonical Paper record, run metadata written beside every paper set,
// fetch statistics, and the configuration tree.
package types

import (
	"strings"
	"time"
)

// PaperSource is the literal tag stored on every ingested paper.
const PaperSource = "arxiv"

// IDPrefix prefixes ArxivID to form the stable Paper.ID.
const IDPrefix = "arxiv-"

const (
	absURLBase = "https://arxiv.org/abs/"
	pdfURLBase = "https://arxiv.org/pdf/"
)

// Paper is the canonical record for one arXiv item.
type Paper struct {
	// ID is the stable identifier, IDPrefix + ArxivID (e.g. "arxiv-2501.01234v2").
	ID string `json:"id" yaml:"id"`

	// ArxivID is the upstream identifier including the optional version suffix,
	// either "NNNN.NNNNN[vK]" or "category/NNNNNNN[vK]".
	ArxivID string `json:"arxivId" yaml:"arxiv_id"`

	// Title and Abstract are single-line, entity-decoded text.
	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists author names in listing order. Not deduplicated.
	Authors []string `json:"authors" yaml:"authors"`

	// Categories lists topic tags in listing order. Not deduplicated.
	Categories []string `json:"categories" yaml:"categories"`

	PublishedAt time.Time `json:"publishedAt,omitzero" yaml:"published_at,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero" yaml:"updated_at,omitempty"`

	// SourceURL and PDFURL are derived from ArxivID; see URLsFor.
	SourceURL string `json:"sourceUrl" yaml:"source_url"`
	PDFURL    string `json:"pdfUrl" yaml:"pdf_url"`

	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// RecentAt returns max(UpdatedAt, PublishedAt). It is the only timestamp
// used for window membership and is never persisted.
func (p Paper) RecentAt() time.Time {
	if p.UpdatedAt.After(p.PublishedAt) {
		return p.UpdatedAt
	}
	return p.PublishedAt
}

// CanonicalArxivID returns ArxivID, falling back to ID without IDPrefix for
// records written before arxivId was stored.
func (p Paper) CanonicalArxivID() string {
	if p.ArxivID != "" {
		return p.ArxivID
	}
	return strings.TrimPrefix(p.ID, IDPrefix)
}

// WithDerivedURLs returns a copy of p whose SourceURL and PDFURL are
// regenerated from its arXiv identifier.
func (p Paper) WithDerivedURLs() Paper {
	p.SourceURL, p.PDFURL = URLsFor(p.CanonicalArxivID())
	return p
}

// HasDerivedURLs reports whether the stored URLs match the ones
// regenerated from the identifier.
func (p Paper) HasDerivedURLs() bool {
	src, pdf := URLsFor(p.CanonicalArxivID())
	return p.SourceURL == src && p.PDFURL == pdf
}

// URLsFor derives the abstract page and PDF URLs for an arXiv identifier.
func URLsFor(arxivID string) (sourceURL, pdfURL string) {
	return absURLBase + arxivID, pdfURLBase + arxivID + ".pdf"
}
