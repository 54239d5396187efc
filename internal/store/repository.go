// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/arxiv-radar/internal/arxiv"
	"github.com/pdiddy/arxiv-radar/internal/observability"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// Repository reads and writes the paper set and run metadata on top of a
// DocumentStore. Callers serialize writers.
type Repository struct {
	docs DocumentStore
	log  zerolog.Logger
}

// NewRepository wraps docs.
func NewRepository(docs DocumentStore, log zerolog.Logger) *Repository {
	return &Repository{docs: docs, log: observability.Component(log, "store")}
}

// Close closes the underlying store.
func (r *Repository) Close() error { return r.docs.Close() }

// ReadPaperSet returns the stored papers. A missing set is empty. Source
// and PDF URLs are regenerated from each identifier, never trusted.
func (r *Repository) ReadPaperSet(ctx context.Context) ([]types.Paper, error) {
	papers, err := r.readRaw(ctx)
	if err != nil {
		return nil, err
	}
	for i := range papers {
		papers[i] = papers[i].WithDerivedURLs()
	}
	return papers, nil
}

func (r *Repository) readRaw(ctx context.Context) ([]types.Paper, error) {
	papers, err := Load[[]types.Paper](ctx, r.docs, KeyPapers)
	if errors.Is(err, ErrNotFound) {
		return []types.Paper{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading paper set: %w", err)
	}
	if papers == nil {
		papers = []types.Paper{}
	}
	return papers, nil
}

// WritePaperSet replaces the stored papers.
func (r *Repository) WritePaperSet(ctx context.Context, papers []types.Paper) error {
	if err := Save(ctx, r.docs, KeyPapers, prepare(papers)); err != nil {
		return fmt.Errorf("writing paper set: %w", err)
	}
	return nil
}

// ReadRunMetadata returns the stored metadata, or a zero-count record with
// no fetch time when none has been written.
func (r *Repository) ReadRunMetadata(ctx context.Context) (types.RunMetadata, error) {
	meta, err := Load[types.RunMetadata](ctx, r.docs, KeyMeta)
	if errors.Is(err, ErrNotFound) {
		return types.RunMetadata{}, nil
	}
	if err != nil {
		return types.RunMetadata{}, fmt.Errorf("reading run metadata: %w", err)
	}
	return meta, nil
}

// WriteRunMetadata replaces the stored metadata.
func (r *Repository) WriteRunMetadata(ctx context.Context, meta types.RunMetadata) error {
	if err := Save(ctx, r.docs, KeyMeta, meta); err != nil {
		return fmt.Errorf("writing run metadata: %w", err)
	}
	return nil
}

// Replace writes the paper set and then its metadata through one PutAll.
// Both documents are encoded before anything is written.
func (r *Repository) Replace(ctx context.Context, papers []types.Paper, meta types.RunMetadata) error {
	papersJSON, err := encode(prepare(papers))
	if err != nil {
		return fmt.Errorf("encoding paper set: %w", err)
	}
	metaJSON, err := encode(meta)
	if err != nil {
		return fmt.Errorf("encoding run metadata: %w", err)
	}

	if err := r.docs.PutAll(ctx, []Document{
		{Key: KeyPapers, Value: papersJSON},
		{Key: KeyMeta, Value: metaJSON},
	}); err != nil {
		return fmt.Errorf("replacing paper set: %w", err)
	}
	r.log.Info().Int("count", len(papers)).Str("source", string(meta.Source)).Msg("paper set replaced")
	return nil
}

// FindPaper returns the paper whose ID or arXiv identifier equals id.
func (r *Repository) FindPaper(ctx context.Context, id string) (types.Paper, error) {
	papers, err := r.ReadPaperSet(ctx)
	if err != nil {
		return types.Paper{}, err
	}
	for _, p := range papers {
		if p.ID == id || p.CanonicalArxivID() == id {
			return p, nil
		}
	}
	return types.Paper{}, fmt.Errorf("paper %s: %w", id, ErrNotFound)
}

// RepairReport summarizes a Repair run.
type RepairReport struct {
	Repaired int `json:"repairedCount"`
	Total    int `json:"totalCount"`
}

// Repair rewrites stored papers whose URLs are off the arXiv hosts or do
// not match their identifier, and re-normalizes title and abstract
// whitespace. The set is written back only when something changed.
func (r *Repository) Repair(ctx context.Context) (RepairReport, error) {
	papers, err := r.readRaw(ctx)
	if err != nil {
		return RepairReport{}, err
	}

	report := RepairReport{Total: len(papers)}
	for i, p := range papers {
		fixed := p
		if !arxiv.ValidateURL(p.SourceURL) || !arxiv.ValidateURL(p.PDFURL) || !p.HasDerivedURLs() {
			fixed = fixed.WithDerivedURLs()
		}
		if fixed.ArxivID == "" {
			fixed.ArxivID = fixed.CanonicalArxivID()
		}
		fixed.Title = arxiv.CleanText(p.Title)
		fixed.Abstract = arxiv.CleanText(p.Abstract)

		if !samePaper(p, fixed) {
			papers[i] = fixed
			report.Repaired++
			r.log.Debug().Str("id", p.ID).Msg("repaired paper")
		}
	}

	if report.Repaired == 0 {
		return report, nil
	}
	if err := r.WritePaperSet(ctx, papers); err != nil {
		return RepairReport{}, err
	}
	r.log.Info().Int("repaired", report.Repaired).Int("total", report.Total).Msg("repair complete")
	return report, nil
}

func samePaper(a, b types.Paper) bool {
	return a.ArxivID == b.ArxivID &&
		a.SourceURL == b.SourceURL &&
		a.PDFURL == b.PDFURL &&
		a.Title == b.Title &&
		a.Abstract == b.Abstract
}

// prepare returns a non-nil copy of papers with derived URLs.
func prepare(papers []types.Paper) []types.Paper {
	out := make([]types.Paper, len(papers))
	for i, p := range papers {
		out[i] = p.WithDerivedURLs()
	}
	return out
}
