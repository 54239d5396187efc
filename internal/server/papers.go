// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/arxiv-radar/internal/ingest"
	"github.com/pdiddy/arxiv-radar/internal/store"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// Search modes for GET /api/papers.
const (
	ModeTitle    = "title"
	ModeAuthor   = "author"
	ModeFulltext = "fulltext"
)

// allowedDays are the day filters the listing accepts; anything else is 7.
var allowedDays = []int{1, 3, 7}

type papersResponse struct {
	Papers []types.Paper      `json:"papers"`
	Total  int                `json:"total"`
	Meta   *types.RunMetadata `json:"meta"`
}

// PaperFilter narrows a paper listing. Zero values match everything.
type PaperFilter struct {
	Query    string
	Mode     string
	Category string
	Days     int
	Limit    int
}

func parseFilter(r *http.Request) (PaperFilter, error) {
	q := r.URL.Query()
	f := PaperFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		Mode:     q.Get("mode"),
		Category: q.Get("category"),
	}
	if q.Has("days") {
		d, _ := strconv.Atoi(q.Get("days"))
		if !slices.Contains(allowedDays, d) {
			d = 7
		}
		f.Days = d
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}

// matches reports whether p passes the text and category parts of f.
func (f PaperFilter) matches(p types.Paper) bool {
	if f.Category != "" && !slices.Contains(p.Categories, f.Category) {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	inTitle := strings.Contains(strings.ToLower(p.Title), q)
	inAuthors := slices.ContainsFunc(p.Authors, func(a string) bool {
		return strings.Contains(strings.ToLower(a), q)
	})
	switch f.Mode {
	case ModeAuthor:
		return inAuthors
	case ModeFulltext:
		return inTitle || inAuthors || strings.Contains(strings.ToLower(p.Abstract), q)
	default:
		return inTitle
	}
}

// Apply returns the papers in order that pass f. A day filter is measured
// back from now.
func (f PaperFilter) Apply(papers []types.Paper, now time.Time) []types.Paper {
	var window *ingest.Window
	if f.Days > 0 {
		w := ingest.NewWindow(now.UTC(), f.Days)
		window = &w
	}

	out := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if window != nil && !window.IsInWindow(p) {
			continue
		}
		if !f.matches(p) {
			continue
		}
		out = append(out, p)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

func (s *Server) listPapers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	papers, err := s.deps.Papers.ReadPaperSet(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reading paper set")
		writeError(w, http.StatusInternalServerError, "failed to read papers")
		return
	}
	meta, err := s.deps.Papers.ReadRunMetadata(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reading run metadata")
		writeError(w, http.StatusInternalServerError, "failed to read metadata")
		return
	}

	out := filter.Apply(papers, s.now())
	writeJSON(w, http.StatusOK, papersResponse{Papers: out, Total: len(out), Meta: &meta})
}

// getPaper looks a paper up by the rest of the path, so legacy identifiers
// such as hep-th/9901001v1 work with or without an escaped slash.
func (s *Server) getPaper(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || id == "" {
		writeError(w, http.StatusNotFound, "paper not found")
		return
	}
	p, err := s.deps.Papers.FindPaper(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "paper not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("finding paper")
		writeError(w, http.StatusInternalServerError, "failed to read papers")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := s.deps.Papers.ReadRunMetadata(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("reading run metadata")
		writeError(w, http.StatusInternalServerError, "failed to read metadata")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}
