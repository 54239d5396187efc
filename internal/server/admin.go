// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/pdiddy/arxiv-radar/internal/arxiv"
	"github.com/pdiddy/arxiv-radar/internal/ingest"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

const (
	maxRequestBodySize = 1 << 20
	sampleIDCount      = 5
	defaultPingCat     = "cs.AI"
)

// rebuildRequest is the POST body for /api/admin/rebuild. Absent fields
// keep the configured defaults.
type rebuildRequest struct {
	Days           *int               `json:"days"`
	UseServerClock *bool              `json:"useServerClock"`
	ForceSource    *types.ForceSource `json:"forceSource"`
	DryRun         *bool              `json:"dryRun"`
}

func (req rebuildRequest) apply(opts *ingest.RebuildOptions) {
	if req.Days != nil {
		opts.Days = *req.Days
	}
	if req.UseServerClock != nil {
		opts.UseServerClock = *req.UseServerClock
	}
	if req.ForceSource != nil {
		opts.ForceSource = *req.ForceSource
	}
	if req.DryRun != nil {
		opts.DryRun = *req.DryRun
	}
}

func (s *Server) rebuildOptions(r *http.Request) (ingest.RebuildOptions, error) {
	opts := s.deps.Rebuilder.DefaultOptions()

	if r.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
		if err != nil {
			return opts, errors.New("failed to read request body")
		}
		if len(body) > 0 {
			var req rebuildRequest
			if err := json.Unmarshal(body, &req); err != nil {
				return opts, errors.New("invalid JSON request body")
			}
			req.apply(&opts)
		}
		return opts, nil
	}

	q := r.URL.Query()
	if v := q.Get("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New("days must be an integer")
		}
		opts.Days = d
	}
	if v := q.Get("useServerClock"); v != "" {
		opts.UseServerClock = v != "false"
	}
	if v := q.Get("forceSource"); v != "" {
		opts.ForceSource = types.ForceSource(v)
	}
	if v := q.Get("dryRun"); v != "" {
		opts.DryRun = v == "true" || v == "1"
	}
	return opts, nil
}

func (s *Server) rebuild(w http.ResponseWriter, r *http.Request) {
	opts, err := s.rebuildOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.rebuildMu.TryLock() {
		writeError(w, http.StatusConflict, "a rebuild is already running")
		return
	}
	defer s.rebuildMu.Unlock()

	// A dropped client must not abort a sweep that is already running.
	res, err := s.deps.Rebuilder.RebuildRecentNDays(context.WithoutCancel(r.Context()), opts)
	if errors.Is(err, ingest.ErrInvalidOptions) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("rebuild failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) repair(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Papers.Repair(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("repair failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"repairedCount": report.Repaired,
		"totalCount":    report.Total,
	})
}

func (s *Server) clock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Diagnostics.CompareClock(r.Context()))
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		report arxiv.PingReport
		err    error
	)
	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "api":
		cat := r.URL.Query().Get("cat")
		if cat == "" {
			cat = defaultPingCat
		}
		report, err = s.deps.Diagnostics.PingAPI(ctx, cat, s.deps.PingPolicy)
	case "html":
		report, err = s.deps.Diagnostics.PingHTML(ctx, s.deps.PingPolicy)
	default:
		writeError(w, http.StatusBadRequest, "mode must be api or html")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) debugHTML(w http.ResponseWriter, r *http.Request) {
	listing, err := s.deps.Diagnostics.FetchListingIDs(r.Context())

	var upstream *arxiv.UpstreamHTTPError
	if errors.As(err, &upstream) && upstream.StatusCode == http.StatusTooManyRequests {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":     false,
			"status": upstream.StatusCode,
			"msg":    "rate limited by arXiv",
			"advice": "use API mode: arxiv-radar rebuild --force-source api",
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	sample := listing.IDs
	if len(sample) > sampleIDCount {
		sample = sample[:sampleIDCount]
	}
	if sample == nil {
		sample = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"url":        listing.URL,
		"htmlLength": listing.Bytes,
		"totalIds":   len(listing.IDs),
		"sampleIds":  sample,
	})
}
