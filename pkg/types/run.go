// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ForceSource is the caller's directive for which upstream strategy a
// rebuild may use.
type ForceSource string

const (
	ForceAuto ForceSource = "auto"
	ForceAPI  ForceSource = "api"
	ForceHTML ForceSource = "html"
)

// Strategy names the retrieval strategy that produced a paper set.
type Strategy string

const (
	StrategyAPI  Strategy = "api"
	StrategyHTML Strategy = "html+id_list"
)

// FetchStats describes one window fetch. Fields that do not apply to a
// strategy stay zero (chunk counts for HTML, id counts for API).
type FetchStats struct {
	Source     Strategy `json:"source" yaml:"source"`
	WindowDays int      `json:"windowDays" yaml:"window_days"`

	// API sweep counters.
	PageCount       int  `json:"pageCount" yaml:"page_count"`
	ChunksUsed      int  `json:"chunksUsed" yaml:"chunks_used"`
	CategoriesCount int  `json:"categoriesCount" yaml:"categories_count"`
	FallbackSweep   bool `json:"fallbackSweep" yaml:"fallback_sweep"`

	// HTML listing counters.
	TotalIDs int `json:"totalIds" yaml:"total_ids"`
	Batches  int `json:"batches" yaml:"batches"`

	TotalFetched int `json:"totalFetched" yaml:"total_fetched"`
	TotalKept    int `json:"totalKept" yaml:"total_kept"`

	BaseNowISO      string `json:"baseNowISO" yaml:"base_now_iso"`
	WindowStartISO  string `json:"windowStartISO" yaml:"window_start_iso"`
	UsedServerClock bool   `json:"usedServerClock" yaml:"used_server_clock"`
}

// RunMetadata is written beside every successful paper-set replacement and
// read by consumers to display staleness.
type RunMetadata struct {
	RunID           string     `json:"runId,omitempty" yaml:"run_id,omitempty"`
	LastFetchedAt   *time.Time `json:"lastFetchedAt" yaml:"last_fetched_at"`
	Count           int        `json:"count" yaml:"count"`
	WindowDays      int        `json:"windowDays" yaml:"window_days"`
	BaseNowISO      string     `json:"baseNowISO,omitempty" yaml:"base_now_iso,omitempty"`
	WindowStartISO  string     `json:"windowStartISO,omitempty" yaml:"window_start_iso,omitempty"`
	UsedServerClock bool       `json:"usedServerClock" yaml:"used_server_clock"`
	Source          Strategy   `json:"source,omitempty" yaml:"source,omitempty"`
	Version         string     `json:"version,omitempty" yaml:"version,omitempty"`
}
