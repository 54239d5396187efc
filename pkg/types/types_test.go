// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaper_RecentAt(t *testing.T) {
	pub := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	upd := pub.Add(48 * time.Hour)

	assert.Equal(t, upd, Paper{PublishedAt: pub, UpdatedAt: upd}.RecentAt())
	assert.Equal(t, pub, Paper{PublishedAt: pub}.RecentAt())
	assert.Equal(t, upd, Paper{UpdatedAt: upd}.RecentAt())
}

func TestPaper_CanonicalArxivID(t *testing.T) {
	assert.Equal(t, "2501.01234v2", Paper{ID: "arxiv-other", ArxivID: "2501.01234v2"}.CanonicalArxivID())
	assert.Equal(t, "hep-th/9901001v1", Paper{ID: "arxiv-hep-th/9901001v1"}.CanonicalArxivID())
}

func TestPaper_DerivedURLs(t *testing.T) {
	p := Paper{ArxivID: "2501.01234v2", SourceURL: "https://example.com/x"}
	assert.False(t, p.HasDerivedURLs())

	fixed := p.WithDerivedURLs()
	assert.Equal(t, "https://arxiv.org/abs/2501.01234v2", fixed.SourceURL)
	assert.Equal(t, "https://arxiv.org/pdf/2501.01234v2.pdf", fixed.PDFURL)
	assert.True(t, fixed.HasDerivedURLs())
	assert.Equal(t, "https://example.com/x", p.SourceURL, "receiver is not modified")
}

func TestResolvedUserAgent(t *testing.T) {
	tests := []struct {
		name string
		cfg  HTTPConfig
		want string
	}{
		{"default", HTTPConfig{}, DefaultUserAgentBase},
		{"contact", HTTPConfig{ContactEmail: "ops@example.com"}, "arxiv-radar/0.1 (mailto:ops@example.com)"},
		{"override wins", HTTPConfig{UserAgent: "bot/1", ContactEmail: "ops@example.com"}, "bot/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ResolvedUserAgent())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Ingest.Days = 0
	assert.ErrorContains(t, cfg.Validate(), "invalid configuration")

	cfg = DefaultConfig()
	cfg.Arxiv.ContactEmail = "not-an-email"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Arxiv.APIBase = ""
	assert.Error(t, cfg.Validate())
}
