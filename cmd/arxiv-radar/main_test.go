// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-radar/pkg/types"
)

func freshConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	viper.Reset()
	t.Cleanup(viper.Reset)
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	freshConfig(t)
	initConfig()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestLoadConfig_EnvOverridesNestedKeys(t *testing.T) {
	freshConfig(t)
	t.Setenv("ARXIV_RADAR_INGEST_DAYS", "3")
	t.Setenv("ARXIV_RADAR_INGEST_API_DELAY", "2s")
	t.Setenv("ARXIV_RADAR_INGEST_FORCE_SOURCE", "html")
	t.Setenv("ARXIV_RADAR_STORE_BACKEND", "sqlite")
	initConfig()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Ingest.Days)
	assert.Equal(t, 2*time.Second, cfg.Ingest.APIDelay)
	assert.Equal(t, types.ForceHTML, cfg.Ingest.ForceSource)
	assert.Equal(t, types.StoreSQLite, cfg.Store.Backend)
}

func TestLoadConfig_File(t *testing.T) {
	dir := freshConfig(t)
	yaml := "ingest:\n  page_size: 50\narxiv:\n  contact_email: ops@example.com\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arxiv-radar.yaml"), []byte(yaml), 0o644))
	initConfig()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Ingest.PageSize)
	assert.Equal(t, "arxiv-radar/0.1 (mailto:ops@example.com)", cfg.Arxiv.ResolvedUserAgent())
}

func TestLoadConfig_SecretsFillEmptyValues(t *testing.T) {
	dir := freshConfig(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".secrets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".secrets", "arxiv-user-agent"), []byte("radar-bot/2.0\n"), 0o600))
	initConfig()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "radar-bot/2.0", cfg.Arxiv.ResolvedUserAgent())
}

func TestLoadConfig_Invalid(t *testing.T) {
	freshConfig(t)
	t.Setenv("ARXIV_RADAR_INGEST_DAYS", "0")
	initConfig()

	_, err := loadConfig()
	assert.ErrorContains(t, err, "invalid configuration")
}
