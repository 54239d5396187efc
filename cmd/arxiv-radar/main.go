// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxiv-radar CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-radar/internal/observability"
	"github.com/pdiddy/arxiv-radar/internal/secrets"
	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const secretsDir = ".secrets/"

// Process-wide state built once by the root command before any subcommand runs.
var (
	appCfg types.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "arxiv-radar",
	Short: "Maintain a rolling window of recent arXiv computer-science papers",
	Long: `arxiv-radar keeps a deduplicated, time-windowed set of recent arXiv cs.*
papers. It sweeps the arXiv search API by category chunk, falls back to the
recent-items listing page when the API returns nothing, and replaces the stored
paper set and its run metadata on every successful rebuild.

Subcommands run one rebuild, probe the upstream (clock, ping, listing, fetch),
inspect or repair the stored set, or serve it over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appCfg = cfg
		logger = observability.NewLogger(cfg.Logging, os.Stderr)
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("path", f).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./arxiv-radar.yaml or ~/.config/arxiv-radar/config.yaml)")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("store", "", "store backend: json, sqlite or postgres")
	pf.String("data-dir", "", "directory holding papers.json and meta.json")

	bindFlag("logging.level", "log-level")
	bindFlag("logging.format", "log-format")
	bindFlag("store.backend", "store")
	bindFlag("store.data_dir", "data-dir")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("arxiv-radar")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arxiv-radar"))
		}
	}

	viper.SetEnvPrefix("ARXIV_RADAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), types.DefaultConfig())

	_ = viper.ReadInConfig()
}

// setDefaults registers every config key so AutomaticEnv can override
// nested values during Unmarshal.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("arxiv.timeout", d.Arxiv.Timeout)
	v.SetDefault("arxiv.user_agent", d.Arxiv.UserAgent)
	v.SetDefault("arxiv.contact_email", d.Arxiv.ContactEmail)
	v.SetDefault("arxiv.api_base", d.Arxiv.APIBase)
	v.SetDefault("arxiv.listing_url", d.Arxiv.ListingURL)
	v.SetDefault("arxiv.rate_limit", d.Arxiv.RateLimit)
	if len(d.Arxiv.RetryBackoff) > 0 {
		v.SetDefault("arxiv.retry_backoff", d.Arxiv.RetryBackoff)
	} else {
		_ = v.BindEnv("arxiv.retry_backoff")
	}

	v.SetDefault("ingest.days", d.Ingest.Days)
	v.SetDefault("ingest.page_size", d.Ingest.PageSize)
	v.SetDefault("ingest.api_delay", d.Ingest.APIDelay)
	v.SetDefault("ingest.html_delay", d.Ingest.HTMLDelay)
	v.SetDefault("ingest.html_batch_size", d.Ingest.HTMLBatchSize)
	v.SetDefault("ingest.use_server_clock", d.Ingest.UseServerClock)
	v.SetDefault("ingest.force_source", string(d.Ingest.ForceSource))

	v.SetDefault("store.backend", string(d.Store.Backend))
	v.SetDefault("store.data_dir", d.Store.DataDir)
	v.SetDefault("store.overlay_dir", d.Store.OverlayDir)
	v.SetDefault("store.read_only", d.Store.ReadOnly)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("store.postgres_dsn", d.Store.PostgresDSN)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// loadConfig builds the validated config: defaults, config file,
// environment and flags through viper, then .secrets/ for anything still
// empty.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	bootLog := observability.NewLogger(cfg.Logging, os.Stderr)
	s, err := secrets.Load(secretsDir, bootLog)
	if err != nil {
		return cfg, err
	}
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		bootLog.Debug().Strs("keys", keys).Msg("loaded secrets")
	}
	secrets.Apply(&cfg, s)

	return cfg, cfg.Validate()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
