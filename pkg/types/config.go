// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultUserAgentBase is the product token sent to arXiv.
const DefaultUserAgentBase = "arxiv-radar/0.1"

// HTTPConfig holds shared HTTP settings used for every upstream request.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent overrides the User-Agent header entirely when set.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// ContactEmail is appended to the default User-Agent as a mailto: contact.
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty" mapstructure:"contact_email" validate:"omitempty,email"`
}

// ResolvedUserAgent returns UserAgent, or the default product token with
// ContactEmail attached, or the bare product token.
func (c HTTPConfig) ResolvedUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	if c.ContactEmail != "" {
		return fmt.Sprintf("%s (mailto:%s)", DefaultUserAgentBase, c.ContactEmail)
	}
	return DefaultUserAgentBase
}

// ArxivConfig holds upstream endpoints and request policy.
type ArxivConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIBase is the search endpoint (export.arxiv.org/api/query).
	APIBase string `json:"api_base" yaml:"api_base" mapstructure:"api_base" validate:"required,url"`

	// ListingURL is the "recent items" HTML listing page.
	ListingURL string `json:"listing_url" yaml:"listing_url" mapstructure:"listing_url" validate:"required,url"`

	// RateLimit caps upstream requests per second; 0 disables the limiter.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`

	// RetryBackoff lists waits before each retry of a 429 response. Empty
	// means 429 is returned to the caller like any other status.
	RetryBackoff []time.Duration `json:"retry_backoff,omitempty" yaml:"retry_backoff,omitempty" mapstructure:"retry_backoff"`
}

// IngestConfig holds defaults for window fetches and rebuilds.
type IngestConfig struct {
	// Days is the window length.
	Days int `json:"days" yaml:"days" mapstructure:"days" validate:"min=1,max=365"`

	// PageSize is the API page size per request.
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size" validate:"min=1,max=2000"`

	// APIDelay is the pause between API page requests.
	APIDelay time.Duration `json:"api_delay" yaml:"api_delay" mapstructure:"api_delay" validate:"gte=0"`

	// HTMLDelay is the pause between id_list batch requests.
	HTMLDelay time.Duration `json:"html_delay" yaml:"html_delay" mapstructure:"html_delay" validate:"gte=0"`

	// HTMLBatchSize is the number of identifiers per id_list request.
	HTMLBatchSize int `json:"html_batch_size" yaml:"html_batch_size" mapstructure:"html_batch_size" validate:"min=1,max=2000"`

	// UseServerClock anchors the window on the upstream Date header.
	UseServerClock bool `json:"use_server_clock" yaml:"use_server_clock" mapstructure:"use_server_clock"`

	// ForceSource selects auto, api or html.
	ForceSource ForceSource `json:"force_source" yaml:"force_source" mapstructure:"force_source" validate:"oneof=auto api html"`
}

// StoreBackend selects the document store implementation.
type StoreBackend string

const (
	StoreJSON     StoreBackend = "json"
	StoreSQLite   StoreBackend = "sqlite"
	StorePostgres StoreBackend = "postgres"
)

// StoreConfig holds persistence settings.
type StoreConfig struct {
	Backend StoreBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=json sqlite postgres"`

	// DataDir holds papers.json and meta.json for the json backend.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// OverlayDir receives writes when ReadOnly is set; reads prefer it.
	OverlayDir string `json:"overlay_dir" yaml:"overlay_dir" mapstructure:"overlay_dir"`

	// ReadOnly marks DataDir as unwritable (e.g. a deployed bundle).
	ReadOnly bool `json:"read_only" yaml:"read_only" mapstructure:"read_only"`

	SQLitePath  string `json:"sqlite_path" yaml:"sqlite_path" mapstructure:"sqlite_path"`
	PostgresDSN string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty" mapstructure:"postgres_dsn" validate:"required_if=Backend postgres"`
}

// ServerConfig holds HTTP server settings for the serve command.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=json console pretty"`
}

// Config groups all settings. It is built once at process start and passed
// into component constructors; nothing below cmd/ reads the environment.
type Config struct {
	Arxiv   ArxivConfig   `json:"arxiv" yaml:"arxiv" mapstructure:"arxiv"`
	Ingest  IngestConfig  `json:"ingest" yaml:"ingest" mapstructure:"ingest"`
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Arxiv: ArxivConfig{
			HTTPConfig: HTTPConfig{
				Timeout: 60 * time.Second,
			},
			APIBase:    "https://export.arxiv.org/api/query",
			ListingURL: "https://arxiv.org/list/cs/pastweek?show=2000",
		},
		Ingest: IngestConfig{
			Days:           7,
			PageSize:       200,
			APIDelay:       1200 * time.Millisecond,
			HTMLDelay:      800 * time.Millisecond,
			HTMLBatchSize:  100,
			UseServerClock: true,
			ForceSource:    ForceAuto,
		},
		Store: StoreConfig{
			Backend:    StoreJSON,
			DataDir:    "data",
			OverlayDir: "/tmp/arxiv-radar",
			SQLitePath: "data/arxiv-radar.db",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints across the whole tree.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
