// Package config loads the application configuration from an optional .env
// file, an optional barik.yaml file and BARIK_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dvloznov/barik-insights/internal/refdata"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "BARIK"

// Config holds every tunable of the commands.
type Config struct {
	LogLevel string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`

	GCSBucket    string `mapstructure:"gcs_bucket"`
	ExportPrefix string `mapstructure:"export_prefix"`

	BigQueryProject string `mapstructure:"bigquery_project"`
	BigQueryDataset string `mapstructure:"bigquery_dataset" validate:"required_with=BigQueryProject"`

	Recap       bool   `mapstructure:"recap"`
	GeminiModel string `mapstructure:"gemini_model" validate:"required_if=Recap true"`

	NotionToken      string `mapstructure:"notion_token"`
	NotionDatabaseID string `mapstructure:"notion_database_id" validate:"required_with=NotionToken"`

	APIPort        int      `mapstructure:"api_port" validate:"min=1,max=65535"`
	RateLimit      float64  `mapstructure:"rate_limit" validate:"gt=0"`
	RateBurst      int      `mapstructure:"rate_burst" validate:"min=1"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes" validate:"min=1024"`

	QueueBuffer int `mapstructure:"queue_buffer" validate:"min=1"`
	Workers     int `mapstructure:"workers" validate:"min=1,max=64"`
	MaxRetries  int `mapstructure:"max_retries" validate:"min=0"`

	TopN int `mapstructure:"top_n" validate:"min=1,max=100"`

	TariffsPath  string `mapstructure:"tariffs_path" validate:"omitempty,file"`
	MetroPath    string `mapstructure:"metro_path" validate:"omitempty,file"`
	BusLinesPath string `mapstructure:"buslines_path" validate:"omitempty,file"`
}

var defaults = map[string]any{
	"log_level":          "info",
	"gcs_bucket":         "",
	"export_prefix":      "exports",
	"bigquery_project":   "",
	"bigquery_dataset":   "barik",
	"recap":              false,
	"gemini_model":       "gemini-2.5-flash",
	"notion_token":       "",
	"notion_database_id": "",
	"api_port":           8080,
	"rate_limit":         5.0,
	"rate_burst":         10,
	"cors_origins":       []string{"*"},
	"max_upload_bytes":   int64(10 << 20),
	"queue_buffer":       100,
	"workers":            2,
	"max_retries":        3,
	"top_n":              10,
	"tariffs_path":       "",
	"metro_path":         "",
	"buslines_path":      "",
}

// Load reads the configuration. When path is empty a barik.yaml in the
// working directory is used if present.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("Load: reading %s: %w", path, err)
		}
	} else {
		v.SetConfigName("barik")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("Load: reading barik.yaml: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("Load: decoding config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("Validate: invalid config: %w", err)
	}
	return nil
}

// BigQueryEnabled reports whether results should be persisted to BigQuery.
func (c *Config) BigQueryEnabled() bool { return c.BigQueryProject != "" }

// GCSEnabled reports whether exports should be uploaded to Cloud Storage.
func (c *Config) GCSEnabled() bool { return c.GCSBucket != "" }

// NotionEnabled reports whether monthly buckets can be published to Notion.
func (c *Config) NotionEnabled() bool { return c.NotionToken != "" }

// RefdataOverrides returns the reference-data file overrides.
func (c *Config) RefdataOverrides() refdata.Overrides {
	return refdata.Overrides{
		TariffsPath:  c.TariffsPath,
		MetroPath:    c.MetroPath,
		BusLinesPath: c.BusLinesPath,
	}
}

// APIAddr is the listen address of the HTTP API.
func (c *Config) APIAddr() string { return fmt.Sprintf(":%d", c.APIPort) }
