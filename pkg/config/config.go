// Package config handles loading and managing inkguard configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inkguard/inkguard/pkg/scoring"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// INKGUARD_PIPELINE_WORKERS=8.
const EnvPrefix = "INKGUARD"

// Config is the top-level configuration for inkguard.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Data     DataConfig     `mapstructure:"data"`
	Output   OutputConfig   `mapstructure:"output"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// DataConfig locates the raw marketplace dataset.
type DataConfig struct {
	Dir      string `mapstructure:"dir"`
	Products string `mapstructure:"products"`
	Reviews  string `mapstructure:"reviews"`
	Sellers  string `mapstructure:"sellers"`
}

// Path resolves a dataset file name against Dir unless it is absolute.
func (d DataConfig) Path(name string) string {
	if filepath.IsAbs(name) || d.Dir == "" {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// OutputConfig controls where batch results are written.
type OutputConfig struct {
	Dir        string `mapstructure:"dir"`
	Checkpoint string `mapstructure:"checkpoint"` // .db for SQLite, .jsonl for JSON lines
	Format     string `mapstructure:"format"`
}

// CheckpointPath resolves the checkpoint file against Dir unless it is absolute.
func (o OutputConfig) CheckpointPath() string {
	if filepath.IsAbs(o.Checkpoint) || o.Dir == "" {
		return o.Checkpoint
	}
	return filepath.Join(o.Dir, o.Checkpoint)
}

// PipelineConfig controls batch processing.
type PipelineConfig struct {
	Workers         int `mapstructure:"workers"`
	CheckpointEvery int `mapstructure:"checkpoint_every"`
	Limit           int `mapstructure:"limit"`       // 0 processes every listing
	MaxReviews      int `mapstructure:"max_reviews"` // 0 classifies every review with text
}

// LLMConfig configures the OpenAI-compatible language model endpoint.
type LLMConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	Model               string        `mapstructure:"model"`
	APIKey              string        `mapstructure:"api_key"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
	JSONMode            bool          `mapstructure:"json_mode"`
	MaxDescriptionChars int           `mapstructure:"max_description_chars"`
}

// ScoringConfig controls scoring behavior.
type ScoringConfig struct {
	PriceTable string                        `mapstructure:"price_table"` // YAML file; empty uses the built-in table
	Weights    map[string]map[string]float64 `mapstructure:"weights"`
}

// Overrides flattens the nested weights section into "group.name" keys.
func (s ScoringConfig) Overrides() map[string]float64 {
	out := make(map[string]float64)
	for group, vals := range s.Weights {
		for name, v := range vals {
			out[strings.ToLower(group+"."+name)] = v
		}
	}
	return out
}

// StorageConfig selects the artifact storage backend.
type StorageConfig struct {
	Backend  string `mapstructure:"backend"` // local, s3 or gcs
	LocalDir string `mapstructure:"local_dir"`
	Bucket   string `mapstructure:"bucket"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
	Prefix   string `mapstructure:"prefix"`

	// Static S3 credentials; empty uses the default AWS credential chain.
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// DatabaseConfig configures the Postgres assessment store.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	APIKey      string   `mapstructure:"api_key"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	CacheSize   int      `mapstructure:"cache_size"`
}

// ScheduleConfig configures scheduled batch runs in the daemon.
type ScheduleConfig struct {
	Cron     string `mapstructure:"cron"` // empty disables scheduled runs
	Timezone string `mapstructure:"timezone"`
}

// TelegramConfig configures alerts for suspicious listings.
type TelegramConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	BotToken          string `mapstructure:"bot_token"`
	ChatID            int64  `mapstructure:"chat_id"`
	MinInterpretation string `mapstructure:"min_interpretation"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		panic("default configuration does not decode: " + err.Error())
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.products", "products.json")
	v.SetDefault("data.reviews", "reviews.json")
	v.SetDefault("data.sellers", "sellers.json")

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.checkpoint", "checkpoint.db")
	v.SetDefault("output.format", "terminal")

	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.checkpoint_every", 10)
	v.SetDefault("pipeline.limit", 0)
	v.SetDefault("pipeline.max_reviews", 0)

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.json_mode", true)
	v.SetDefault("llm.max_description_chars", 1500)

	v.SetDefault("scoring.price_table", "")
	v.SetDefault("scoring.weights", map[string]any{})

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_dir", "output/artifacts")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")

	v.SetDefault("database.url", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.cache_size", 256)

	v.SetDefault("schedule.cron", "")
	v.SetDefault("schedule.timezone", "UTC")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.min_interpretation", "SUSPICIOUS")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Load reads a config file from the given path, overlaid with INKGUARD_*
// environment variables. If path is empty or the file does not exist, the
// defaults (plus environment) are returned.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return unmarshal(v)
}

// FindConfigFile looks for .inkguard/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".inkguard", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be one of: text, json")
	}

	switch c.Output.Format {
	case "terminal", "json", "yaml", "markdown":
	default:
		return fmt.Errorf("output.format must be one of: terminal, json, yaml, markdown")
	}
	if c.Output.Checkpoint == "" {
		return fmt.Errorf("output.checkpoint is required")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1")
	}
	if c.Pipeline.CheckpointEvery < 0 || c.Pipeline.Limit < 0 || c.Pipeline.MaxReviews < 0 {
		return fmt.Errorf("pipeline.checkpoint_every, pipeline.limit and pipeline.max_reviews must not be negative")
	}

	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir is required for the local backend")
		}
	case "s3", "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the %s backend", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("storage.backend must be one of: local, s3, gcs")
	}

	if c.Server.CacheSize < 0 {
		return fmt.Errorf("server.cache_size must not be negative")
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron is invalid: %w", err)
		}
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone is invalid: %w", err)
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if !knownInterpretation(c.Telegram.MinInterpretation) {
		return fmt.Errorf("telegram.min_interpretation %q is not a known interpretation", c.Telegram.MinInterpretation)
	}

	return nil
}

func knownInterpretation(s string) bool {
	for _, i := range scoring.Interpretations {
		if string(i) == s {
			return true
		}
	}
	return false
}
