/*
Package config loads the server configuration.

SOURCES (later wins):
  1. Built-in defaults (Default)
  2. YAML file, when a path is given
  3. .env file in the working directory, if present (joho/godotenv)
  4. PENSION_* environment variables

ENVIRONMENT:
  PENSION_LISTEN_ADDR        server.listen_addr
  PENSION_ALLOWED_ORIGINS    server.allowed_origins (comma separated)
  PENSION_DB_PATH            database.path
  PENSION_MAX_DOCUMENT_SIZE  documents.max_size_bytes
  PENSION_SCHEDULER_ENABLED  scheduler.enabled
  PENSION_SCHEDULER_INTERVAL scheduler.interval

EXAMPLE (config.example.yaml):
  server:
    listen_addr: ":8080"
    read_timeout: 15s
  database:
    path: ./data/pension.db
  pension:
    full_rate_quarters: 160
    rate_ceiling_percent: "50"
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/pension-engine/pension"
	"gopkg.in/yaml.v3"
)

// Config is the whole server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Pension   PensionConfig   `yaml:"pension"`
	Documents DocumentsConfig `yaml:"documents"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig configures the HTTP listener. Timeouts are parsed from the raw strings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ReadTimeout     time.Duration `yaml:"-"`
	WriteTimeout    time.Duration `yaml:"-"`
	IdleTimeout     time.Duration `yaml:"-"`
	ReadTimeoutRaw  string        `yaml:"read_timeout"`
	WriteTimeoutRaw string        `yaml:"write_timeout"`
	IdleTimeoutRaw  string        `yaml:"idle_timeout"`
}

type DatabaseConfig struct {
	// Path of the SQLite file, or ":memory:".
	Path string `yaml:"path"`
}

// PensionConfig holds the calculation rules. Decimals are strings so YAML
// never rounds them through float64.
type PensionConfig struct {
	FullRateQuarters   int    `yaml:"full_rate_quarters"`
	RateCeilingPercent string `yaml:"rate_ceiling_percent"`
	BaseRate           string `yaml:"base_rate"`
	BaseRateDivisor    string `yaml:"base_rate_divisor"`
}

// DocumentsConfig limits document uploads.
type DocumentsConfig struct {
	MaxSizeBytes int64 `yaml:"max_size_bytes"`
}

// SchedulerConfig drives the monthly statistics scheduler.
type SchedulerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"-"`
	IntervalRaw string        `yaml:"interval"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			ReadTimeoutRaw:  "15s",
			WriteTimeoutRaw: "15s",
			IdleTimeoutRaw:  "60s",
		},
		Database: DatabaseConfig{Path: "pension.db"},
		Pension: PensionConfig{
			FullRateQuarters:   pension.DefaultFullRateQuarters,
			RateCeilingPercent: pension.DefaultRateCeiling,
			BaseRate:           pension.DefaultBaseRate,
			BaseRateDivisor:    pension.DefaultBaseRateDivisor,
		},
		Documents: DocumentsConfig{MaxSizeBytes: 10 << 20},
		Scheduler: SchedulerConfig{Enabled: true, IntervalRaw: "1h"},
	}
}

// Load reads the configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PENSION_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("PENSION_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("PENSION_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("PENSION_MAX_DOCUMENT_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: PENSION_MAX_DOCUMENT_SIZE: %w", err)
		}
		c.Documents.MaxSizeBytes = n
	}
	if v := os.Getenv("PENSION_SCHEDULER_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: PENSION_SCHEDULER_ENABLED: %w", err)
		}
		c.Scheduler.Enabled = b
	}
	if v := os.Getenv("PENSION_SCHEDULER_INTERVAL"); v != "" {
		c.Scheduler.IntervalRaw = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return errors.New("config: server.listen_addr must be set")
	}
	var err error
	if c.Server.ReadTimeout, err = parseDurationDefault(c.Server.ReadTimeoutRaw, 15*time.Second); err != nil {
		return fmt.Errorf("config: server.read_timeout: %w", err)
	}
	if c.Server.WriteTimeout, err = parseDurationDefault(c.Server.WriteTimeoutRaw, 15*time.Second); err != nil {
		return fmt.Errorf("config: server.write_timeout: %w", err)
	}
	if c.Server.IdleTimeout, err = parseDurationDefault(c.Server.IdleTimeoutRaw, 60*time.Second); err != nil {
		return fmt.Errorf("config: server.idle_timeout: %w", err)
	}

	if c.Database.Path == "" {
		return errors.New("config: database.path must be set")
	}

	if _, err := c.Pension.Rules(); err != nil {
		return err
	}

	if c.Documents.MaxSizeBytes <= 0 {
		return errors.New("config: documents.max_size_bytes must be positive")
	}

	if c.Scheduler.Interval, err = parseDurationDefault(c.Scheduler.IntervalRaw, time.Hour); err != nil {
		return fmt.Errorf("config: scheduler.interval: %w", err)
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return errors.New("config: scheduler.interval must be positive")
	}
	return nil
}

// Rules converts the section into calculation rules. Empty fields keep the
// defaults.
func (p PensionConfig) Rules() (pension.Rules, error) {
	rules := pension.DefaultRules()
	if p.FullRateQuarters != 0 {
		rules.FullRateQuarters = p.FullRateQuarters
	}

	var err error
	if p.RateCeilingPercent != "" {
		if rules.RateCeilingPercent, err = pension.ParseAmount("rate_ceiling_percent", p.RateCeilingPercent); err != nil {
			return pension.Rules{}, fmt.Errorf("config: pension: %w", err)
		}
	}
	if p.BaseRate != "" {
		if rules.BaseRate, err = pension.ParseAmount("base_rate", p.BaseRate); err != nil {
			return pension.Rules{}, fmt.Errorf("config: pension: %w", err)
		}
	}
	if p.BaseRateDivisor != "" {
		if rules.BaseRateDivisor, err = pension.ParseAmount("base_rate_divisor", p.BaseRateDivisor); err != nil {
			return pension.Rules{}, fmt.Errorf("config: pension: %w", err)
		}
	}

	if err := rules.Validate(); err != nil {
		return pension.Rules{}, fmt.Errorf("config: pension: %w", err)
	}
	return rules, nil
}

func parseDurationDefault(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	return time.ParseDuration(raw)
}
