// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and FLYERHUB_ environment variables on top.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultReservedBusinessNames are names no user may register.
var DefaultReservedBusinessNames = []string{
	"patel brothers",
	"taj mahal restaurant",
	"india bazaar",
	"bombay spice",
	"delhi palace",
	"krishna groceries",
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the sqlite file for snapshots. Empty keeps snapshots in memory.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the snapshot save queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of save workers.
	WorkerCount int `koanf:"worker_count"`

	// FlushSchedule is a cron spec for the periodic full flush.
	FlushSchedule string `koanf:"flush_schedule"`

	// DedupeTTLSeconds is how long a flyer submission id is remembered.
	DedupeTTLSeconds int `koanf:"dedupe_ttl_seconds"`

	// FreePostingsPerMonth is the free-tier size.
	FreePostingsPerMonth int `koanf:"free_postings_per_month"`

	// PostingPrice is the overage price as a decimal string.
	PostingPrice string `koanf:"posting_price"`

	// QuotaYearAware compares year and month when rolling the quota over.
	QuotaYearAware bool `koanf:"quota_year_aware"`

	// SeedFlyersFile is a YAML catalog loaded when no catalog snapshot exists.
	SeedFlyersFile string `koanf:"seed_flyers_file"`

	// ReservedBusinessNames cannot be registered by anyone.
	ReservedBusinessNames []string `koanf:"reserved_business_names"`

	// MetricsNamespace prefixes every Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsLabels are constant labels attached to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		QueueSize:             1024,
		WorkerCount:           2,
		FlushSchedule:         "@every 1m",
		DedupeTTLSeconds:      86400,
		FreePostingsPerMonth:  5,
		PostingPrice:          "5.99",
		QuotaYearAware:        true,
		ReservedBusinessNames: append([]string(nil), DefaultReservedBusinessNames...),
		MetricsNamespace:      "flyerhub",
	}
}

// Validate checks the values Load cannot coerce.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.MetricsNamespace) == "" {
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	}
	if c.FreePostingsPerMonth < 0 {
		return fmt.Errorf("%w: free_postings_per_month must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Price(); err != nil {
		return err
	}
	return nil
}

// Price parses PostingPrice.
func (c *Config) Price() (decimal.Decimal, error) {
	p, err := decimal.NewFromString(strings.TrimSpace(c.PostingPrice))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: posting_price %q: %w", ErrInvalidConfig, c.PostingPrice, err)
	}
	if p.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: posting_price must not be negative", ErrInvalidConfig)
	}
	return p, nil
}

// DedupeTTL returns DedupeTTLSeconds as a duration.
func (c *Config) DedupeTTL() time.Duration {
	return time.Duration(c.DedupeTTLSeconds) * time.Second
}
