package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/davidleathers/account-intelligence-backend/internal/infrastructure/archive"
	"github.com/davidleathers/account-intelligence-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/account-intelligence-backend/internal/service/crossref"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore, e.g. AIB_ANALYSIS__MAX_CORRELATIONS.
const EnvPrefix = "AIB_"

// DefaultPath is read when no explicit config file is given
const DefaultPath = "configs/config.yaml"

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment" validate:"oneof=development staging production test"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	Analysis  AnalysisConfig  `koanf:"analysis"`
	Batch     BatchConfig     `koanf:"batch"`
	Archive   ArchiveConfig   `koanf:"archive"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type AnalysisConfig struct {
	CorrelationThreshold        float64 `koanf:"correlation_threshold" validate:"gte=0,lte=1"`
	EnforceCorrelationThreshold bool    `koanf:"enforce_correlation_threshold"`
	MaxCorrelations             int     `koanf:"max_correlations" validate:"gte=1,lte=1000"`
	IncludeRootCause            bool    `koanf:"include_root_cause"`
	GenerateRecommendations     bool    `koanf:"generate_recommendations"`
}

type BatchConfig struct {
	InputDir    string        `koanf:"input_dir"`
	OutputDir   string        `koanf:"output_dir"`
	Concurrency int           `koanf:"concurrency" validate:"gte=1,lte=256"`
	FailFast    bool          `koanf:"fail_fast"`
	Timeout     time.Duration `koanf:"timeout" validate:"gte=0"`
}

// ArchiveConfig selects where batch results are written. The file provider
// writes into batch.output_dir.
type ArchiveConfig struct {
	Provider string `koanf:"provider" validate:"oneof=file s3"`
	Bucket   string `koanf:"bucket" validate:"required_if=Provider s3"`
	Prefix   string `koanf:"prefix"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
}

type TelemetryConfig struct {
	Enabled      bool          `koanf:"enabled"`
	ServiceName  string        `koanf:"service_name" validate:"required"`
	OTLPEndpoint string        `koanf:"otlp_endpoint" validate:"required_if=Enabled true"`
	Insecure     bool          `koanf:"insecure"`
	SamplingRate float64       `koanf:"sampling_rate" validate:"gte=0,lte=1"`
	Timeout      time.Duration `koanf:"timeout"`
}

type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url" validate:"omitempty,url"`
	JobName        string `koanf:"job_name" validate:"required"`
}

// Defaults returns the configuration used before any file or environment override
func Defaults() *Config {
	opts := crossref.DefaultOptions()
	return &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Analysis: AnalysisConfig{
			CorrelationThreshold:        opts.CorrelationThreshold,
			EnforceCorrelationThreshold: opts.EnforceCorrelationThreshold,
			MaxCorrelations:             opts.MaxCorrelations,
			IncludeRootCause:            opts.IncludeRootCause,
			GenerateRecommendations:     opts.GenerateRecommendations,
		},
		Batch: BatchConfig{
			OutputDir:   "out",
			Concurrency: 4,
		},
		Archive: ArchiveConfig{
			Provider: "file",
			Region:   "us-east-1",
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "account-intelligence",
			OTLPEndpoint: "localhost:4317",
			Insecure:     true,
			SamplingRate: 1.0,
			Timeout:      30 * time.Second,
		},
		Metrics: MetricsConfig{
			JobName: "account_intelligence_batch",
		},
	}
}

// Load layers defaults, the YAML file at path and AIB_ environment variables, in
// that order. An empty path reads DefaultPath; a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

var validate = validator.New()

// Validate checks field ranges and required values
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// AnalysisOptions maps the analysis section onto crossref options
func (c *Config) AnalysisOptions() crossref.Options {
	return crossref.Options{
		CorrelationThreshold:        c.Analysis.CorrelationThreshold,
		EnforceCorrelationThreshold: c.Analysis.EnforceCorrelationThreshold,
		MaxCorrelations:             c.Analysis.MaxCorrelations,
		IncludeRootCause:            c.Analysis.IncludeRootCause,
		GenerateRecommendations:     c.Analysis.GenerateRecommendations,
	}
}

// SinkConfig maps the archive and batch sections onto the result sink config
func (c *Config) SinkConfig() archive.Config {
	ac := archive.DefaultConfig()
	ac.Provider = c.Archive.Provider
	ac.Directory = c.Batch.OutputDir
	ac.Bucket = c.Archive.Bucket
	ac.Prefix = c.Archive.Prefix
	ac.Region = c.Archive.Region
	ac.Endpoint = c.Archive.Endpoint
	return ac
}

// OTelConfig maps the telemetry section onto the OpenTelemetry bootstrap config
func (c *Config) OTelConfig() *telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceName = c.Telemetry.ServiceName
	tc.ServiceVersion = c.Version
	tc.Environment = c.Environment
	tc.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	tc.Insecure = c.Telemetry.Insecure
	tc.Enabled = c.Telemetry.Enabled
	tc.SamplingRate = c.Telemetry.SamplingRate
	if c.Telemetry.Timeout > 0 {
		tc.ExportTimeout = c.Telemetry.Timeout
	}
	return tc
}
