package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidleathers/account-intelligence-backend/internal/infrastructure/config"
	"github.com/davidleathers/account-intelligence-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/account-intelligence-backend/internal/metrics"
	"github.com/davidleathers/account-intelligence-backend/internal/service/crossref"
)

var version = "0.1.0"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "crossref",
		Short: "Cross-source account intelligence",
		Long: `crossref correlates usage, support, survey, meeting and billing activity of
customer accounts and reports risk, health, root causes and recommended actions.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (default: "+config.DefaultPath+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newBatchCmd(opts))
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetVersionTemplate(fmt.Sprintf("crossref version %s\n", version))
	return cmd
}

// app carries the dependencies shared by every subcommand
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	otel     *telemetry.Provider
	analyzer crossref.Service
}

func setup(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return nil, err
	}

	provider, err := telemetry.InitializeOpenTelemetry(ctx, cfg.OTelConfig())
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	registry, err := metrics.NewRegistry("account-intelligence")
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics registry: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		otel:     provider,
		analyzer: crossref.NewService(logger, registry),
	}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.otel.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
