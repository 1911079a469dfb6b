package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidleathers/account-intelligence-backend/internal/batch"
	"github.com/davidleathers/account-intelligence-backend/internal/infrastructure/archive"
)

type batchOptions struct {
	outputDir   string
	concurrency int
	failFast    bool
	summary     bool
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch [input]",
		Short: "Analyze every timeline document in a directory",
		Long: `Analyze every *.json timeline in the input directory (or a single file) and
store one result per account. The input defaults to batch.input_dir from the
configuration. Results go to batch.output_dir or to S3, depending on
archive.provider.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, root)
			if err != nil {
				return err
			}
			defer a.close()

			flags := cmd.Flags()
			if flags.Changed("output-dir") {
				a.cfg.Batch.OutputDir = opts.outputDir
			}
			if flags.Changed("concurrency") {
				a.cfg.Batch.Concurrency = opts.concurrency
			}
			if flags.Changed("fail-fast") {
				a.cfg.Batch.FailFast = opts.failFast
			}

			input := a.cfg.Batch.InputDir
			if len(args) == 1 {
				input = args[0]
			}
			if input == "" {
				return fmt.Errorf("no input given: pass a path or set batch.input_dir")
			}

			summary, err := runBatch(ctx, a, input)
			if summary != nil && opts.summary {
				if werr := writeJSON(cmd.OutOrStdout(), summary); werr != nil {
					return werr
				}
			}
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d accounts failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for results of the file provider (overrides batch.output_dir)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "Accounts analyzed in parallel (overrides batch.concurrency)")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Abort the run at the first failed account")
	cmd.Flags().BoolVar(&opts.summary, "summary", true, "Print the run summary as JSON")
	return cmd
}

func runBatch(ctx context.Context, a *app, input string) (*batch.Summary, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	paths, err := batch.Discover(input)
	if err != nil {
		return nil, err
	}

	sink, err := archive.NewSink(ctx, a.cfg.SinkConfig(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("creating result sink: %w", err)
	}

	reg := prometheus.NewRegistry()
	collector := batch.NewCollector(reg)

	runner := batch.NewRunner(a.analyzer, sink, collector, a.logger, batch.Config{
		Concurrency: a.cfg.Batch.Concurrency,
		FailFast:    a.cfg.Batch.FailFast,
		Timeout:     a.cfg.Batch.Timeout,
		Options:     a.cfg.AnalysisOptions(),
	})

	summary, runErr := runner.Run(ctx, paths)

	if err := pushMetrics(a.cfg.Metrics.PushgatewayURL, a.cfg.Metrics.JobName, reg); err != nil {
		a.logger.Warn("pushing batch metrics failed", zap.Error(err))
	}
	return summary, runErr
}
