// Package batch analyzes many account timelines in one run: it loads timeline
// documents from disk, analyzes them with bounded parallelism and hands every
// result to a sink.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/errors"
	"github.com/davidleathers/account-intelligence-backend/internal/infrastructure/archive"
	"github.com/davidleathers/account-intelligence-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/account-intelligence-backend/internal/service/crossref"
)

// Config tunes a Runner
type Config struct {
	// Concurrency bounds the number of accounts analyzed at once
	Concurrency int
	// FailFast stops the run at the first failed account. Otherwise failures are
	// logged, counted and skipped.
	FailFast bool
	// Timeout bounds a single account; zero means no limit
	Timeout time.Duration
	Options crossref.Options
}

// Runner drives batch analysis
type Runner struct {
	analyzer  crossref.Service
	sink      archive.ResultSink
	collector *Collector
	logger    *zap.Logger
	tracer    trace.Tracer
	cfg       Config

	newSessionID func() string
	now          func() time.Time
}

// NewRunner creates a runner. The collector and logger are optional.
func NewRunner(analyzer crossref.Service, sink archive.ResultSink, collector *Collector, logger *zap.Logger, cfg Config) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Runner{
		analyzer:     analyzer,
		sink:         sink,
		collector:    collector,
		logger:       logger.Named("batch"),
		tracer:       otel.Tracer("github.com/davidleathers/account-intelligence-backend/internal/batch"),
		cfg:          cfg,
		newSessionID: uuid.NewString,
		now:          time.Now,
	}
}

// Run analyzes every path. The summary is returned even when the run is aborted,
// in which case the error reports why.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	start := r.now()
	summary := newSummary(len(paths))
	var mu sync.Mutex

	r.logger.Info("batch run started",
		zap.Int("accounts", len(paths)),
		zap.Int("concurrency", r.cfg.Concurrency),
		zap.Bool("fail_fast", r.cfg.FailFast))

	claims := newCustomerClaims()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, path := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			outcome, err := r.process(gctx, path, claims)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.fail(path, err)
				r.logger.Warn("account analysis failed", zap.String("path", path), zap.Error(err))
				if r.cfg.FailFast {
					return fmt.Errorf("%s: %w", path, err)
				}
				return nil
			}
			summary.succeed(outcome)
			return nil
		})
	}

	err := g.Wait()
	finished := r.now()
	summary.finalize(finished.Sub(start))
	r.collector.observeRun(summary, finished)

	if err == nil {
		err = ctx.Err()
	}

	fields := []zap.Field{
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", summary.Duration),
	}
	if err != nil {
		r.logger.Error("batch run aborted", append(fields, zap.Error(err))...)
		return summary, fmt.Errorf("batch run aborted: %w", err)
	}
	r.logger.Info("batch run completed", fields...)
	return summary, nil
}

func (r *Runner) process(ctx context.Context, path string, claims *customerClaims) (Outcome, error) {
	start := r.now()
	sessionID := r.newSessionID()

	ctx, span := r.tracer.Start(ctx, "batch.process", trace.WithAttributes(
		attribute.String("input.path", path),
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	outcome, err := r.analyze(ctx, path, sessionID, claims)
	elapsed := r.now().Sub(start)
	if err != nil {
		telemetry.RecordError(span, err)
		r.collector.observeAccount("failed", "", elapsed)
		return Outcome{}, err
	}

	span.SetAttributes(
		attribute.String("customer.id", outcome.CustomerID),
		attribute.String("risk.level", string(outcome.RiskLevel)),
	)
	r.collector.observeAccount("succeeded", string(outcome.RiskLevel), elapsed)
	return outcome, nil
}

func (r *Runner) analyze(ctx context.Context, path, sessionID string, claims *customerClaims) (Outcome, error) {
	tl, err := LoadFile(path)
	if err != nil {
		return Outcome{}, err
	}
	if err := claims.claim(tl.CustomerID, path); err != nil {
		return Outcome{}, err
	}

	opts := r.cfg.Options
	result, err := r.analyzer.Analyze(ctx, sessionID, tl, &opts)
	if err != nil {
		return Outcome{}, errors.NewAnalysisError(tl.CustomerID, "analysis failed").WithCause(err)
	}

	location, err := r.sink.Store(ctx, result)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "storing result of "+tl.CustomerID)
	}

	telemetry.WithTrace(ctx, r.logger).Debug("account analyzed",
		zap.String("customer_id", result.CustomerID),
		zap.String("session_id", sessionID),
		zap.String("risk_level", string(result.RiskAssessment.RiskLevel)),
		zap.String("location", location))

	return Outcome{
		Path:        path,
		CustomerID:  result.CustomerID,
		SessionID:   sessionID,
		RiskLevel:   result.RiskAssessment.RiskLevel,
		HealthScore: result.HealthView.UnifiedHealthScore,
		Location:    location,
	}, nil
}

// customerClaims maps each customer ID of a run to the first input that carried
// it. Results are keyed by customer ID, so each ID is stored at most once per run.
type customerClaims struct {
	mu   sync.Mutex
	byID map[string]string
}

func newCustomerClaims() *customerClaims {
	return &customerClaims{byID: make(map[string]string)}
}

func (c *customerClaims) claim(customerID, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if first, ok := c.byID[customerID]; ok {
		return errors.NewValidationError("DUPLICATE_CUSTOMER",
			fmt.Sprintf("customer %s already analyzed from %s", customerID, first)).
			WithDetails(map[string]interface{}{"customer_id": customerID, "path": path})
	}
	c.byID[customerID] = path
	return nil
}
