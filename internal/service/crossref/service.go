package crossref

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/errors"
	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
	"github.com/davidleathers/account-intelligence-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/account-intelligence-backend/internal/metrics"
)

// service implements the Service interface. It holds no per-run state, so one
// instance can analyze many accounts concurrently.
type service struct {
	logger  *zap.Logger
	metrics *metrics.Registry
	tracer  trace.Tracer
	now     func() time.Time
}

// NewService creates a new cross-reference analysis service. Both arguments are
// optional.
func NewService(logger *zap.Logger, registry *metrics.Registry) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		logger:  logger.Named("crossref"),
		metrics: registry,
		tracer:  otel.Tracer("github.com/davidleathers/account-intelligence-backend/internal/service/crossref"),
		now:     time.Now,
	}
}

// Analyze runs the pipeline: correlations and patterns, risk assessment and
// signals, root cause, health view, insights, recommendations and summary.
func (s *service) Analyze(ctx context.Context, sessionID string, tl *timeline.UnifiedTimeline, opts *Options) (*AnalysisResult, error) {
	if tl == nil {
		s.recordFailure(ctx, "nil_timeline")
		return nil, errors.ErrNilTimeline
	}

	tl = timeline.Normalize(tl)

	o := DefaultOptions()
	if opts != nil {
		o = opts.withDefaults()
	}
	if err := o.Validate(); err != nil {
		s.recordFailure(ctx, "invalid_options")
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "crossref.Analyze", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("customer.id", tl.CustomerID),
		attribute.Int("timeline.events", len(tl.Events)),
		attribute.Int("timeline.snapshots", len(tl.HealthSnapshots)),
	))
	defer span.End()

	if s.metrics != nil {
		s.metrics.AddInFlight(1)
		defer s.metrics.AddInFlight(-1)
	}

	log := telemetry.WithTrace(ctx, s.logger).With(
		zap.String("session_id", sessionID),
		zap.String("customer_id", tl.CustomerID),
	)
	start := s.now()

	correlations := DetectCorrelations(tl, o)
	patterns := AggregatePatterns(correlations)

	risk := AssessRisk(tl, correlations)
	signals := DetectRiskSignals(tl)

	var rootCause *RootCauseAnalysis
	if o.IncludeRootCause {
		rootCause = AnalyzeRootCause(correlations, risk.RiskLevel)
	}

	health := CalculateHealthView(tl)
	insights := GenerateInsights(tl, risk, health, correlations)

	recs := []ActionRecommendation{}
	if o.GenerateRecommendations {
		recs = GenerateRecommendations(signals, correlations, insights)
	}

	name := tl.CustomerName
	if name == "" {
		name = tl.CustomerID
	}
	summary := SynthesizeSummary(name, risk, health, insights, recs)

	finished := s.now()
	elapsed := finished.Sub(start)

	result := &AnalysisResult{
		SessionID:            sessionID,
		CustomerID:           tl.CustomerID,
		CustomerName:         tl.CustomerName,
		Correlations:         correlations,
		Patterns:             patterns,
		RiskAssessment:       risk,
		RiskSignals:          signals,
		RootCauseAnalysis:    rootCause,
		HealthView:           health,
		Insights:             insights,
		Recommendations:      recs,
		ExecutiveSummary:     summary,
		AnalyzedAt:           finished.UTC(),
		ProcessingDurationMS: elapsed.Milliseconds(),
	}

	span.SetAttributes(
		attribute.String("risk.level", string(risk.RiskLevel)),
		attribute.Int("health.score", health.UnifiedHealthScore),
		attribute.Int("correlations", len(correlations)),
		attribute.Int("risk_signals", len(signals)),
	)
	span.SetStatus(codes.Ok, "")

	log.Info("account analysis completed",
		zap.String("risk_level", string(risk.RiskLevel)),
		zap.Int("combined_risk_score", risk.CombinedRiskScore),
		zap.Int("health_score", health.UnifiedHealthScore),
		zap.Int("correlations", len(correlations)),
		zap.Int("patterns", len(patterns)),
		zap.Int("risk_signals", len(signals)),
		zap.Bool("root_cause", rootCause != nil),
		zap.Duration("duration", elapsed))

	s.record(ctx, result, elapsed)
	return result, nil
}

func (s *service) record(ctx context.Context, result *AnalysisResult, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordAnalysis(ctx,
		float64(elapsed.Microseconds())/1000,
		string(result.RiskAssessment.RiskLevel),
		string(result.HealthView.Category),
		result.HealthView.UnifiedHealthScore)
	for _, c := range result.Correlations {
		s.metrics.RecordCorrelation(ctx, string(c.Type), string(c.Strength))
	}
	for _, sig := range result.RiskSignals {
		s.metrics.RecordRiskSignal(ctx, string(sig.Type), string(sig.Severity))
	}
}

func (s *service) recordFailure(ctx context.Context, reason string) {
	s.logger.Warn("analysis rejected", zap.String("reason", reason))
	if s.metrics != nil {
		s.metrics.RecordFailure(ctx, reason)
	}
}
