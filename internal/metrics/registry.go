package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds the instruments recorded by the analysis engine
type Registry struct {
	meter metric.Meter

	// Analysis run metrics
	AnalysisDuration       metric.Float64Histogram
	AnalysisCounter        metric.Int64Counter
	AnalysisFailureCounter metric.Int64Counter
	InFlightAnalyses       metric.Int64ObservableGauge

	// Finding metrics
	CorrelationCounter metric.Int64Counter
	RiskSignalCounter  metric.Int64Counter
	HealthScore        metric.Int64Histogram

	// State for observable metrics
	mu       sync.RWMutex
	inFlight int64
}

// NewRegistry creates a registry on the global meter provider
func NewRegistry(meterName string) (*Registry, error) {
	return NewRegistryWithProvider(otel.GetMeterProvider(), meterName)
}

// NewRegistryWithProvider creates a registry on an explicit meter provider
func NewRegistryWithProvider(mp metric.MeterProvider, meterName string) (*Registry, error) {
	r := &Registry{meter: mp.Meter(meterName)}

	if err := r.initAnalysisMetrics(); err != nil {
		return nil, err
	}

	if err := r.initFindingMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

// initAnalysisMetrics initializes run level metrics
func (r *Registry) initAnalysisMetrics() error {
	var err error

	r.AnalysisDuration, err = r.meter.Float64Histogram(
		"aib.analysis.duration",
		metric.WithDescription("Duration of a single account analysis in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000),
	)
	if err != nil {
		return err
	}

	r.AnalysisCounter, err = r.meter.Int64Counter(
		"aib.analysis.total",
		metric.WithDescription("Total number of completed account analyses"),
	)
	if err != nil {
		return err
	}

	r.AnalysisFailureCounter, err = r.meter.Int64Counter(
		"aib.analysis.failure_total",
		metric.WithDescription("Total number of rejected or failed account analyses"),
	)
	if err != nil {
		return err
	}

	r.InFlightAnalyses, err = r.meter.Int64ObservableGauge(
		"aib.analysis.in_flight",
		metric.WithDescription("Number of analyses currently running"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.inFlight)
			return nil
		}),
	)

	return err
}

// initFindingMetrics initializes metrics describing analysis output
func (r *Registry) initFindingMetrics() error {
	var err error

	r.CorrelationCounter, err = r.meter.Int64Counter(
		"aib.correlation.detected_total",
		metric.WithDescription("Total number of correlations reported"),
	)
	if err != nil {
		return err
	}

	r.RiskSignalCounter, err = r.meter.Int64Counter(
		"aib.risk_signal.detected_total",
		metric.WithDescription("Total number of risk signals reported"),
	)
	if err != nil {
		return err
	}

	r.HealthScore, err = r.meter.Int64Histogram(
		"aib.health.unified_score",
		metric.WithDescription("Distribution of unified health scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	)

	return err
}

// AddInFlight adjusts the number of running analyses
func (r *Registry) AddInFlight(delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight += delta
}

// RecordAnalysis records a completed analysis run
func (r *Registry) RecordAnalysis(ctx context.Context, durationMS float64, riskLevel, healthCategory string, healthScore int) {
	attrs := []attribute.KeyValue{
		attribute.String("risk_level", riskLevel),
		attribute.String("health_category", healthCategory),
	}

	r.AnalysisDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))
	r.AnalysisCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	r.HealthScore.Record(ctx, int64(healthScore), metric.WithAttributes(attribute.String("health_category", healthCategory)))
}

// RecordFailure records a rejected analysis
func (r *Registry) RecordFailure(ctx context.Context, reason string) {
	r.AnalysisFailureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordCorrelation records one reported correlation
func (r *Registry) RecordCorrelation(ctx context.Context, correlationType, strength string) {
	r.CorrelationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", correlationType),
		attribute.String("strength", strength),
	))
}

// RecordRiskSignal records one reported risk signal
func (r *Registry) RecordRiskSignal(ctx context.Context, signalType, severity string) {
	r.RiskSignalCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", signalType),
		attribute.String("severity", severity),
	))
}
