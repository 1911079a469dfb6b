package crossref

import (
	"time"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
)

// CorrelationType classifies how related events were detected
type CorrelationType string

const (
	CorrelationTemporal   CorrelationType = "temporal"
	CorrelationCausal     CorrelationType = "causal"
	CorrelationInverse    CorrelationType = "inverse"
	CorrelationClustering CorrelationType = "clustering"
	CorrelationAnomaly    CorrelationType = "anomaly"
)

// Strength is the coarse magnitude bucket of a correlation
type Strength string

const (
	StrengthWeak       Strength = "weak"
	StrengthModerate   Strength = "moderate"
	StrengthStrong     Strength = "strong"
	StrengthVeryStrong Strength = "very_strong"
)

// Rank orders strengths from weak (1) to very strong (4)
func (s Strength) Rank() int {
	switch s {
	case StrengthVeryStrong:
		return 4
	case StrengthStrong:
		return 3
	case StrengthModerate:
		return 2
	case StrengthWeak:
		return 1
	}
	return 0
}

// RiskLevel is the low..critical scale shared by risk weights, signal severities,
// pattern risk and insight priority
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders risk levels from low (1) to critical (4)
func (l RiskLevel) Rank() int {
	switch l {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	}
	return 0
}

// ChainLink is one step of an explained sequence of events
type ChainLink struct {
	Event     string    `json:"event"`
	Date      time.Time `json:"date"`
	DelayDays *int      `json:"delay_days,omitempty"`
	Impact    string    `json:"impact,omitempty"`
}

// Correlation is a detected relationship between events or metrics
type Correlation struct {
	ID             string            `json:"id"`
	Type           CorrelationType   `json:"type"`
	Strength       Strength          `json:"strength"`
	Confidence     float64           `json:"confidence"`
	Sources        []timeline.Source `json:"sources"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Events         []timeline.Event  `json:"events"`
	Chain          []ChainLink       `json:"chain"`
	Insight        string            `json:"insight"`
	Recommendation string            `json:"recommendation,omitempty"`
}

// Score is the ranking key: strength rank times confidence
func (c Correlation) Score() float64 {
	return float64(c.Strength.Rank()) * c.Confidence
}

// CorrelationPattern groups recurring correlations that share a title
type CorrelationPattern struct {
	Title        string        `json:"title"`
	Frequency    int           `json:"frequency"`
	RiskLevel    RiskLevel     `json:"risk_level"`
	Correlations []Correlation `json:"correlations"`
}

// SignalType names a discrete risk check
type SignalType string

const (
	SignalUsageDecline SignalType = "usage_decline"
	SignalSupportSpike SignalType = "support_spike"
	SignalNPSDrop      SignalType = "nps_drop"
	SignalPaymentDelay SignalType = "payment_delay"
)

// RiskSignal is a discrete, independently detected concern
type RiskSignal struct {
	Type        SignalType        `json:"type"`
	Severity    RiskLevel         `json:"severity"`
	Sources     []timeline.Source `json:"sources"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Evidence    []string          `json:"evidence"`
	DetectedAt  time.Time         `json:"detected_at"`
	ImpactScore int               `json:"impact_score"`
	Urgency     int               `json:"urgency"`
}

// SourceRisk is the risk contribution of one observed source
type SourceRisk struct {
	Source        timeline.Source `json:"source"`
	RiskIndicator string          `json:"risk_indicator"`
	Weight        RiskLevel       `json:"weight"`
	Score         int             `json:"score"`
}

// MultiSignalRiskAssessment combines per-source risk into an account risk level
type MultiSignalRiskAssessment struct {
	Signals            []SourceRisk `json:"signals"`
	CombinedRiskScore  int          `json:"combined_risk_score"`
	RiskLevel          RiskLevel    `json:"risk_level"`
	CompoundingFactors []string     `json:"compounding_factors"`
}

// Issue is one problem identified by root cause analysis
type Issue struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	TriggeredAt  time.Time         `json:"triggered_at"`
	Sources      []timeline.Source `json:"sources"`
	Relationship string            `json:"relationship,omitempty"`
}

// RootCauseAnalysis explains the chain of events behind elevated risk
type RootCauseAnalysis struct {
	PrimaryIssue    Issue       `json:"primary_issue"`
	SecondaryIssues []Issue     `json:"secondary_issues"`
	CascadeChain    []ChainLink `json:"cascade_chain"`
	ConfidenceScore float64     `json:"confidence_score"`
}

// HealthCategory buckets the unified health score
type HealthCategory string

const (
	HealthHealthy  HealthCategory = "healthy"
	HealthWarning  HealthCategory = "warning"
	HealthCritical HealthCategory = "critical"
)

// Trend is the direction of the health score between observations
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// WeightedFactor is one component of the composite health score
type WeightedFactor struct {
	Factor       string  `json:"factor"`
	Weight       float64 `json:"weight"`
	Score        float64 `json:"score"`
	Contribution int     `json:"contribution"`
}

// CustomerHealthView is the composite health score across five components
type CustomerHealthView struct {
	UnifiedHealthScore int                            `json:"unified_health_score"`
	Category           HealthCategory                 `json:"category"`
	Trend              Trend                          `json:"trend"`
	ComponentScores    map[timeline.Component]float64 `json:"component_scores"`
	WeightedFactors    []WeightedFactor               `json:"weighted_factors"`
}

// InsightType classifies a holistic insight
type InsightType string

const (
	InsightOpportunity    InsightType = "opportunity"
	InsightRisk           InsightType = "risk"
	InsightTrend          InsightType = "trend"
	InsightAnomaly        InsightType = "anomaly"
	InsightRecommendation InsightType = "recommendation"
)

// HolisticInsight is a ranked observation merged from every analysis output
type HolisticInsight struct {
	Type             InsightType            `json:"type"`
	Priority         RiskLevel              `json:"priority"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Sources          []timeline.Source      `json:"sources"`
	SupportingData   map[string]interface{} `json:"supporting_data,omitempty"`
	Confidence       float64                `json:"confidence"`
	Actionable       bool                   `json:"actionable"`
	SuggestedActions []string               `json:"suggested_actions,omitempty"`
}

// ActionPriority is the timeframe bucket of a recommendation
type ActionPriority string

const (
	PriorityImmediate  ActionPriority = "immediate"
	PriorityShortTerm  ActionPriority = "short_term"
	PriorityMediumTerm ActionPriority = "medium_term"
)

// ActionRecommendation is a timeframed action for the account team
type ActionRecommendation struct {
	Priority            ActionPriority `json:"priority"`
	Timeframe           string         `json:"timeframe"`
	Action              string         `json:"action"`
	Description         string         `json:"description"`
	ExpectedOutcome     string         `json:"expected_outcome"`
	AssignedTo          string         `json:"assigned_to,omitempty"`
	RelatedCorrelations []string       `json:"related_correlations"`
}

// ExecutiveSummary is the fixed-template digest of an analysis
type ExecutiveSummary struct {
	Headline       string   `json:"headline"`
	KeyFindings    []string `json:"key_findings"`
	CriticalIssues []string `json:"critical_issues"`
	Opportunities  []string `json:"opportunities"`
	NextSteps      []string `json:"next_steps"`
}

// AnalysisResult aggregates every output of one analysis run
type AnalysisResult struct {
	SessionID            string                    `json:"session_id"`
	CustomerID           string                    `json:"customer_id"`
	CustomerName         string                    `json:"customer_name"`
	Correlations         []Correlation             `json:"correlations"`
	Patterns             []CorrelationPattern      `json:"patterns"`
	RiskAssessment       MultiSignalRiskAssessment `json:"risk_assessment"`
	RiskSignals          []RiskSignal              `json:"risk_signals"`
	RootCauseAnalysis    *RootCauseAnalysis        `json:"root_cause_analysis"`
	HealthView           CustomerHealthView        `json:"health_view"`
	Insights             []HolisticInsight         `json:"insights"`
	Recommendations      []ActionRecommendation    `json:"recommendations"`
	ExecutiveSummary     ExecutiveSummary          `json:"executive_summary"`
	AnalyzedAt           time.Time                 `json:"analyzed_at"`
	ProcessingDurationMS int64                     `json:"processing_duration_ms"`
}
