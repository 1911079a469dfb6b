package crossref

// Correlation detector windows and thresholds
const (
	// FeatureSupportWindowDays is how long after a launch support tickets are attributed to it
	FeatureSupportWindowDays = 30

	// FeatureSupportMinTickets is the minimum ticket count for a launch correlation
	FeatureSupportMinTickets = 3

	// EscalationNPSWindowDays is how far before a survey escalations are counted
	EscalationNPSWindowDays = 45

	// EscalationNPSMinEscalations is the minimum escalation count before a survey
	EscalationNPSMinEscalations = 2

	// NegativeNPSScore is the score below which a survey response counts as negative
	NegativeNPSScore = 30

	// UsageDeclineRatio flags a usage period below this fraction of the previous one
	UsageDeclineRatio = 0.7

	// UsageSevereDeclineRatio upgrades a usage decline to very strong
	UsageSevereDeclineRatio = 0.5

	// CriticalClusterMinEvents is the critical event count that forms a same-day cluster
	CriticalClusterMinEvents = 2

	// CriticalClusterVeryStrongEvents upgrades a cluster to very strong
	CriticalClusterVeryStrongEvents = 4

	// PaymentDelayDays is the lateness beyond which an invoice counts as delayed
	PaymentDelayDays = 15

	// PaymentLookbackDays is how far before a delayed invoice dissatisfaction is searched
	PaymentLookbackDays = 60

	// SentimentDropPoints and EngagementDropPoints are the two-period drops for an inverse correlation
	SentimentDropPoints  = 15
	EngagementDropPoints = 10

	// HealthDropPoints flags a consecutive snapshot drop; HealthSevereDropPoints upgrades it
	HealthDropPoints       = 15
	HealthSevereDropPoints = 25

	// LowActivityRatio flags usage below this fraction of the account average
	LowActivityRatio = 0.3

	// LowActivityMinAverage is the minimum average volume for the low activity check
	LowActivityMinAverage = 10

	// MaxConfidence caps every correlation confidence
	MaxConfidence = 0.95
)

// Risk signal thresholds
const (
	SignalUsageDeclineRatio       = 0.75
	SignalUsageSevereDeclineRatio = 0.5
	SignalMinEscalations          = 2
	SignalCriticalEscalations     = 5
	SignalNPSDropPoints           = 20
	SignalCriticalLateAmount      = 20000
	SignalLateAmountPerImpact     = 500
)

// Urgency is fixed per signal type
const (
	UrgencyUsageDecline = 80
	UrgencySupportSpike = 90
	UrgencyNPSDrop      = 85
	UrgencyPaymentDelay = 70
)

// Health view weights and defaults
const (
	WeightUsage      = 0.25
	WeightSupport    = 0.20
	WeightSentiment  = 0.25
	WeightFinancial  = 0.15
	WeightEngagement = 0.15

	DefaultUsageScore     = 70
	DefaultSentimentScore = 70
	DefaultFinancialScore = 80

	HealthyThreshold = 70
	WarningThreshold = 40

	// TrendDeltaPoints is the snapshot-to-snapshot change that counts as a trend
	TrendDeltaPoints = 5
)

// Risk assessment
const (
	// DefaultCombinedRiskScore applies when no source has been observed
	DefaultCombinedRiskScore = 70

	// MediumRiskScore is the combined score below which risk is at least medium
	MediumRiskScore = 60
)

// Insight and summary limits
const (
	MaxCorrelationInsights = 5
	OpportunityEventShare  = 0.3
	KeyFindingConfidence   = 0.7
	MaxKeyFindings         = 5
	MaxSecondaryIssues     = 3
	FallbackNextSteps      = 3
)
