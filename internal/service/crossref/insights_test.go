package crossref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
)

func positiveEvent(id string, d int) timeline.Event {
	return timeline.Event{ID: id, Date: on(d), Source: timeline.SourceEmail, Severity: timeline.SeverityPositive}
}

func TestGenerateInsights_Order(t *testing.T) {
	tl := newTimeline(positiveEvent("p1", 0), positiveEvent("p2", 1), supportEvent("s1", 2, false))
	risk := MultiSignalRiskAssessment{
		RiskLevel:         RiskHigh,
		CombinedRiskScore: 45,
		Signals: []SourceRisk{
			{Source: timeline.SourceSupport, Weight: RiskCritical},
			{Source: timeline.SourceNPS, Weight: RiskHigh},
			{Source: timeline.SourceInvoice, Weight: RiskLow},
		},
	}
	health := CustomerHealthView{
		Trend: TrendDeclining,
		WeightedFactors: []WeightedFactor{
			{Factor: "Usage", Score: 80},
			{Factor: "Engagement", Score: 30},
			{Factor: "Support", Score: 30},
		},
	}
	correlations := []Correlation{
		{ID: "c1", Title: "First", Type: CorrelationTemporal, Strength: StrengthStrong, Confidence: 0.9, Recommendation: "do it"},
	}

	got := GenerateInsights(tl, risk, health, correlations)

	require.Len(t, got, 4)

	assert.Equal(t, InsightRisk, got[0].Type)
	assert.Equal(t, RiskHigh, got[0].Priority)
	assert.Equal(t, []timeline.Source{timeline.SourceSupport, timeline.SourceNPS}, got[0].Sources)
	assert.Equal(t, "2 data sources show high or critical risk indicators (combined risk score 45/100)", got[0].Description)

	assert.Equal(t, InsightTrend, got[1].Type)
	assert.Equal(t, "Health Declining With Weak Engagement", got[1].Title, "first lowest factor wins")
	assert.Equal(t, []timeline.Source{timeline.SourceMeeting, timeline.SourceEmail}, got[1].Sources)

	assert.Equal(t, "First", got[2].Title)
	assert.Equal(t, InsightOpportunity, got[3].Type)
}

func TestGenerateInsights_Quiet(t *testing.T) {
	got := GenerateInsights(timeline.New("c", "", nil, nil), MultiSignalRiskAssessment{RiskLevel: RiskLow}, CustomerHealthView{Trend: TrendStable}, nil)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGenerateInsights_CorrelationCap(t *testing.T) {
	var correlations []Correlation
	for i := 0; i < 7; i++ {
		correlations = append(correlations, Correlation{ID: string(rune('a' + i)), Strength: StrengthModerate, Confidence: 0.7})
	}

	got := GenerateInsights(timeline.New("c", "", nil, nil), MultiSignalRiskAssessment{RiskLevel: RiskMedium}, CustomerHealthView{}, correlations)

	assert.Len(t, got, MaxCorrelationInsights)
}

func TestCorrelationInsight(t *testing.T) {
	tests := []struct {
		name       string
		c          Correlation
		kind       InsightType
		priority   RiskLevel
		actionable bool
	}{
		{
			name:       "very strong temporal",
			c:          Correlation{Type: CorrelationTemporal, Strength: StrengthVeryStrong, Recommendation: "act"},
			kind:       InsightTrend,
			priority:   RiskCritical,
			actionable: true,
		},
		{
			name:     "moderate anomaly without recommendation",
			c:        Correlation{Type: CorrelationAnomaly, Strength: StrengthModerate},
			kind:     InsightAnomaly,
			priority: RiskMedium,
		},
		{
			name:       "strong clustering",
			c:          Correlation{Type: CorrelationClustering, Strength: StrengthStrong, Recommendation: "act"},
			kind:       InsightTrend,
			priority:   RiskHigh,
			actionable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := correlationInsight(tt.c)

			assert.Equal(t, tt.kind, got.Type)
			assert.Equal(t, tt.priority, got.Priority)
			assert.Equal(t, tt.actionable, got.Actionable)
		})
	}
}

func TestOpportunityInsight(t *testing.T) {
	tests := []struct {
		name     string
		positive int
		total    int
		expected bool
	}{
		{name: "no events", positive: 0, total: 0, expected: false},
		{name: "exactly thirty percent", positive: 3, total: 10, expected: false},
		{name: "forty percent", positive: 2, total: 5, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []timeline.Event
			for i := 0; i < tt.total; i++ {
				if i < tt.positive {
					events = append(events, positiveEvent("p", i))
				} else {
					events = append(events, supportEvent("s", i, false))
				}
			}

			got, ok := opportunityInsight(events)

			assert.Equal(t, tt.expected, ok)
			if ok {
				assert.Equal(t, "Strong Positive Momentum", got.Title)
				assert.Equal(t, RiskMedium, got.Priority)
			}
		})
	}
}
