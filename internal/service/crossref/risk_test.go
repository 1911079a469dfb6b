package crossref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
)

func sourceRisk(a MultiSignalRiskAssessment, src timeline.Source) (SourceRisk, bool) {
	for _, s := range a.Signals {
		if s.Source == src {
			return s, true
		}
	}
	return SourceRisk{}, false
}

func TestAssessRisk_Empty(t *testing.T) {
	got := AssessRisk(timeline.New("c", "", nil, nil), nil)

	assert.NotNil(t, got.Signals)
	assert.Empty(t, got.Signals)
	assert.Equal(t, DefaultCombinedRiskScore, got.CombinedRiskScore)
	assert.Equal(t, RiskLow, got.RiskLevel)
	assert.NotNil(t, got.CompoundingFactors)
	assert.Empty(t, got.CompoundingFactors)
}

func TestAssessRisk_EscalationsAndLowNPS(t *testing.T) {
	tl := newTimeline(
		supportEvent("s1", 0, true),
		supportEvent("s2", 10, true),
		supportEvent("s3", 20, true),
		npsEvent("n1", 30, 10),
	)

	got := AssessRisk(tl, nil)

	support, ok := sourceRisk(got, timeline.SourceSupport)
	require.True(t, ok)
	assert.Equal(t, RiskCritical, support.Weight)
	assert.Equal(t, 55, support.Score)
	assert.Equal(t, "3 escalations", support.RiskIndicator)

	nps, ok := sourceRisk(got, timeline.SourceNPS)
	require.True(t, ok)
	assert.Equal(t, RiskHigh, nps.Weight)
	assert.Equal(t, 60, nps.Score)
	assert.Equal(t, "Latest NPS 10", nps.RiskIndicator)

	assert.Equal(t, RiskHigh, got.RiskLevel)
	assert.Equal(t, 57, got.CombinedRiskScore)
}

func TestAssessRisk_TwoCriticalSources(t *testing.T) {
	tl := newTimeline(
		supportEvent("s1", 0, true),
		supportEvent("s2", 1, true),
		supportEvent("s3", 2, true),
		npsEvent("n1", 5, -10),
	)

	got := AssessRisk(tl, nil)

	nps, _ := sourceRisk(got, timeline.SourceNPS)
	assert.Equal(t, RiskCritical, nps.Weight)
	assert.Equal(t, 40, nps.Score)
	assert.Equal(t, RiskCritical, got.RiskLevel)
}

func TestAssessRisk_SupportCSAT(t *testing.T) {
	tests := []struct {
		name   string
		events []timeline.Event
		weight RiskLevel
		score  int
	}{
		{name: "no csat reported", events: []timeline.Event{supportEvent("s1", 0, false)}, weight: RiskLow, score: 100},
		{name: "low csat", events: []timeline.Event{supportWithCSAT("s1", 0, 2), supportWithCSAT("s2", 1, 3)}, weight: RiskMedium, score: 80},
		{name: "good csat", events: []timeline.Event{supportWithCSAT("s1", 0, 4.5)}, weight: RiskLow, score: 100},
		{name: "seven escalations floor at zero", events: []timeline.Event{
			supportEvent("a", 0, true), supportEvent("b", 0, true), supportEvent("c", 0, true),
			supportEvent("d", 0, true), supportEvent("e", 0, true), supportEvent("f", 0, true),
			supportEvent("g", 0, true),
		}, weight: RiskCritical, score: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := sourceRisk(AssessRisk(newTimeline(tt.events...), nil), timeline.SourceSupport)

			require.True(t, ok)
			assert.Equal(t, tt.weight, got.Weight)
			assert.Equal(t, tt.score, got.Score)
		})
	}
}

func TestAssessRisk_NPSWeights(t *testing.T) {
	tests := []struct {
		score  float64
		weight RiskLevel
		value  int
	}{
		{score: -60, weight: RiskCritical, value: 0},
		{score: 29, weight: RiskHigh, value: 79},
		{score: 30, weight: RiskMedium, value: 80},
		{score: 49, weight: RiskMedium, value: 99},
		{score: 50, weight: RiskLow, value: 100},
		{score: 80, weight: RiskLow, value: 100},
	}

	for _, tt := range tests {
		t.Run(formatScore(tt.score), func(t *testing.T) {
			got, ok := sourceRisk(AssessRisk(newTimeline(npsEvent("n", 0, tt.score)), nil), timeline.SourceNPS)

			require.True(t, ok)
			assert.Equal(t, tt.weight, got.Weight)
			assert.Equal(t, tt.value, got.Score)
		})
	}
}

func TestAssessRisk_Meetings(t *testing.T) {
	tl := newTimeline(
		meetingEvent("m1", 0, timeline.SeverityWarning),
		meetingEvent("m2", 10, timeline.SeverityNeutral),
		meetingEvent("m3", 20, timeline.SeverityCritical),
	)

	got, ok := sourceRisk(AssessRisk(tl, nil), timeline.SourceMeeting)

	require.True(t, ok)
	assert.Equal(t, RiskHigh, got.Weight)
	assert.Equal(t, 60, got.Score)
}

func TestAssessRisk_Invoices(t *testing.T) {
	tests := []struct {
		name   string
		events []timeline.Event
		weight RiskLevel
		score  int
	}{
		{name: "paid on time", events: []timeline.Event{invoiceEvent("i1", 0, 0, 100, "paid")}, weight: RiskLow, score: 100},
		{name: "one late", events: []timeline.Event{invoiceEvent("i1", 0, 3, 100, "paid")}, weight: RiskMedium, score: 85},
		{name: "two outstanding", events: []timeline.Event{
			invoiceEvent("i1", 0, 0, 100, "outstanding"),
			invoiceEvent("i2", 30, 0, 100, "overdue"),
		}, weight: RiskMedium, score: 80},
		{name: "two late and outstanding", events: []timeline.Event{
			invoiceEvent("i1", 0, 5, 100, "unpaid"),
			invoiceEvent("i2", 30, 20, 100, "paid"),
		}, weight: RiskHigh, score: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := sourceRisk(AssessRisk(newTimeline(tt.events...), nil), timeline.SourceInvoice)

			require.True(t, ok)
			assert.Equal(t, tt.weight, got.Weight)
			assert.Equal(t, tt.score, got.Score)
		})
	}
}

func TestAssessRisk_UsageDeclineFromCorrelation(t *testing.T) {
	tl := newTimeline(usageEvent("u1", 0, 100), usageEvent("u2", 30, 40))

	stable, _ := sourceRisk(AssessRisk(tl, nil), timeline.SourceUsage)
	assert.Equal(t, RiskLow, stable.Weight)
	assert.Equal(t, 80, stable.Score)

	declining, _ := sourceRisk(AssessRisk(tl, DetectCorrelations(tl, DefaultOptions())), timeline.SourceUsage)
	assert.Equal(t, RiskHigh, declining.Weight)
	assert.Equal(t, 30, declining.Score)
	assert.Equal(t, "Usage declining", declining.RiskIndicator)
}

func TestRiskLevel(t *testing.T) {
	w := func(levels ...RiskLevel) []SourceRisk {
		out := make([]SourceRisk, len(levels))
		for i, l := range levels {
			out[i] = SourceRisk{Weight: l}
		}
		return out
	}

	tests := []struct {
		name     string
		signals  []SourceRisk
		combined int
		expected RiskLevel
	}{
		{name: "two critical", signals: w(RiskCritical, RiskCritical), combined: 80, expected: RiskCritical},
		{name: "critical and two high", signals: w(RiskCritical, RiskHigh, RiskHigh), combined: 80, expected: RiskCritical},
		{name: "one critical", signals: w(RiskCritical, RiskLow), combined: 80, expected: RiskHigh},
		{name: "two high", signals: w(RiskHigh, RiskHigh), combined: 80, expected: RiskHigh},
		{name: "one high", signals: w(RiskHigh, RiskLow), combined: 80, expected: RiskMedium},
		{name: "low combined score", signals: w(RiskLow), combined: 59, expected: RiskMedium},
		{name: "all low", signals: w(RiskLow, RiskMedium), combined: 60, expected: RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, riskLevel(tt.signals, tt.combined))
		})
	}
}

func TestCompoundingFactors(t *testing.T) {
	signals := []SourceRisk{
		{Source: timeline.SourceSupport, Weight: RiskCritical},
		{Source: timeline.SourceNPS, Weight: RiskHigh},
		{Source: timeline.SourceMeeting, Weight: RiskHigh},
	}
	correlations := []Correlation{
		{Sources: []timeline.Source{timeline.SourceSupport, timeline.SourceNPS}},
		{Sources: []timeline.Source{timeline.SourceInvoice}},
	}

	got := compoundingFactors(signals, correlations)

	assert.Equal(t, []string{
		"3 data sources show high or critical risk at the same time",
		"Detected correlations span 3 data sources",
	}, got)
}
