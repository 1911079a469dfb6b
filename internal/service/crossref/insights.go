package crossref

import (
	"fmt"
	"math"
	"strings"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
)

// factorSources maps a health factor onto the sources that feed it
var factorSources = map[string][]timeline.Source{
	"Usage":      {timeline.SourceUsage},
	"Support":    {timeline.SourceSupport},
	"Sentiment":  {timeline.SourceNPS},
	"Financial":  {timeline.SourceInvoice},
	"Engagement": {timeline.SourceMeeting, timeline.SourceEmail},
}

// GenerateInsights merges risk, trend, correlation and opportunity signals. The
// order of the result is fixed: risk, trend, correlation-derived, opportunity.
func GenerateInsights(
	tl *timeline.UnifiedTimeline,
	risk MultiSignalRiskAssessment,
	health CustomerHealthView,
	correlations []Correlation,
) []HolisticInsight {
	insights := []HolisticInsight{}

	if risk.RiskLevel == RiskHigh || risk.RiskLevel == RiskCritical {
		insights = append(insights, riskInsight(risk))
	}

	if health.Trend == TrendDeclining && len(health.WeightedFactors) > 0 {
		insights = append(insights, trendInsight(health))
	}

	for i, c := range correlations {
		if i == MaxCorrelationInsights {
			break
		}
		insights = append(insights, correlationInsight(c))
	}

	if in, ok := opportunityInsight(tl.Events); ok {
		insights = append(insights, in)
	}
	return insights
}

func riskInsight(risk MultiSignalRiskAssessment) HolisticInsight {
	elevated := elevatedSources(risk)
	return HolisticInsight{
		Type:     InsightRisk,
		Priority: risk.RiskLevel,
		Title:    "Elevated Account Risk",
		Description: fmt.Sprintf("%d data sources show high or critical risk indicators (combined risk score %d/100)",
			len(elevated), risk.CombinedRiskScore),
		Sources: elevated,
		SupportingData: map[string]interface{}{
			"combined_risk_score": risk.CombinedRiskScore,
			"elevated_sources":    len(elevated),
			"compounding_factors": risk.CompoundingFactors,
		},
		Confidence:       0.85,
		Actionable:       true,
		SuggestedActions: []string{"Review the risk drivers with the account team"},
	}
}

func trendInsight(health CustomerHealthView) HolisticInsight {
	weakest := health.WeightedFactors[0]
	for _, f := range health.WeightedFactors[1:] {
		if f.Score < weakest.Score {
			weakest = f
		}
	}
	return HolisticInsight{
		Type:     InsightTrend,
		Priority: RiskHigh,
		Title:    fmt.Sprintf("Health Declining With Weak %s", weakest.Factor),
		Description: fmt.Sprintf("Health is trending down and %s is the lowest scoring factor at %s/100",
			strings.ToLower(weakest.Factor), formatScore(weakest.Score)),
		Sources: factorSources[weakest.Factor],
		SupportingData: map[string]interface{}{
			"factor":       weakest.Factor,
			"factor_score": weakest.Score,
			"health_score": health.UnifiedHealthScore,
		},
		Confidence:       0.8,
		Actionable:       true,
		SuggestedActions: []string{fmt.Sprintf("Build a plan to lift %s", strings.ToLower(weakest.Factor))},
	}
}

func correlationInsight(c Correlation) HolisticInsight {
	kind := InsightTrend
	if c.Type == CorrelationAnomaly {
		kind = InsightAnomaly
	}

	priority := RiskMedium
	switch c.Strength {
	case StrengthVeryStrong:
		priority = RiskCritical
	case StrengthStrong:
		priority = RiskHigh
	}

	in := HolisticInsight{
		Type:        kind,
		Priority:    priority,
		Title:       c.Title,
		Description: c.Insight,
		Sources:     c.Sources,
		SupportingData: map[string]interface{}{
			"correlation_id": c.ID,
			"detail":         c.Description,
			"evidence_count": len(c.Events),
		},
		Confidence: c.Confidence,
		Actionable: c.Recommendation != "",
	}
	if c.Recommendation != "" {
		in.SuggestedActions = []string{c.Recommendation}
	}
	return in
}

func opportunityInsight(events []timeline.Event) (HolisticInsight, bool) {
	if len(events) == 0 {
		return HolisticInsight{}, false
	}
	var positive []timeline.Event
	for _, e := range events {
		if e.Severity == timeline.SeverityPositive {
			positive = append(positive, e)
		}
	}
	share := float64(len(positive)) / float64(len(events))
	if share <= OpportunityEventShare {
		return HolisticInsight{}, false
	}

	return HolisticInsight{
		Type:     InsightOpportunity,
		Priority: RiskMedium,
		Title:    "Strong Positive Momentum",
		Description: fmt.Sprintf("%d of %d events (%d%%) were positive",
			len(positive), len(events), int(math.Round(share*100))),
		Sources:          sourcesOf(positive),
		SupportingData:   map[string]interface{}{"positive_share": share},
		Confidence:       0.7,
		Actionable:       true,
		SuggestedActions: []string{"Explore expansion and advocacy opportunities"},
	}, true
}
