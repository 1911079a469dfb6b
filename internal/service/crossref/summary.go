package crossref

import "fmt"

// SynthesizeSummary composes the executive summary from every prior output.
// The first matching headline rule wins.
func SynthesizeSummary(
	customerName string,
	risk MultiSignalRiskAssessment,
	health CustomerHealthView,
	insights []HolisticInsight,
	recs []ActionRecommendation,
) ExecutiveSummary {
	if customerName == "" {
		customerName = "Account"
	}

	var headline string
	switch {
	case risk.RiskLevel == RiskCritical:
		headline = fmt.Sprintf("CRITICAL: %s requires immediate intervention", customerName)
	case risk.RiskLevel == RiskHigh:
		headline = fmt.Sprintf("HIGH RISK: %s showing concerning signals across %d areas", customerName, len(elevatedSources(risk)))
	case health.Trend == TrendImproving:
		headline = fmt.Sprintf("POSITIVE: %s health improving — consider expansion", customerName)
	default:
		headline = fmt.Sprintf("STABLE: %s health score %d/100", customerName, health.UnifiedHealthScore)
	}

	summary := ExecutiveSummary{
		Headline:       headline,
		KeyFindings:    []string{},
		CriticalIssues: []string{},
		Opportunities:  []string{},
		NextSteps:      []string{},
	}

	for _, in := range insights {
		if in.Confidence >= KeyFindingConfidence && len(summary.KeyFindings) < MaxKeyFindings {
			summary.KeyFindings = append(summary.KeyFindings, in.Description)
		}
		if in.Priority == RiskCritical {
			summary.CriticalIssues = append(summary.CriticalIssues, in.Title)
		}
		if in.Type == InsightOpportunity {
			summary.Opportunities = append(summary.Opportunities, in.Title)
		}
	}
	for _, s := range risk.Signals {
		if s.Weight == RiskCritical {
			summary.CriticalIssues = append(summary.CriticalIssues, fmt.Sprintf("%s: %s", s.Source, s.RiskIndicator))
		}
	}

	for _, r := range recs {
		if r.Priority == PriorityImmediate {
			summary.NextSteps = append(summary.NextSteps, r.Action)
		}
	}
	if len(summary.NextSteps) == 0 {
		for i, r := range recs {
			if i == FallbackNextSteps {
				break
			}
			summary.NextSteps = append(summary.NextSteps, r.Action)
		}
	}
	return summary
}
