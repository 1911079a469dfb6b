package crossref

import "strings"

// GenerateRecommendations maps risk signals, correlations and insights onto
// timeframed actions
func GenerateRecommendations(signals []RiskSignal, correlations []Correlation, insights []HolisticInsight) []ActionRecommendation {
	recs := []ActionRecommendation{}

	var critical []string
	for _, s := range signals {
		if s.Severity == RiskCritical {
			critical = append(critical, string(s.Type))
		}
	}
	if len(critical) > 0 {
		recs = append(recs,
			ActionRecommendation{
				Priority:            PriorityImmediate,
				Timeframe:           "This week",
				Action:              "Executive Apology Call",
				Description:         "Have an executive sponsor call the customer to acknowledge the issues and commit to a resolution plan.",
				ExpectedOutcome:     "Restored confidence at the leadership level",
				AssignedTo:          "Account Executive",
				RelatedCorrelations: critical,
			},
			ActionRecommendation{
				Priority:            PriorityImmediate,
				Timeframe:           "This week",
				Action:              "Assign Dedicated Support Contact",
				Description:         "Give the customer a named support engineer who owns every open ticket until resolution.",
				ExpectedOutcome:     "Faster resolution and fewer escalations",
				AssignedTo:          "Support Manager",
				RelatedCorrelations: append([]string{}, critical...),
			},
		)
	}

	var feature []string
	for _, c := range correlations {
		if strings.Contains(c.Title, "Feature") {
			feature = append(feature, c.ID)
		}
	}
	if len(feature) > 0 {
		recs = append(recs, ActionRecommendation{
			Priority:            PriorityShortTerm,
			Timeframe:           "2-4 weeks",
			Action:              "Feature Retraining Program",
			Description:         "Run hands-on training sessions covering the recently launched functionality.",
			ExpectedOutcome:     "Lower support volume and higher feature adoption",
			AssignedTo:          "Customer Success Manager",
			RelatedCorrelations: feature,
		})
	}

	for _, in := range insights {
		if in.Type == InsightTrend && strings.Contains(strings.ToLower(in.Title), "engagement") {
			recs = append(recs, ActionRecommendation{
				Priority:            PriorityShortTerm,
				Timeframe:           "2-4 weeks",
				Action:              "Re-engagement Campaign",
				Description:         "Reach out to inactive stakeholders with tailored content and a check-in meeting.",
				ExpectedOutcome:     "Recovered engagement across key contacts",
				AssignedTo:          "Customer Success Manager",
				RelatedCorrelations: []string{},
			})
			break
		}
	}

	if len(signals) > 0 {
		var all, nps []string
		for _, s := range signals {
			all = append(all, string(s.Type))
			if s.Type == SignalNPSDrop {
				nps = append(nps, string(s.Type))
			}
		}
		if nps == nil {
			nps = []string{}
		}
		recs = append(recs,
			ActionRecommendation{
				Priority:            PriorityMediumTerm,
				Timeframe:           "1-3 months",
				Action:              "Account Recovery Plan",
				Description:         "Agree a written recovery plan with measurable milestones for every open risk.",
				ExpectedOutcome:     "Risk signals resolved and health score recovering",
				AssignedTo:          "Customer Success Manager",
				RelatedCorrelations: all,
			},
			ActionRecommendation{
				Priority:            PriorityMediumTerm,
				Timeframe:           "1-3 months",
				Action:              "NPS Follow-up Survey",
				Description:         "Survey the customer again once the recovery plan is under way to measure sentiment.",
				ExpectedOutcome:     "Confirmed improvement in customer sentiment",
				AssignedTo:          "Customer Success Manager",
				RelatedCorrelations: nps,
			},
		)
	}
	return recs
}
