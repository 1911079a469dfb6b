package crossref

import "sort"

// AggregatePatterns groups correlations by exact title. Every title seen at least
// twice becomes a pattern; patterns are ranked by risk rank times frequency with
// ties kept in first-seen order.
func AggregatePatterns(correlations []Correlation) []CorrelationPattern {
	order, groups := groupByTitle(correlations)

	patterns := []CorrelationPattern{}
	for _, title := range order {
		members := groups[title]
		if len(members) < 2 {
			continue
		}
		patterns = append(patterns, CorrelationPattern{
			Title:        title,
			Frequency:    len(members),
			RiskLevel:    patternRisk(members),
			Correlations: members,
		})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].RiskLevel.Rank()*patterns[i].Frequency > patterns[j].RiskLevel.Rank()*patterns[j].Frequency
	})
	return patterns
}

// groupByTitle is a single reduction over the input. The returned groups are
// freshly allocated and never touched again.
func groupByTitle(correlations []Correlation) ([]string, map[string][]Correlation) {
	var order []string
	groups := make(map[string][]Correlation)
	for _, c := range correlations {
		if _, seen := groups[c.Title]; !seen {
			order = append(order, c.Title)
		}
		groups[c.Title] = append(groups[c.Title], c)
	}
	return order, groups
}

func patternRisk(members []Correlation) RiskLevel {
	for _, c := range members {
		if c.Strength == StrengthVeryStrong {
			return RiskCritical
		}
	}
	for _, c := range members {
		if c.Strength == StrengthStrong {
			return RiskHigh
		}
	}
	if len(members) >= 3 {
		return RiskMedium
	}
	return RiskLow
}
