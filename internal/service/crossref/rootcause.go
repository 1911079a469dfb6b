package crossref

import (
	"fmt"
	"sort"
	"time"
)

// AnalyzeRootCause reconstructs the cascade behind elevated risk from temporal and
// causal correlations. It returns nil when the risk level is low or when no such
// correlation exists; neither case is an error.
//
// The primary issue is the correlation whose earliest evidence is earliest, so the
// primary issue and the head of the cascade chain agree. Ties keep list order.
func AnalyzeRootCause(correlations []Correlation, level RiskLevel) *RootCauseAnalysis {
	if level == RiskLow {
		return nil
	}

	var selected []Correlation
	for _, c := range correlations {
		if c.Type == CorrelationTemporal || c.Type == CorrelationCausal {
			selected = append(selected, c)
		}
	}
	if len(selected) == 0 {
		return nil
	}

	primary := selected[0]
	primaryAt := triggeredAt(primary)
	for _, c := range selected[1:] {
		if at := triggeredAt(c); at.Before(primaryAt) {
			primary, primaryAt = c, at
		}
	}

	return &RootCauseAnalysis{
		PrimaryIssue: Issue{
			Title:       primary.Title,
			Description: primary.Insight,
			TriggeredAt: primaryAt,
			Sources:     primary.Sources,
		},
		SecondaryIssues: secondaryIssues(correlations),
		CascadeChain:    cascadeChain(selected),
		ConfidenceScore: primary.Confidence,
	}
}

// triggeredAt is the date of the earliest evidence event, falling back to the
// earliest chain link for correlations derived from snapshots
func triggeredAt(c Correlation) time.Time {
	var earliest time.Time
	for _, e := range c.Events {
		if earliest.IsZero() || e.Date.Before(earliest) {
			earliest = e.Date
		}
	}
	if earliest.IsZero() {
		for _, l := range c.Chain {
			if earliest.IsZero() || l.Date.Before(earliest) {
				earliest = l.Date
			}
		}
	}
	return earliest
}

func cascadeChain(selected []Correlation) []ChainLink {
	seen := make(map[string]bool)
	chain := []ChainLink{}
	for _, c := range selected {
		for _, l := range c.Chain {
			if seen[l.Event] {
				continue
			}
			seen[l.Event] = true
			chain = append(chain, l)
		}
	}
	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].Date.Before(chain[j].Date)
	})
	return chain
}

func secondaryIssues(correlations []Correlation) []Issue {
	issues := []Issue{}
	for _, c := range correlations {
		if c.Type == CorrelationTemporal {
			continue
		}
		issues = append(issues, Issue{
			Title:        c.Title,
			Description:  c.Insight,
			TriggeredAt:  triggeredAt(c),
			Sources:      c.Sources,
			Relationship: fmt.Sprintf("%s correlation with %s strength", c.Type, c.Strength),
		})
		if len(issues) == MaxSecondaryIssues {
			break
		}
	}
	return issues
}
