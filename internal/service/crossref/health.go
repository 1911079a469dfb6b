package crossref

import (
	"math"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
)

type healthFactor struct {
	name      string
	component timeline.Component
	weight    float64
}

var healthFactors = []healthFactor{
	{"Usage", timeline.ComponentUsage, WeightUsage},
	{"Support", timeline.ComponentSupport, WeightSupport},
	{"Sentiment", timeline.ComponentSentiment, WeightSentiment},
	{"Financial", timeline.ComponentFinancial, WeightFinancial},
	{"Engagement", timeline.ComponentEngagement, WeightEngagement},
}

// CalculateHealthView computes the composite health score. Support and
// engagement come from events; usage, sentiment and financial come from the
// latest snapshot with fixed defaults when absent.
func CalculateHealthView(tl *timeline.UnifiedTimeline) CustomerHealthView {
	escalations := 0
	for _, e := range tl.BySource(timeline.SourceSupport) {
		if e.Support().Escalated {
			escalations++
		}
	}
	meetings := len(tl.BySource(timeline.SourceMeeting))
	emails := len(tl.BySource(timeline.SourceEmail))

	components := map[timeline.Component]float64{
		timeline.ComponentUsage:      DefaultUsageScore,
		timeline.ComponentSupport:    math.Max(0, float64(100-15*escalations)),
		timeline.ComponentSentiment:  DefaultSentimentScore,
		timeline.ComponentFinancial:  DefaultFinancialScore,
		timeline.ComponentEngagement: math.Min(100, float64(50+10*meetings+2*emails)),
	}
	if latest, ok := tl.LatestSnapshot(); ok {
		for _, c := range []timeline.Component{timeline.ComponentUsage, timeline.ComponentSentiment, timeline.ComponentFinancial} {
			if v, ok := latest.Component(c); ok {
				components[c] = v
			}
		}
	}

	var total float64
	factors := make([]WeightedFactor, 0, len(healthFactors))
	for _, f := range healthFactors {
		score := components[f.component]
		total += score * f.weight
		factors = append(factors, WeightedFactor{
			Factor:       f.name,
			Weight:       f.weight,
			Score:        score,
			Contribution: int(math.Round(score * f.weight)),
		})
	}

	score := clampScore(int(math.Round(total)))
	return CustomerHealthView{
		UnifiedHealthScore: score,
		Category:           healthCategory(score),
		Trend:              healthTrend(tl.HealthSnapshots),
		ComponentScores:    components,
		WeightedFactors:    factors,
	}
}

func healthCategory(score int) HealthCategory {
	switch {
	case score >= HealthyThreshold:
		return HealthHealthy
	case score >= WarningThreshold:
		return HealthWarning
	}
	return HealthCritical
}

// healthTrend compares the latest snapshot with the one before it
func healthTrend(snaps []timeline.HealthSnapshot) Trend {
	if len(snaps) < 2 {
		return TrendStable
	}
	delta := snaps[len(snaps)-1].Score - snaps[len(snaps)-2].Score
	switch {
	case delta > TrendDeltaPoints:
		return TrendImproving
	case delta < -TrendDeltaPoints:
		return TrendDeclining
	}
	return TrendStable
}
