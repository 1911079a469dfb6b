package crossref

import (
	"fmt"
	"math"
	"strings"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
)

// weightMultiplier scales each source score in the combined mean
var weightMultiplier = map[RiskLevel]float64{
	RiskLow:      0.5,
	RiskMedium:   1,
	RiskHigh:     1.5,
	RiskCritical: 2,
}

// assessedSources are scored in this order
var assessedSources = []timeline.Source{
	timeline.SourceUsage,
	timeline.SourceSupport,
	timeline.SourceNPS,
	timeline.SourceMeeting,
	timeline.SourceInvoice,
}

// AssessRisk scores every observed source and combines the scores into an
// account-wide risk level
func AssessRisk(tl *timeline.UnifiedTimeline, correlations []Correlation) MultiSignalRiskAssessment {
	signals := []SourceRisk{}
	for _, src := range assessedSources {
		events := tl.BySource(src)
		if len(events) == 0 {
			continue
		}
		switch src {
		case timeline.SourceUsage:
			signals = append(signals, assessUsage(events, correlations))
		case timeline.SourceSupport:
			signals = append(signals, assessSupport(events))
		case timeline.SourceNPS:
			signals = append(signals, assessNPS(events))
		case timeline.SourceMeeting:
			signals = append(signals, assessMeetings(events))
		case timeline.SourceInvoice:
			signals = append(signals, assessInvoices(events))
		}
	}

	combined := combinedRiskScore(signals)
	return MultiSignalRiskAssessment{
		Signals:            signals,
		CombinedRiskScore:  combined,
		RiskLevel:          riskLevel(signals, combined),
		CompoundingFactors: compoundingFactors(signals, correlations),
	}
}

func assessUsage(events []timeline.Event, correlations []Correlation) SourceRisk {
	declining := false
	for _, c := range correlations {
		if hasSource(c.Sources, timeline.SourceUsage) && strings.Contains(strings.ToLower(c.Title), "decline") {
			declining = true
			break
		}
	}
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Title), "decline") {
			declining = true
			break
		}
	}

	if declining {
		return SourceRisk{Source: timeline.SourceUsage, RiskIndicator: "Usage declining", Weight: RiskHigh, Score: 30}
	}
	return SourceRisk{Source: timeline.SourceUsage, RiskIndicator: "Usage stable", Weight: RiskLow, Score: 80}
}

func assessSupport(events []timeline.Event) SourceRisk {
	escalations := 0
	var csatTotal float64
	csatCount := 0
	for _, e := range events {
		m := e.Support()
		if m.Escalated {
			escalations++
		}
		if m.CSAT != nil {
			csatTotal += *m.CSAT
			csatCount++
		}
	}

	lowCSAT := false
	indicator := fmt.Sprintf("%d escalations", escalations)
	if csatCount > 0 {
		avg := csatTotal / float64(csatCount)
		lowCSAT = avg < 3
		indicator = fmt.Sprintf("%d escalations, average CSAT %.1f", escalations, avg)
	}

	score := 100 - 15*escalations
	if lowCSAT {
		score -= 20
	}

	weight := RiskLow
	switch {
	case escalations >= 3:
		weight = RiskCritical
	case escalations >= 1:
		weight = RiskHigh
	case lowCSAT:
		weight = RiskMedium
	}

	return SourceRisk{Source: timeline.SourceSupport, RiskIndicator: indicator, Weight: weight, Score: max(0, score)}
}

func assessNPS(events []timeline.Event) SourceRisk {
	latest := events[len(events)-1].NPS().Score

	weight := RiskLow
	switch {
	case latest < 0:
		weight = RiskCritical
	case latest < NegativeNPSScore:
		weight = RiskHigh
	case latest < 50:
		weight = RiskMedium
	}

	return SourceRisk{
		Source:        timeline.SourceNPS,
		RiskIndicator: "Latest NPS " + formatScore(latest),
		Weight:        weight,
		Score:         clampScore(int(math.Round(latest + 50))),
	}
}

func assessMeetings(events []timeline.Event) SourceRisk {
	concerns := 0
	for _, e := range events {
		if e.Severity.IsNegative() {
			concerns++
		}
	}

	weight := RiskLow
	switch {
	case concerns >= 2:
		weight = RiskHigh
	case concerns >= 1:
		weight = RiskMedium
	}

	return SourceRisk{
		Source:        timeline.SourceMeeting,
		RiskIndicator: fmt.Sprintf("%d meetings raised concerns", concerns),
		Weight:        weight,
		Score:         max(0, 100-20*concerns),
	}
}

func assessInvoices(events []timeline.Event) SourceRisk {
	late, outstanding := 0, 0
	for _, e := range events {
		m := e.Invoice()
		if m.DaysLate > 0 {
			late++
		}
		if m.IsOutstanding() {
			outstanding++
		}
	}

	weight := RiskLow
	switch {
	case late >= 2:
		weight = RiskHigh
	case late >= 1 || outstanding >= 2:
		weight = RiskMedium
	}

	return SourceRisk{
		Source:        timeline.SourceInvoice,
		RiskIndicator: fmt.Sprintf("%d late payments, %d outstanding invoices", late, outstanding),
		Weight:        weight,
		Score:         max(0, 100-15*late-10*outstanding),
	}
}

func combinedRiskScore(signals []SourceRisk) int {
	if len(signals) == 0 {
		return DefaultCombinedRiskScore
	}
	var weighted, total float64
	for _, s := range signals {
		m := weightMultiplier[s.Weight]
		weighted += float64(s.Score) * m
		total += m
	}
	return clampScore(int(math.Round(weighted / total)))
}

func riskLevel(signals []SourceRisk, combined int) RiskLevel {
	critical, high := countWeights(signals)
	switch {
	case critical >= 2 || (critical >= 1 && high >= 2):
		return RiskCritical
	case critical >= 1 || high >= 2:
		return RiskHigh
	case high >= 1 || combined < MediumRiskScore:
		return RiskMedium
	}
	return RiskLow
}

func compoundingFactors(signals []SourceRisk, correlations []Correlation) []string {
	factors := []string{}

	critical, high := countWeights(signals)
	if critical+high >= 3 {
		factors = append(factors, fmt.Sprintf("%d data sources show high or critical risk at the same time", critical+high))
	}

	touched := make(map[timeline.Source]bool)
	for _, c := range correlations {
		for _, s := range c.Sources {
			touched[s] = true
		}
	}
	if len(touched) >= 3 {
		factors = append(factors, fmt.Sprintf("Detected correlations span %d data sources", len(touched)))
	}
	return factors
}

func countWeights(signals []SourceRisk) (critical, high int) {
	for _, s := range signals {
		switch s.Weight {
		case RiskCritical:
			critical++
		case RiskHigh:
			high++
		}
	}
	return critical, high
}

// elevatedSources returns the sources weighted high or critical
func elevatedSources(assessment MultiSignalRiskAssessment) []timeline.Source {
	var out []timeline.Source
	for _, s := range assessment.Signals {
		if s.Weight == RiskHigh || s.Weight == RiskCritical {
			out = append(out, s.Source)
		}
	}
	return out
}

func hasSource(sources []timeline.Source, s timeline.Source) bool {
	for _, src := range sources {
		if src == s {
			return true
		}
	}
	return false
}

func clampScore(v int) int {
	return min(100, max(0, v))
}
