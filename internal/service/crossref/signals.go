package crossref

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
)

// DetectRiskSignals runs each discrete threshold check independently. Every check
// emits at most one signal.
func DetectRiskSignals(tl *timeline.UnifiedTimeline) []RiskSignal {
	signals := []RiskSignal{}
	checks := []func(*timeline.UnifiedTimeline) (RiskSignal, bool){
		checkUsageDecline,
		checkSupportSpike,
		checkNPSDrop,
		checkPaymentDelay,
	}
	for _, check := range checks {
		if s, ok := check(tl); ok {
			signals = append(signals, s)
		}
	}
	return signals
}

func checkUsageDecline(tl *timeline.UnifiedTimeline) (RiskSignal, bool) {
	usage := tl.BySource(timeline.SourceUsage)
	if len(usage) < 2 {
		return RiskSignal{}, false
	}
	older, newer := usage[len(usage)-2], usage[len(usage)-1]
	before, after := older.Usage().TotalEvents, newer.Usage().TotalEvents
	if before <= 0 {
		return RiskSignal{}, false
	}

	ratio := after / before
	if ratio >= SignalUsageDeclineRatio {
		return RiskSignal{}, false
	}

	severity := RiskHigh
	if ratio < SignalUsageSevereDeclineRatio {
		severity = RiskCritical
	}
	impact := int(math.Round((1 - ratio) * 100))

	return RiskSignal{
		Type:        SignalUsageDecline,
		Severity:    severity,
		Sources:     []timeline.Source{timeline.SourceUsage},
		Title:       "Usage Decline Detected",
		Description: fmt.Sprintf("Usage dropped %d%% between the two most recent periods", impact),
		Evidence: []string{
			fmt.Sprintf("%s: %s events", older.Date.Format("2006-01-02"), formatScore(before)),
			fmt.Sprintf("%s: %s events", newer.Date.Format("2006-01-02"), formatScore(after)),
		},
		DetectedAt:  newer.Date,
		ImpactScore: impact,
		Urgency:     UrgencyUsageDecline,
	}, true
}

func checkSupportSpike(tl *timeline.UnifiedTimeline) (RiskSignal, bool) {
	var escalated []timeline.Event
	for _, e := range tl.BySource(timeline.SourceSupport) {
		if e.Support().Escalated {
			escalated = append(escalated, e)
		}
	}
	n := len(escalated)
	if n < SignalMinEscalations {
		return RiskSignal{}, false
	}

	severity := RiskHigh
	if n >= SignalCriticalEscalations {
		severity = RiskCritical
	}

	evidence := make([]string, 0, n)
	for _, e := range escalated {
		evidence = append(evidence, fmt.Sprintf("%s: %s", e.Date.Format("2006-01-02"), label(e)))
	}

	return RiskSignal{
		Type:        SignalSupportSpike,
		Severity:    severity,
		Sources:     []timeline.Source{timeline.SourceSupport},
		Title:       "Support Escalation Spike",
		Description: fmt.Sprintf("%d support tickets have been escalated", n),
		Evidence:    evidence,
		DetectedAt:  escalated[n-1].Date,
		ImpactScore: min(100, 15*n),
		Urgency:     UrgencySupportSpike,
	}, true
}

func checkNPSDrop(tl *timeline.UnifiedTimeline) (RiskSignal, bool) {
	surveys := tl.BySource(timeline.SourceNPS)
	if len(surveys) < 2 {
		return RiskSignal{}, false
	}
	older, newer := surveys[len(surveys)-2], surveys[len(surveys)-1]
	before, after := older.NPS().Score, newer.NPS().Score
	delta := after - before
	if delta >= -SignalNPSDropPoints {
		return RiskSignal{}, false
	}

	severity := RiskHigh
	if after < 0 {
		severity = RiskCritical
	}

	return RiskSignal{
		Type:        SignalNPSDrop,
		Severity:    severity,
		Sources:     []timeline.Source{timeline.SourceNPS},
		Title:       "NPS Drop",
		Description: fmt.Sprintf("NPS fell %s points from %s to %s", formatScore(-delta), formatScore(before), formatScore(after)),
		Evidence: []string{
			fmt.Sprintf("%s: NPS %s", older.Date.Format("2006-01-02"), formatScore(before)),
			fmt.Sprintf("%s: NPS %s", newer.Date.Format("2006-01-02"), formatScore(after)),
		},
		DetectedAt:  newer.Date,
		ImpactScore: min(100, int(math.Round(math.Abs(delta)))),
		Urgency:     UrgencyNPSDrop,
	}, true
}

func checkPaymentDelay(tl *timeline.UnifiedTimeline) (RiskSignal, bool) {
	var late []timeline.Event
	total := decimal.Zero
	for _, e := range tl.BySource(timeline.SourceInvoice) {
		m := e.Invoice()
		if m.DaysLate > PaymentDelayDays {
			late = append(late, e)
			total = total.Add(m.Amount)
		}
	}
	if len(late) == 0 {
		return RiskSignal{}, false
	}

	severity := RiskMedium
	switch {
	case total.GreaterThan(decimal.NewFromInt(SignalCriticalLateAmount)):
		severity = RiskCritical
	case len(late) >= 2:
		severity = RiskHigh
	}

	evidence := make([]string, 0, len(late))
	for _, e := range late {
		m := e.Invoice()
		evidence = append(evidence, fmt.Sprintf("%s: %s %d days late", e.Date.Format("2006-01-02"), m.Amount.StringFixed(2), m.DaysLate))
	}

	impact := total.Div(decimal.NewFromInt(SignalLateAmountPerImpact)).Round(0).IntPart()

	return RiskSignal{
		Type:        SignalPaymentDelay,
		Severity:    severity,
		Sources:     []timeline.Source{timeline.SourceInvoice},
		Title:       "Payment Delay",
		Description: fmt.Sprintf("%d invoices paid more than %d days late totalling %s", len(late), PaymentDelayDays, total.StringFixed(2)),
		Evidence:    evidence,
		DetectedAt:  late[len(late)-1].Date,
		ImpactScore: int(max(0, min(100, impact))),
		Urgency:     UrgencyPaymentDelay,
	}, true
}
