package crossref

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
)

var base = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// on returns the date n days after base
func on(n int) time.Time {
	return base.AddDate(0, 0, n)
}

func usageEvent(id string, d int, total float64) timeline.Event {
	return timeline.Event{
		ID: id, Date: on(d), Source: timeline.SourceUsage, Type: "usage_summary",
		Severity: timeline.SeverityNeutral,
		Metrics:  timeline.UsageMetrics{TotalEvents: total},
	}
}

func supportEvent(id string, d int, escalated bool) timeline.Event {
	return timeline.Event{
		ID: id, Date: on(d), Source: timeline.SourceSupport, Type: "ticket",
		Title: "Ticket " + id, Severity: timeline.SeverityNeutral,
		Metrics: timeline.SupportMetrics{Escalated: escalated},
	}
}

func supportWithCSAT(id string, d int, csat float64) timeline.Event {
	e := supportEvent(id, d, false)
	e.Metrics = timeline.SupportMetrics{CSAT: &csat}
	return e
}

func npsEvent(id string, d int, score float64) timeline.Event {
	return timeline.Event{
		ID: id, Date: on(d), Source: timeline.SourceNPS, Type: "survey",
		Title: "NPS survey", Severity: timeline.SeverityNeutral,
		Metrics: timeline.NPSMetrics{Score: score},
	}
}

func meetingEvent(id string, d int, sev timeline.Severity) timeline.Event {
	return timeline.Event{
		ID: id, Date: on(d), Source: timeline.SourceMeeting, Type: "qbr",
		Title: "QBR " + id, Severity: sev,
		Metrics: timeline.MeetingMetrics{Attendees: 4},
	}
}

func invoiceEvent(id string, d, daysLate int, amount int64, status string) timeline.Event {
	return timeline.Event{
		ID: id, Date: on(d), Source: timeline.SourceInvoice, Type: "invoice",
		Title: "Invoice " + id, Severity: timeline.SeverityNeutral,
		Metrics: timeline.InvoiceMetrics{DaysLate: daysLate, Amount: decimal.NewFromInt(amount), Status: status},
	}
}

func launchEvent(id string, d int) timeline.Event {
	return timeline.Event{
		ID: id, Date: on(d), Source: timeline.SourceSystem, Type: "feature_release",
		Title: "Reporting v2 launch", Severity: timeline.SeverityPositive,
		Metrics: timeline.SystemMetrics{},
	}
}

func criticalEvent(id string, d int, src timeline.Source) timeline.Event {
	return timeline.Event{
		ID: id, Date: on(d), Source: src, Type: "incident",
		Title: "Incident " + id, Severity: timeline.SeverityCritical,
	}
}

func snapshot(d int, score float64, components map[timeline.Component]float64) timeline.HealthSnapshot {
	return timeline.HealthSnapshot{Date: on(d), Score: score, Components: components}
}

func newTimeline(events ...timeline.Event) *timeline.UnifiedTimeline {
	return timeline.New("cust-1", "Acme Corp", events, nil)
}

func withSnapshots(snaps ...timeline.HealthSnapshot) *timeline.UnifiedTimeline {
	return timeline.New("cust-1", "Acme Corp", nil, snaps)
}

func titles(cs []Correlation) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Title
	}
	return out
}

func byTitle(cs []Correlation, title string) []Correlation {
	var out []Correlation
	for _, c := range cs {
		if c.Title == title {
			out = append(out, c)
		}
	}
	return out
}
