// Package timeline holds the shared vocabulary of account activity consumed by
// the analysis engine: events, their per-source metrics, health snapshots and the
// unified per-account timeline.
package timeline

import (
	"math"
	"time"
)

// Source identifies the data channel an event originated from
type Source string

const (
	SourceUsage   Source = "usage"
	SourceSupport Source = "support"
	SourceNPS     Source = "nps"
	SourceMeeting Source = "meeting"
	SourceInvoice Source = "invoice"
	SourceEmail   Source = "email"
	SourceSystem  Source = "system"
)

// AllSources lists every source in canonical order
var AllSources = []Source{
	SourceUsage,
	SourceSupport,
	SourceNPS,
	SourceMeeting,
	SourceInvoice,
	SourceEmail,
	SourceSystem,
}

// IsValid reports whether s is a known source
func (s Source) IsValid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// Severity is the qualitative polarity of a single event
type Severity string

const (
	SeverityPositive Severity = "positive"
	SeverityNeutral  Severity = "neutral"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// IsNegative reports whether the severity is warning or critical
func (s Severity) IsNegative() bool {
	return s == SeverityWarning || s == SeverityCritical
}

// Event is an immutable fact produced by the upstream event normalizer
type Event struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Source      Source    `json:"source"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Metrics     Metrics   `json:"metrics,omitempty"`
	Confidence  float64   `json:"confidence"`
}

// Usage returns the usage metrics of the event, or zero values when absent
func (e Event) Usage() UsageMetrics {
	m, _ := e.Metrics.(UsageMetrics)
	return m
}

// Support returns the support metrics of the event, or zero values when absent
func (e Event) Support() SupportMetrics {
	m, _ := e.Metrics.(SupportMetrics)
	return m
}

// NPS returns the survey metrics of the event, or zero values when absent
func (e Event) NPS() NPSMetrics {
	m, _ := e.Metrics.(NPSMetrics)
	return m
}

// Meeting returns the meeting metrics of the event, or zero values when absent
func (e Event) Meeting() MeetingMetrics {
	m, _ := e.Metrics.(MeetingMetrics)
	return m
}

// Invoice returns the invoice metrics of the event, or zero values when absent
func (e Event) Invoice() InvoiceMetrics {
	m, _ := e.Metrics.(InvoiceMetrics)
	return m
}

// Email returns the email metrics of the event, or zero values when absent
func (e Event) Email() EmailMetrics {
	m, _ := e.Metrics.(EmailMetrics)
	return m
}

// Component names one dimension of a health snapshot
type Component string

const (
	ComponentUsage      Component = "usage"
	ComponentSupport    Component = "support"
	ComponentSentiment  Component = "sentiment"
	ComponentFinancial  Component = "financial"
	ComponentEngagement Component = "engagement"
)

// HealthSnapshot is the composite score recorded for one observation period
type HealthSnapshot struct {
	Date       time.Time             `json:"date"`
	Score      float64               `json:"score"`
	Components map[Component]float64 `json:"components"`
}

// Component returns the named component score and whether it was recorded
func (h HealthSnapshot) Component(c Component) (float64, bool) {
	v, ok := h.Components[c]
	return v, ok
}

// DateOf truncates t to its calendar date in UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from a to b.
// The result is negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(DateOf(b).Sub(DateOf(a)).Hours() / 24))
}

func dateKey(t time.Time) string {
	return DateOf(t).Format(time.DateOnly)
}
