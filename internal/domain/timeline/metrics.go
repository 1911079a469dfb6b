package timeline

import "github.com/shopspring/decimal"

// Metrics is the closed set of per-source measurement variants attached to an
// event. Only the types in this file implement it.
type Metrics interface {
	Source() Source
	isMetrics()
}

// UsageMetrics carries product activity volume for a period
type UsageMetrics struct {
	TotalEvents float64 `json:"total_events"`
	ActiveUsers float64 `json:"active_users"`
}

// SupportMetrics carries ticket attributes
type SupportMetrics struct {
	Escalated bool     `json:"escalated"`
	CSAT      *float64 `json:"csat,omitempty"`
	Priority  string   `json:"priority,omitempty"`
}

// NPSMetrics carries a survey response
type NPSMetrics struct {
	Score float64 `json:"nps_score"`
}

// MeetingMetrics carries meeting attributes
type MeetingMetrics struct {
	Attendees int    `json:"attendees"`
	Sentiment string `json:"sentiment,omitempty"`
}

// InvoiceMetrics carries billing state for a single invoice
type InvoiceMetrics struct {
	DaysLate int             `json:"days_late"`
	Amount   decimal.Decimal `json:"amount"`
	Status   string          `json:"status,omitempty"`
}

// IsOutstanding reports whether the invoice is still unpaid
func (m InvoiceMetrics) IsOutstanding() bool {
	switch m.Status {
	case "outstanding", "unpaid", "overdue":
		return true
	}
	return false
}

// EmailMetrics carries correspondence engagement counts
type EmailMetrics struct {
	Opens   int `json:"opens"`
	Replies int `json:"replies"`
}

// SystemMetrics is attached to system generated events; it has no fields
type SystemMetrics struct{}

func (UsageMetrics) Source() Source   { return SourceUsage }
func (SupportMetrics) Source() Source { return SourceSupport }
func (NPSMetrics) Source() Source     { return SourceNPS }
func (MeetingMetrics) Source() Source { return SourceMeeting }
func (InvoiceMetrics) Source() Source { return SourceInvoice }
func (EmailMetrics) Source() Source   { return SourceEmail }
func (SystemMetrics) Source() Source  { return SourceSystem }

func (UsageMetrics) isMetrics()   {}
func (SupportMetrics) isMetrics() {}
func (NPSMetrics) isMetrics()     {}
func (MeetingMetrics) isMetrics() {}
func (InvoiceMetrics) isMetrics() {}
func (EmailMetrics) isMetrics()   {}
func (SystemMetrics) isMetrics()  {}
