package timeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/errors"
)

// Document is the JSON form of a timeline handed over by the event normalizer
type Document struct {
	CustomerID      string             `json:"customer_id" validate:"required"`
	CustomerName    string             `json:"customer_name"`
	Events          []EventDocument    `json:"events" validate:"dive"`
	HealthSnapshots []SnapshotDocument `json:"health_snapshots" validate:"dive"`
}

// EventDocument is the JSON form of one event. Metrics keep the normalizer's flat
// key names and are mapped onto the typed variant selected by Source.
type EventDocument struct {
	ID          string                 `json:"id" validate:"required"`
	Date        string                 `json:"date" validate:"required"`
	Source      string                 `json:"source" validate:"required,oneof=usage support nps meeting invoice email system"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Severity    string                 `json:"severity" validate:"required,oneof=positive neutral warning critical"`
	Metrics     map[string]interface{} `json:"metrics"`
	Confidence  float64                `json:"confidence" validate:"gte=0,lte=1"`
}

// SnapshotDocument is the JSON form of one health snapshot
type SnapshotDocument struct {
	Date       string             `json:"date" validate:"required"`
	Score      float64            `json:"score" validate:"gte=0,lte=100"`
	Components map[string]float64 `json:"components"`
}

var validate = validator.New()

// Decode reads, validates and converts a timeline document
func Decode(r io.Reader) (*UnifiedTimeline, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.NewValidationError("INVALID_DOCUMENT", "timeline document is not valid JSON").WithCause(err)
	}
	return doc.Timeline()
}

// Timeline validates the document and converts it into a UnifiedTimeline
func (d *Document) Timeline() (*UnifiedTimeline, error) {
	if err := validate.Struct(d); err != nil {
		return nil, errors.NewValidationError("INVALID_DOCUMENT", "timeline document failed validation").WithCause(err)
	}

	events := make([]Event, 0, len(d.Events))
	for _, ed := range d.Events {
		date, err := parseDate(ed.Date)
		if err != nil {
			return nil, errors.NewValidationError("INVALID_EVENT_DATE", fmt.Sprintf("event %s has invalid date %q", ed.ID, ed.Date)).WithCause(err)
		}
		source := Source(ed.Source)
		metrics, err := decodeMetrics(source, ed.Metrics)
		if err != nil {
			return nil, errors.NewValidationError("INVALID_EVENT_METRICS", fmt.Sprintf("event %s has invalid metrics", ed.ID)).WithCause(err)
		}
		events = append(events, Event{
			ID:          ed.ID,
			Date:        date,
			Source:      source,
			Type:        ed.Type,
			Title:       ed.Title,
			Description: ed.Description,
			Severity:    Severity(ed.Severity),
			Metrics:     metrics,
			Confidence:  ed.Confidence,
		})
	}

	snapshots := make([]HealthSnapshot, 0, len(d.HealthSnapshots))
	for _, sd := range d.HealthSnapshots {
		date, err := parseDate(sd.Date)
		if err != nil {
			return nil, errors.NewValidationError("INVALID_SNAPSHOT_DATE", fmt.Sprintf("snapshot has invalid date %q", sd.Date)).WithCause(err)
		}
		components := make(map[Component]float64, len(sd.Components))
		for k, v := range sd.Components {
			components[Component(k)] = v
		}
		snapshots = append(snapshots, HealthSnapshot{Date: date, Score: sd.Score, Components: components})
	}

	return New(d.CustomerID, d.CustomerName, events, snapshots), nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

func decodeMetrics(source Source, raw map[string]interface{}) (Metrics, error) {
	switch source {
	case SourceUsage:
		total, err := number(raw, "total_events")
		if err != nil {
			return nil, err
		}
		users, err := number(raw, "active_users")
		if err != nil {
			return nil, err
		}
		return UsageMetrics{TotalEvents: total, ActiveUsers: users}, nil

	case SourceSupport:
		escalated, err := number(raw, "escalated")
		if err != nil {
			return nil, err
		}
		m := SupportMetrics{Escalated: escalated == 1, Priority: text(raw, "priority")}
		if _, ok := raw["csat"]; ok {
			csat, err := number(raw, "csat")
			if err != nil {
				return nil, err
			}
			m.CSAT = &csat
		}
		return m, nil

	case SourceNPS:
		score, err := number(raw, "nps_score")
		if err != nil {
			return nil, err
		}
		return NPSMetrics{Score: score}, nil

	case SourceMeeting:
		attendees, err := number(raw, "attendees")
		if err != nil {
			return nil, err
		}
		return MeetingMetrics{Attendees: int(attendees), Sentiment: text(raw, "sentiment")}, nil

	case SourceInvoice:
		daysLate, err := number(raw, "days_late")
		if err != nil {
			return nil, err
		}
		amt, err := amount(raw, "amount")
		if err != nil {
			return nil, err
		}
		if amt.IsNegative() {
			return nil, fmt.Errorf("metric amount: negative value %s", amt.String())
		}
		return InvoiceMetrics{DaysLate: int(daysLate), Amount: amt, Status: strings.ToLower(text(raw, "status"))}, nil

	case SourceEmail:
		opens, err := number(raw, "opens")
		if err != nil {
			return nil, err
		}
		replies, err := number(raw, "replies")
		if err != nil {
			return nil, err
		}
		return EmailMetrics{Opens: int(opens), Replies: int(replies)}, nil
	}
	return SystemMetrics{}, nil
}

// number reads a numeric metric. Absent keys read as zero; booleans read as 0/1.
func number(raw map[string]interface{}, key string) (float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		if n == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("metric %s: %w", key, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("metric %s: unsupported type %T", key, v)
}

func amount(raw map[string]interface{}, key string) (decimal.Decimal, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return decimal.Zero, nil
	}
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		if n == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(n)
	}
	return decimal.Zero, fmt.Errorf("metric %s: unsupported type %T", key, v)
}

func text(raw map[string]interface{}, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}
