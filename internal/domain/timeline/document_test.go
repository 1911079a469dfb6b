package timeline

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/errors"
)

const sampleDocument = `{
  "customer_id": "cust-1",
  "customer_name": "Acme Corp",
  "events": [
    {"id": "u1", "date": "2025-01-05", "source": "usage", "type": "usage_report", "severity": "neutral",
     "metrics": {"total_events": 1200, "active_users": 40}, "confidence": 1},
    {"id": "s1", "date": "2025-01-03T10:15:00Z", "source": "support", "type": "ticket", "severity": "warning",
     "metrics": {"escalated": 1, "csat": 2.5, "priority": "high"}, "confidence": 0.9},
    {"id": "i1", "date": "2025-01-10", "source": "invoice", "type": "invoice_late", "severity": "critical",
     "metrics": {"days_late": 25, "amount": "25000.50", "status": "Outstanding"}, "confidence": 1},
    {"id": "n1", "date": "2025-01-11", "source": "nps", "type": "survey", "severity": "critical",
     "metrics": {"nps_score": -10}, "confidence": 0.8}
  ],
  "health_snapshots": [
    {"date": "2025-01-01", "score": 72, "components": {"usage": 70, "sentiment": 65}}
  ]
}`

func TestDecode(t *testing.T) {
	tl, err := Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "cust-1", tl.CustomerID)
	assert.Equal(t, "Acme Corp", tl.CustomerName)
	require.Len(t, tl.Events, 4)
	assert.Equal(t, "s1", tl.Events[0].ID, "events are sorted chronologically")

	support := tl.Events[0].Support()
	assert.True(t, support.Escalated)
	require.NotNil(t, support.CSAT)
	assert.Equal(t, 2.5, *support.CSAT)
	assert.Equal(t, "high", support.Priority)

	usage := tl.BySource(SourceUsage)[0].Usage()
	assert.Equal(t, 1200.0, usage.TotalEvents)

	invoice := tl.BySource(SourceInvoice)[0].Invoice()
	assert.Equal(t, 25, invoice.DaysLate)
	assert.True(t, invoice.Amount.Equal(decimal.RequireFromString("25000.50")))
	assert.True(t, invoice.IsOutstanding())

	assert.Equal(t, -10.0, tl.BySource(SourceNPS)[0].NPS().Score)

	require.Len(t, tl.HealthSnapshots, 1)
	v, ok := tl.HealthSnapshots[0].Component(ComponentSentiment)
	assert.True(t, ok)
	assert.Equal(t, 65.0, v)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed json", `{"customer_id": `},
		{"missing customer id", `{"events": []}`},
		{"unknown source", `{"customer_id": "c", "events": [{"id": "x", "date": "2025-01-01", "source": "fax", "severity": "neutral"}]}`},
		{"bad severity", `{"customer_id": "c", "events": [{"id": "x", "date": "2025-01-01", "source": "usage", "severity": "meh"}]}`},
		{"confidence out of range", `{"customer_id": "c", "events": [{"id": "x", "date": "2025-01-01", "source": "usage", "severity": "neutral", "confidence": 1.5}]}`},
		{"bad date", `{"customer_id": "c", "events": [{"id": "x", "date": "01/02/2025", "source": "usage", "severity": "neutral"}]}`},
		{"bad metric", `{"customer_id": "c", "events": [{"id": "x", "date": "2025-01-01", "source": "usage", "severity": "neutral", "metrics": {"total_events": "lots"}}]}`},
		{"negative invoice amount", `{"customer_id": "c", "events": [{"id": "x", "date": "2025-01-01", "source": "invoice", "severity": "neutral", "metrics": {"days_late": 20, "amount": "-500"}}]}`},
		{"snapshot score out of range", `{"customer_id": "c", "health_snapshots": [{"date": "2025-01-01", "score": 140}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}
}

func TestDecode_MissingMetricsDefaultToZero(t *testing.T) {
	doc := `{"customer_id": "c", "events": [
		{"id": "n", "date": "2025-01-01", "source": "nps", "severity": "neutral"},
		{"id": "s", "date": "2025-01-01", "source": "support", "severity": "neutral", "metrics": {}}
	]}`
	tl, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 0.0, tl.BySource(SourceNPS)[0].NPS().Score)
	assert.Nil(t, tl.BySource(SourceSupport)[0].Support().CSAT)
}
