package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNew_SortsAndIndexes(t *testing.T) {
	events := []Event{
		{ID: "e3", Date: day("2025-03-02"), Source: SourceSupport},
		{ID: "e1", Date: day("2025-03-01").Add(15 * time.Hour), Source: SourceUsage},
		{ID: "e2", Date: day("2025-03-01"), Source: SourceSupport},
	}

	tl := New("c-1", "Acme", events, nil)

	require.Len(t, tl.Events, 3)
	assert.Equal(t, "e1", tl.Events[0].ID, "stable sort keeps input order within a day")
	assert.Equal(t, "e2", tl.Events[1].ID)
	assert.Equal(t, "e3", tl.Events[2].ID)
	assert.Equal(t, day("2025-03-01"), tl.Events[0].Date, "dates are truncated to the calendar day")

	assert.Len(t, tl.BySource(SourceSupport), 2)
	assert.Len(t, tl.BySource(SourceUsage), 1)
	assert.Empty(t, tl.BySource(SourceNPS))

	assert.Len(t, tl.OnDate(day("2025-03-01").Add(9*time.Hour)), 2)
	assert.Equal(t, []time.Time{day("2025-03-01"), day("2025-03-02")}, tl.Dates())
	assert.Equal(t, []Source{SourceUsage, SourceSupport}, tl.ObservedSources())
}

func TestNew_IndicesPartitionEvents(t *testing.T) {
	var events []Event
	for i, src := range AllSources {
		events = append(events, Event{ID: string(src), Date: day("2025-01-01").AddDate(0, 0, i%3), Source: src})
	}
	tl := New("c-1", "Acme", events, nil)

	bySource, byDate := 0, 0
	for _, s := range AllSources {
		bySource += len(tl.BySource(s))
	}
	for _, d := range tl.Dates() {
		byDate += len(tl.OnDate(d))
	}
	assert.Equal(t, len(events), bySource)
	assert.Equal(t, len(events), byDate)
}

func TestUnifiedTimeline_LiteralIsIndexedOnDemand(t *testing.T) {
	tl := &UnifiedTimeline{Events: []Event{{ID: "a", Date: day("2025-01-01"), Source: SourceNPS}}}
	assert.Len(t, tl.BySource(SourceNPS), 1)
	assert.Len(t, tl.OnDate(day("2025-01-01")), 1)
	assert.Nil(t, tl.byDate, "literal timelines are never mutated")
}

func TestNormalize(t *testing.T) {
	literal := &UnifiedTimeline{
		CustomerID: "c-1",
		Events: []Event{
			{ID: "b", Date: day("2025-01-02"), Source: SourceNPS},
			{ID: "a", Date: day("2025-01-01"), Source: SourceUsage},
		},
	}

	tl := Normalize(literal)

	require.NotSame(t, literal, tl)
	assert.True(t, tl.Indexed())
	assert.False(t, literal.Indexed())
	assert.Equal(t, "a", tl.Events[0].ID)
	assert.Equal(t, []time.Time{day("2025-01-01"), day("2025-01-02")}, tl.Dates())

	indexed := New("c-1", "", nil, nil)
	assert.Same(t, indexed, Normalize(indexed))
	assert.Nil(t, Normalize(nil))
}

func TestLatestSnapshot(t *testing.T) {
	tl := New("c-1", "Acme", nil, nil)
	_, ok := tl.LatestSnapshot()
	assert.False(t, ok)

	tl = New("c-1", "Acme", nil, []HealthSnapshot{
		{Date: day("2025-02-01"), Score: 60},
		{Date: day("2025-01-01"), Score: 80},
	})
	latest, ok := tl.LatestSnapshot()
	require.True(t, ok)
	assert.Equal(t, 60.0, latest.Score)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 30, DaysBetween(day("2025-01-01"), day("2025-01-31")))
	assert.Equal(t, -1, DaysBetween(day("2025-01-02"), day("2025-01-01")))
	assert.Equal(t, 0, DaysBetween(day("2025-01-01").Add(23*time.Hour), day("2025-01-01")))
}

func TestEventAccessors_MissingMetricsReadAsZero(t *testing.T) {
	e := Event{Source: SourceNPS}
	assert.Equal(t, 0.0, e.NPS().Score)
	assert.True(t, e.Invoice().Amount.IsZero())
	assert.False(t, e.Support().Escalated)

	e.Metrics = NPSMetrics{Score: 42}
	assert.Equal(t, 42.0, e.NPS().Score)
	assert.Equal(t, 0.0, e.Usage().TotalEvents, "mismatched variant reads as zero")
}

func TestSeverity_IsNegative(t *testing.T) {
	assert.True(t, SeverityWarning.IsNegative())
	assert.True(t, SeverityCritical.IsNegative())
	assert.False(t, SeverityNeutral.IsNegative())
	assert.False(t, SeverityPositive.IsNegative())
}
