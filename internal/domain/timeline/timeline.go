package timeline

import (
	"sort"
	"time"
)

// UnifiedTimeline is the complete, chronologically ordered activity snapshot of
// one account. The date and source indices are derived once at construction and
// always partition Events.
type UnifiedTimeline struct {
	CustomerID      string           `json:"customer_id"`
	CustomerName    string           `json:"customer_name"`
	Events          []Event          `json:"events"`
	HealthSnapshots []HealthSnapshot `json:"health_snapshots"`

	byDate   map[string][]Event
	bySource map[Source][]Event
	dates    []time.Time
}

// New builds a UnifiedTimeline. Events and snapshots are copied, their dates
// truncated to calendar days and stably sorted; the indices are built in a single
// pass over the sorted events.
func New(customerID, customerName string, events []Event, snapshots []HealthSnapshot) *UnifiedTimeline {
	sorted := make([]Event, len(events))
	for i, e := range events {
		e.Date = DateOf(e.Date)
		sorted[i] = e
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	snaps := make([]HealthSnapshot, len(snapshots))
	for i, s := range snapshots {
		s.Date = DateOf(s.Date)
		snaps[i] = s
	}
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].Date.Before(snaps[j].Date)
	})

	tl := &UnifiedTimeline{
		CustomerID:      customerID,
		CustomerName:    customerName,
		Events:          sorted,
		HealthSnapshots: snaps,
	}
	tl.byDate, tl.bySource, tl.dates = index(sorted)
	return tl
}

func index(events []Event) (map[string][]Event, map[Source][]Event, []time.Time) {
	byDate := make(map[string][]Event)
	bySource := make(map[Source][]Event)
	var dates []time.Time

	for _, e := range events {
		key := dateKey(e.Date)
		if _, seen := byDate[key]; !seen {
			dates = append(dates, e.Date)
		}
		byDate[key] = append(byDate[key], e)
		bySource[e.Source] = append(bySource[e.Source], e)
	}
	return byDate, bySource, dates
}

// Indexed reports whether the timeline carries the indices built by New
func (t *UnifiedTimeline) Indexed() bool {
	return t.byDate != nil
}

// Normalize returns t when it is indexed. A timeline assembled as a literal is
// rebuilt through New so repeated lookups do not re-index every event.
func Normalize(t *UnifiedTimeline) *UnifiedTimeline {
	if t == nil || t.Indexed() {
		return t
	}
	return New(t.CustomerID, t.CustomerName, t.Events, t.HealthSnapshots)
}

// indices returns the derived views. A literal timeline is indexed on the fly and
// never written to, so it stays safe to share across goroutines; callers doing
// many lookups should Normalize first.
func (t *UnifiedTimeline) indices() (map[string][]Event, map[Source][]Event, []time.Time) {
	if t.byDate == nil {
		return index(t.Events)
	}
	return t.byDate, t.bySource, t.dates
}

// BySource returns the events of one source in chronological order
func (t *UnifiedTimeline) BySource(s Source) []Event {
	_, bySource, _ := t.indices()
	return bySource[s]
}

// OnDate returns the events recorded on the calendar date of d
func (t *UnifiedTimeline) OnDate(d time.Time) []Event {
	byDate, _, _ := t.indices()
	return byDate[dateKey(d)]
}

// Dates returns every calendar date carrying at least one event, ascending
func (t *UnifiedTimeline) Dates() []time.Time {
	_, _, dates := t.indices()
	return dates
}

// ObservedSources returns the sources with at least one event, in canonical order
func (t *UnifiedTimeline) ObservedSources() []Source {
	var out []Source
	for _, s := range AllSources {
		if len(t.BySource(s)) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// LatestSnapshot returns the most recent health snapshot, if any
func (t *UnifiedTimeline) LatestSnapshot() (HealthSnapshot, bool) {
	if len(t.HealthSnapshots) == 0 {
		return HealthSnapshot{}, false
	}
	return t.HealthSnapshots[len(t.HealthSnapshots)-1], true
}
