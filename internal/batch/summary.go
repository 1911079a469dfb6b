package batch

import (
	"sort"
	"time"

	"github.com/davidleathers/account-intelligence-backend/internal/service/crossref"
)

// Outcome describes one successfully analyzed account
type Outcome struct {
	Path        string             `json:"path"`
	CustomerID  string             `json:"customer_id"`
	SessionID   string             `json:"session_id"`
	RiskLevel   crossref.RiskLevel `json:"risk_level"`
	HealthScore int                `json:"health_score"`
	Location    string             `json:"location"`
}

// Failure describes one input that could not be analyzed or stored
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Summary reports a batch run
type Summary struct {
	Total       int                        `json:"total"`
	Succeeded   int                        `json:"succeeded"`
	Failed      int                        `json:"failed"`
	Skipped     int                        `json:"skipped"`
	ByRiskLevel map[crossref.RiskLevel]int `json:"by_risk_level"`
	Outcomes    []Outcome                  `json:"outcomes"`
	Failures    []Failure                  `json:"failures"`
	Duration    time.Duration              `json:"duration"`
}

func newSummary(total int) *Summary {
	return &Summary{
		Total:       total,
		ByRiskLevel: make(map[crossref.RiskLevel]int),
		Outcomes:    []Outcome{},
		Failures:    []Failure{},
	}
}

func (s *Summary) succeed(o Outcome) {
	s.Succeeded++
	s.ByRiskLevel[o.RiskLevel]++
	s.Outcomes = append(s.Outcomes, o)
}

func (s *Summary) fail(path string, err error) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{Path: path, Error: err.Error()})
}

// finalize orders outcomes and failures by path so a summary does not depend on
// goroutine scheduling
func (s *Summary) finalize(elapsed time.Duration) {
	s.Skipped = s.Total - s.Succeeded - s.Failed
	s.Duration = elapsed
	sort.Slice(s.Outcomes, func(i, j int) bool { return s.Outcomes[i].Path < s.Outcomes[j].Path })
	sort.Slice(s.Failures, func(i, j int) bool { return s.Failures[i].Path < s.Failures[j].Path })
}
