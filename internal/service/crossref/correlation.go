package crossref

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
)

// Correlation titles. Patterns group on these exact strings.
const (
	TitleFeatureSupport      = "Feature Launch Followed by Support Surge"
	TitleEscalationNPS       = "Support Escalations Preceded NPS Drop"
	TitleUsageDecline        = "Significant Usage Decline"
	TitleCriticalCluster     = "Critical Event Cluster"
	TitleMultiChannel        = "Multi-Channel Dissatisfaction"
	TitlePaymentDelay        = "Dissatisfaction Preceded Payment Delay"
	TitleSentimentEngagement = "Sentiment and Engagement Falling Together"
	TitleHealthDrop          = "Sharp Health Score Drop"
	TitleLowActivity         = "Unusually Low Activity"
)

// correlationNamespace seeds name-based correlation IDs so identical input always
// yields identical IDs.
var correlationNamespace = uuid.MustParse("6f1c2a8e-4b7d-5e93-a0c4-2d8f7b1e9c35")

type detector func(tl *timeline.UnifiedTimeline) []Correlation

// detectors run in this order; it is also the tie-break order when two
// correlations rank equally.
var detectors = []detector{
	detectFeatureSupport,
	detectEscalationNPS,
	detectUsageDecline,
	detectCriticalClusters,
	detectMultiChannelDissatisfaction,
	detectPaymentDelay,
	detectSentimentEngagement,
	detectHealthDrops,
	detectLowActivity,
}

// DetectCorrelations scans the timeline with every detector, ranks the results by
// strength rank times confidence and caps them at opts.MaxCorrelations.
func DetectCorrelations(tl *timeline.UnifiedTimeline, opts Options) []Correlation {
	tl = timeline.Normalize(tl)
	all := []Correlation{}
	for _, detect := range detectors {
		all = append(all, detect(tl)...)
	}

	if opts.EnforceCorrelationThreshold {
		kept := all[:0]
		for _, c := range all {
			if c.Confidence >= opts.CorrelationThreshold {
				kept = append(kept, c)
			}
		}
		all = kept
	}

	rankCorrelations(all)

	if opts.MaxCorrelations > 0 && len(all) > opts.MaxCorrelations {
		all = all[:opts.MaxCorrelations]
	}
	return all
}

// rankCorrelations sorts by score descending. The sort is stable, so equal scores
// keep detection order.
func rankCorrelations(cs []Correlation) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Score() > cs[j].Score()
	})
}

func detectFeatureSupport(tl *timeline.UnifiedTimeline) []Correlation {
	var out []Correlation
	support := tl.BySource(timeline.SourceSupport)

	for _, launch := range tl.Events {
		if !isLaunch(launch) {
			continue
		}

		var tickets []timeline.Event
		for _, s := range support {
			d := timeline.DaysBetween(launch.Date, s.Date)
			if d > 0 && d <= FeatureSupportWindowDays {
				tickets = append(tickets, s)
			}
		}

		n := len(tickets)
		if n < FeatureSupportMinTickets {
			continue
		}

		strength := StrengthModerate
		switch {
		case n >= 10:
			strength = StrengthVeryStrong
		case n >= 5:
			strength = StrengthStrong
		}

		evidence := append([]timeline.Event{launch}, tickets...)
		out = append(out, newCorrelation(correlationDraft{
			kind:       CorrelationTemporal,
			strength:   strength,
			confidence: 0.5 + 0.05*float64(n),
			title:      TitleFeatureSupport,
			description: fmt.Sprintf("%d support tickets were opened within %d days of %q",
				n, FeatureSupportWindowDays, label(launch)),
			events: evidence,
			chain: []ChainLink{
				link(label(launch), launch),
				delayedLink(fmt.Sprintf("%d support tickets", n), launch, tickets[0], fmt.Sprintf("+%d tickets", n)),
			},
			insight:        "Users are struggling to adopt the new functionality and are turning to support for help.",
			recommendation: "Run targeted training and in-app guidance for the launched feature.",
		}))
	}
	return out
}

func detectEscalationNPS(tl *timeline.UnifiedTimeline) []Correlation {
	var out []Correlation
	support := tl.BySource(timeline.SourceSupport)

	for _, survey := range tl.BySource(timeline.SourceNPS) {
		score := survey.NPS().Score
		if score >= NegativeNPSScore {
			continue
		}

		var escalations []timeline.Event
		for _, s := range support {
			if !s.Support().Escalated {
				continue
			}
			d := timeline.DaysBetween(s.Date, survey.Date)
			if d > 0 && d <= EscalationNPSWindowDays {
				escalations = append(escalations, s)
			}
		}
		if len(escalations) < EscalationNPSMinEscalations {
			continue
		}

		evidence := append(append([]timeline.Event{}, escalations...), survey)
		out = append(out, newCorrelation(correlationDraft{
			kind:       CorrelationTemporal,
			strength:   StrengthStrong,
			confidence: 0.85,
			title:      TitleEscalationNPS,
			description: fmt.Sprintf("%d escalated tickets in the %d days before an NPS response of %s",
				len(escalations), EscalationNPSWindowDays, formatScore(score)),
			events: evidence,
			chain: []ChainLink{
				link(fmt.Sprintf("%d escalated support tickets", len(escalations)), escalations[0]),
				delayedLink(label(survey), escalations[0], survey, "NPS "+formatScore(score)),
			},
			insight:        "Unresolved escalations are eroding customer sentiment.",
			recommendation: "Review every open escalation with the customer and close the loop on each one.",
		}))
	}
	return out
}

func detectUsageDecline(tl *timeline.UnifiedTimeline) []Correlation {
	var out []Correlation
	usage := tl.BySource(timeline.SourceUsage)

	for i := 1; i < len(usage); i++ {
		prev, cur := usage[i-1], usage[i]
		before, after := prev.Usage().TotalEvents, cur.Usage().TotalEvents
		if before <= 0 || after >= UsageDeclineRatio*before {
			continue
		}

		strength := StrengthStrong
		if after < UsageSevereDeclineRatio*before {
			strength = StrengthVeryStrong
		}
		drop := int(math.Round((1 - after/before) * 100))

		out = append(out, newCorrelation(correlationDraft{
			kind:        CorrelationTemporal,
			strength:    strength,
			confidence:  0.9,
			title:       TitleUsageDecline,
			description: fmt.Sprintf("Usage fell from %s to %s events (%d%% drop)", formatScore(before), formatScore(after), drop),
			sources:     []timeline.Source{timeline.SourceUsage},
			events:      []timeline.Event{prev, cur},
			chain: []ChainLink{
				link(label(prev), prev),
				delayedLink(label(cur), prev, cur, fmt.Sprintf("-%d%%", drop)),
			},
			insight:        "Product engagement is falling sharply, an early indicator of churn risk.",
			recommendation: "Schedule a usage review to find blockers and re-engage key users.",
		}))
	}
	return out
}

func detectCriticalClusters(tl *timeline.UnifiedTimeline) []Correlation {
	var out []Correlation

	for _, date := range tl.Dates() {
		var critical []timeline.Event
		for _, e := range tl.OnDate(date) {
			if e.Severity == timeline.SeverityCritical {
				critical = append(critical, e)
			}
		}
		if len(critical) < CriticalClusterMinEvents {
			continue
		}

		strength := StrengthStrong
		if len(critical) >= CriticalClusterVeryStrongEvents {
			strength = StrengthVeryStrong
		}

		chain := make([]ChainLink, 0, len(critical))
		for _, e := range critical {
			chain = append(chain, link(label(e), e))
		}
		sources := sourcesOf(critical)

		out = append(out, newCorrelation(correlationDraft{
			kind:       CorrelationClustering,
			strength:   strength,
			confidence: 0.9,
			title:      TitleCriticalCluster,
			description: fmt.Sprintf("%d critical events across %s on %s",
				len(critical), joinSources(sources), date.Format("2006-01-02")),
			sources:        sources,
			events:         critical,
			chain:          chain,
			insight:        "Several critical issues surfaced on the same day, pointing to a systemic problem.",
			recommendation: "Convene a cross-functional review of the affected areas.",
		}))
	}
	return out
}

func detectMultiChannelDissatisfaction(tl *timeline.UnifiedTimeline) []Correlation {
	var out []Correlation

	for _, date := range tl.Dates() {
		var support, negative []timeline.Event
		for _, e := range tl.OnDate(date) {
			switch {
			case e.Source == timeline.SourceSupport:
				support = append(support, e)
			case e.Source == timeline.SourceNPS && e.NPS().Score < NegativeNPSScore:
				negative = append(negative, e)
			case e.Source == timeline.SourceMeeting && e.Severity.IsNegative():
				negative = append(negative, e)
			}
		}
		if len(support) == 0 || len(negative) == 0 {
			continue
		}

		evidence := append(append([]timeline.Event{}, support...), negative...)
		chain := make([]ChainLink, 0, len(evidence))
		for _, e := range evidence {
			chain = append(chain, link(label(e), e))
		}
		sources := sourcesOf(evidence)

		out = append(out, newCorrelation(correlationDraft{
			kind:       CorrelationClustering,
			strength:   StrengthModerate,
			confidence: 0.75,
			title:      TitleMultiChannel,
			description: fmt.Sprintf("Dissatisfaction surfaced through %s on %s",
				joinSources(sources), date.Format("2006-01-02")),
			sources:        sources,
			events:         evidence,
			chain:          chain,
			insight:        "The customer is voicing frustration through several channels at once.",
			recommendation: "Assign a single owner to respond consistently across support and account channels.",
		}))
	}
	return out
}

func detectPaymentDelay(tl *timeline.UnifiedTimeline) []Correlation {
	var out []Correlation

	var sentiment []timeline.Event
	for _, e := range tl.Events {
		if e.Source == timeline.SourceNPS || e.Source == timeline.SourceMeeting {
			sentiment = append(sentiment, e)
		}
	}

	for _, invoice := range tl.BySource(timeline.SourceInvoice) {
		daysLate := invoice.Invoice().DaysLate
		if daysLate <= PaymentDelayDays {
			continue
		}

		var negative []timeline.Event
		for _, e := range sentiment {
			d := timeline.DaysBetween(e.Date, invoice.Date)
			if d > 0 && d <= PaymentLookbackDays && isDissatisfied(e) {
				negative = append(negative, e)
			}
		}
		if len(negative) == 0 {
			continue
		}

		chain := make([]ChainLink, 0, len(negative)+1)
		for _, e := range negative {
			chain = append(chain, link(label(e), e))
		}
		chain = append(chain, delayedLink(label(invoice), negative[0], invoice, fmt.Sprintf("%d days late", daysLate)))

		out = append(out, newCorrelation(correlationDraft{
			kind:       CorrelationCausal,
			strength:   StrengthModerate,
			confidence: 0.7,
			title:      TitlePaymentDelay,
			description: fmt.Sprintf("Invoice paid %d days late after %d negative sentiment signals in the prior %d days",
				daysLate, len(negative), PaymentLookbackDays),
			events:         append(append([]timeline.Event{}, negative...), invoice),
			chain:          chain,
			insight:        "Payment behaviour is reflecting dissatisfaction with the relationship.",
			recommendation: "Resolve outstanding satisfaction concerns before escalating collections.",
		}))
	}
	return out
}

func detectSentimentEngagement(tl *timeline.UnifiedTimeline) []Correlation {
	var out []Correlation
	snaps := tl.HealthSnapshots

	for i := 2; i < len(snaps); i++ {
		base, cur := snaps[i-2], snaps[i]
		sentBefore, ok1 := base.Component(timeline.ComponentSentiment)
		sentAfter, ok2 := cur.Component(timeline.ComponentSentiment)
		engBefore, ok3 := base.Component(timeline.ComponentEngagement)
		engAfter, ok4 := cur.Component(timeline.ComponentEngagement)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		if sentBefore-sentAfter <= SentimentDropPoints || engBefore-engAfter <= EngagementDropPoints {
			continue
		}

		delay := timeline.DaysBetween(base.Date, cur.Date)
		out = append(out, newCorrelation(correlationDraft{
			kind:       CorrelationInverse,
			strength:   StrengthModerate,
			confidence: 0.65,
			title:      TitleSentimentEngagement,
			description: fmt.Sprintf("Sentiment fell %s points and engagement fell %s points over two periods",
				formatScore(sentBefore-sentAfter), formatScore(engBefore-engAfter)),
			sources: []timeline.Source{timeline.SourceNPS, timeline.SourceMeeting},
			key:     base.Date.Format("2006-01-02") + "|" + cur.Date.Format("2006-01-02"),
			chain: []ChainLink{
				{Event: fmt.Sprintf("Sentiment %s, engagement %s", formatScore(sentBefore), formatScore(engBefore)), Date: base.Date},
				{Event: fmt.Sprintf("Sentiment %s, engagement %s", formatScore(sentAfter), formatScore(engAfter)), Date: cur.Date, DelayDays: &delay},
			},
			insight: "Falling sentiment is pulling engagement down with it.",
		}))
	}
	return out
}

func detectHealthDrops(tl *timeline.UnifiedTimeline) []Correlation {
	var out []Correlation
	snaps := tl.HealthSnapshots

	for i := 1; i < len(snaps); i++ {
		prev, cur := snaps[i-1], snaps[i]
		drop := prev.Score - cur.Score
		if drop < HealthDropPoints {
			continue
		}

		strength := StrengthStrong
		if drop >= HealthSevereDropPoints {
			strength = StrengthVeryStrong
		}

		delay := timeline.DaysBetween(prev.Date, cur.Date)
		out = append(out, newCorrelation(correlationDraft{
			kind:        CorrelationAnomaly,
			strength:    strength,
			confidence:  0.85,
			title:       TitleHealthDrop,
			description: fmt.Sprintf("Health score dropped %s points from %s to %s", formatScore(drop), formatScore(prev.Score), formatScore(cur.Score)),
			sources:     []timeline.Source{timeline.SourceSystem},
			key:         prev.Date.Format("2006-01-02") + "|" + cur.Date.Format("2006-01-02"),
			chain: []ChainLink{
				{Event: "Health score " + formatScore(prev.Score), Date: prev.Date},
				{Event: "Health score " + formatScore(cur.Score), Date: cur.Date, DelayDays: &delay, Impact: "-" + formatScore(drop) + " points"},
			},
			insight:        "Account health deteriorated abruptly between observations.",
			recommendation: "Investigate what changed in the account during this period.",
		}))
	}
	return out
}

func detectLowActivity(tl *timeline.UnifiedTimeline) []Correlation {
	usage := tl.BySource(timeline.SourceUsage)
	if len(usage) == 0 {
		return nil
	}

	var total float64
	for _, e := range usage {
		total += e.Usage().TotalEvents
	}
	avg := total / float64(len(usage))
	if avg <= LowActivityMinAverage {
		return nil
	}

	var out []Correlation
	for _, e := range usage {
		v := e.Usage().TotalEvents
		if v >= LowActivityRatio*avg {
			continue
		}
		out = append(out, newCorrelation(correlationDraft{
			kind:        CorrelationAnomaly,
			strength:    StrengthModerate,
			confidence:  0.7,
			title:       TitleLowActivity,
			description: fmt.Sprintf("%s events recorded against an average of %s", formatScore(v), formatScore(avg)),
			sources:     []timeline.Source{timeline.SourceUsage},
			events:      []timeline.Event{e},
			chain:       []ChainLink{{Event: label(e), Date: e.Date, Impact: fmt.Sprintf("%d%% of average", int(math.Round(v/avg*100)))}},
			insight:     "Activity in this period was far below the account's normal level.",
		}))
	}
	return out
}

type correlationDraft struct {
	kind           CorrelationType
	strength       Strength
	confidence     float64
	title          string
	description    string
	sources        []timeline.Source
	events         []timeline.Event
	chain          []ChainLink
	insight        string
	recommendation string
	// key identifies correlations without evidence events
	key string
}

func newCorrelation(s correlationDraft) Correlation {
	sources := s.sources
	if sources == nil {
		sources = sourcesOf(s.events)
	}
	events := s.events
	if events == nil {
		events = []timeline.Event{}
	}

	name := []string{s.title, s.key}
	for _, e := range events {
		name = append(name, e.ID)
	}

	return Correlation{
		ID:             uuid.NewSHA1(correlationNamespace, []byte(strings.Join(name, "|"))).String(),
		Type:           s.kind,
		Strength:       s.strength,
		Confidence:     math.Min(MaxConfidence, s.confidence),
		Sources:        sources,
		Title:          s.title,
		Description:    s.description,
		Events:         events,
		Chain:          s.chain,
		Insight:        s.insight,
		Recommendation: s.recommendation,
	}
}

func isLaunch(e timeline.Event) bool {
	t := strings.ToLower(e.Type)
	return strings.Contains(t, "feature") || strings.Contains(t, "launch") || strings.Contains(t, "release")
}

// isDissatisfied reports a negative survey or meeting. A survey without a score
// reads as zero and therefore counts as negative.
func isDissatisfied(e timeline.Event) bool {
	if e.Severity.IsNegative() {
		return true
	}
	return e.Source == timeline.SourceNPS && e.NPS().Score < NegativeNPSScore
}

func link(name string, e timeline.Event) ChainLink {
	return ChainLink{Event: name, Date: e.Date}
}

func delayedLink(name string, from, to timeline.Event, impact string) ChainLink {
	delay := timeline.DaysBetween(from.Date, to.Date)
	return ChainLink{Event: name, Date: to.Date, DelayDays: &delay, Impact: impact}
}

// label names an event for chains and descriptions
func label(e timeline.Event) string {
	if e.Title != "" {
		return e.Title
	}
	if e.Type != "" {
		return fmt.Sprintf("%s %s", e.Source, e.Type)
	}
	return fmt.Sprintf("%s event on %s", e.Source, e.Date.Format("2006-01-02"))
}

// sourcesOf returns the distinct sources of events in canonical order
func sourcesOf(events []timeline.Event) []timeline.Source {
	seen := make(map[timeline.Source]bool, len(events))
	for _, e := range events {
		seen[e.Source] = true
	}
	out := make([]timeline.Source, 0, len(seen))
	for _, s := range timeline.AllSources {
		if seen[s] {
			out = append(out, s)
		}
	}
	return out
}

func joinSources(sources []timeline.Source) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func formatScore(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
