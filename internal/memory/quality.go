package memory

// QualityThreshold is the minimum score for an entry to count as
// well-formed institutional memory.
const QualityThreshold = 0.8

type QualityCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

type QualityReport struct {
	Topic  string         `json:"topic"`
	Checks []QualityCheck `json:"checks"`
	Score  float64        `json:"score"`
	Passed bool           `json:"passed"`
}

// ScoreDecision checks the entry for the required structural parts.
// Score is the fraction of checks passed; an entry needs decision,
// rationale, date and at least one of alternatives/scope to clear the
// 0.8 threshold.
func ScoreDecision(d *Decision) *QualityReport {
	checks := []QualityCheck{
		{Name: "has_decision", Passed: d.Decision != ""},
		{Name: "has_rationale", Passed: d.Rationale != ""},
		{Name: "has_date", Passed: d.DecidedOn != ""},
		{Name: "has_alternatives", Passed: d.Alternatives != ""},
		{Name: "has_scope", Passed: d.Scope != ""},
	}

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	score := float64(passed) / float64(len(checks))

	return &QualityReport{
		Topic:  d.Topic,
		Checks: checks,
		Score:  score,
		Passed: score >= QualityThreshold,
	}
}

// ValidateAll scores every decision and returns the reports of the
// ones below threshold first.
func ValidateAll(decisions []*Decision) []*QualityReport {
	reports := make([]*QualityReport, 0, len(decisions))
	var failing []*QualityReport
	var passing []*QualityReport

	for _, d := range decisions {
		r := ScoreDecision(d)
		if r.Passed {
			passing = append(passing, r)
		} else {
			failing = append(failing, r)
		}
	}

	reports = append(reports, failing...)
	reports = append(reports, passing...)
	return reports
}
