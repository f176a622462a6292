package intel

import "strings"

// QualityMetric is one measured dimension with its pass threshold.
type QualityMetric struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Passed    bool    `json:"passed"`
}

type QualityMetrics struct {
	Metrics []QualityMetric `json:"metrics"`
}

func (q *QualityMetrics) AllPassed() bool {
	for _, m := range q.Metrics {
		if !m.Passed {
			return false
		}
	}
	return true
}

func (q *QualityMetrics) Get(name string) (QualityMetric, bool) {
	for _, m := range q.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return QualityMetric{}, false
}

var complexityIndicators = []string{
	"multiple services", "distributed", "microservice", "integration",
	"legacy", "real-time", "concurrent", "cross-platform",
}

// MeasureQuality derives the solution quality metrics from the task
// description and the agent responses. Each dimension carries its own
// threshold; the numbers are heuristics, the thresholds are policy.
func MeasureQuality(task string, responses []*AgentResponse) *QualityMetrics {
	taskLower := strings.ToLower(task)

	combined := strings.Builder{}
	for _, r := range responses {
		combined.WriteString(strings.ToLower(r.text()))
		combined.WriteString(" ")
	}
	all := combined.String()

	metrics := []QualityMetric{
		metric("complexity", complexityScore(taskLower), 0.6),
		metric("security_coverage", securityScore(all, responses), 0.8),
		metric("test_coverage", testScore(all), 0.6),
		metric("tech_debt", techDebtScore(all), 0.7),
		metric("maintainability", maintainabilityScore(all), 0.7),
	}

	return &QualityMetrics{Metrics: metrics}
}

func metric(name string, value, threshold float64) QualityMetric {
	return QualityMetric{Name: name, Value: value, Threshold: threshold, Passed: value >= threshold}
}

// complexityScore starts at 1.0 and loses 0.2 per indicator; a task
// mentioning four or more is considered barely manageable (0.1 floor).
func complexityScore(task string) float64 {
	count := 0
	for _, ind := range complexityIndicators {
		if strings.Contains(task, ind) {
			count++
		}
	}

	score := 1.0 - float64(count)*0.2
	if score < 0.1 {
		score = 0.1
	}
	return score
}

func securityScore(all string, responses []*AgentResponse) float64 {
	hasSecurityAgent := false
	for _, r := range responses {
		if r.Agent == "security-consultant" {
			hasSecurityAgent = true
			break
		}
	}
	if !hasSecurityAgent {
		return 0.3
	}

	score := 0.5
	if strings.Contains(all, "security analysis") || strings.Contains(all, "vulnerability") {
		score += 0.2
	}
	if strings.Contains(all, "threat model") {
		score += 0.2
	}
	if strings.Contains(all, "compliance") {
		score += 0.1
	}
	return score
}

func testScore(all string) float64 {
	score := 0.0
	for _, w := range []string{"unit test", "integration test", "test coverage", "test plan", "testing strategy"} {
		if strings.Contains(all, w) {
			score += 0.2
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// techDebtScore is 1.0 minus accumulated risk: quick fixes add risk,
// refactoring intent takes it away.
func techDebtScore(all string) float64 {
	risk := 0.0
	for _, w := range []string{"quick fix", "workaround", "hack", "temporary"} {
		if strings.Contains(all, w) {
			risk += 0.2
		}
	}
	for _, w := range []string{"refactor", "best practices", "clean up"} {
		if strings.Contains(all, w) {
			risk -= 0.1
		}
	}
	if risk < 0 {
		risk = 0
	}
	if risk > 1 {
		risk = 1
	}
	return 1.0 - risk
}

func maintainabilityScore(all string) float64 {
	score := 0.5
	for _, w := range []string{"documentation", "modular", "separation of concerns", "naming", "readability"} {
		if strings.Contains(all, w) {
			score += 0.1
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
