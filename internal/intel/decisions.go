package intel

import (
	"sort"
	"strings"
)

// DecisionPoint is a choice the humans still have to make: multiple
// agents answered the same decision key with different recommendations.
type DecisionPoint struct {
	Key           string            `json:"key"`
	Options       map[string]string `json:"options"`
	Impact        string            `json:"impact"`
	Effort        string            `json:"effort"`
	Risk          string            `json:"risk"`
	Reversibility string            `json:"reversibility"`
}

// ExtractDecisionPoints keeps only keys where at least two agents
// answered and their recommendations actually differ.
func ExtractDecisionPoints(responses []*AgentResponse) []*DecisionPoint {
	options := map[string]map[string]string{}

	for _, r := range responses {
		for key, rec := range r.Decisions {
			if options[key] == nil {
				options[key] = map[string]string{}
			}
			options[key][r.Agent] = rec
		}
	}

	var points []*DecisionPoint
	for key, opts := range options {
		if len(opts) < 2 || !recommendationsDiffer(opts) {
			continue
		}

		combined := key
		for _, rec := range opts {
			combined += " " + rec
		}
		combined = strings.ToLower(combined)

		points = append(points, &DecisionPoint{
			Key:           key,
			Options:       opts,
			Impact:        gradeByKeywords(combined, impactHigh, impactMedium),
			Effort:        gradeByKeywords(combined, effortHigh, effortMedium),
			Risk:          gradeByKeywords(combined, riskHigh, riskMedium),
			Reversibility: gradeReversibility(combined),
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Key < points[j].Key })
	return points
}

func recommendationsDiffer(opts map[string]string) bool {
	var first string
	started := false
	for _, rec := range opts {
		norm := strings.ToLower(strings.TrimSpace(rec))
		if !started {
			first = norm
			started = true
			continue
		}
		if norm != first {
			return true
		}
	}
	return false
}

var (
	impactHigh   = []string{"architecture", "database", "security", "framework"}
	impactMedium = []string{"api", "pattern", "library"}

	effortHigh   = []string{"migration", "rewrite", "overhaul", "redesign"}
	effortMedium = []string{"integrate", "implement", "build"}

	riskHigh   = []string{"untested", "experimental", "unknown", "unproven"}
	riskMedium = []string{"third-party", "dependency", "external"}
)

func gradeByKeywords(text string, high, medium []string) string {
	for _, w := range high {
		if strings.Contains(text, w) {
			return "high"
		}
	}
	for _, w := range medium {
		if strings.Contains(text, w) {
			return "medium"
		}
	}
	return "low"
}

func gradeReversibility(text string) string {
	for _, w := range []string{"schema", "data migration", "public api", "contract"} {
		if strings.Contains(text, w) {
			return "hard"
		}
	}
	for _, w := range []string{"config", "flag", "internal"} {
		if strings.Contains(text, w) {
			return "easy"
		}
	}
	return "moderate"
}
