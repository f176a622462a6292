package methodology

import (
	"fmt"
	"strings"
)

type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "critical"
	SeverityError    IssueSeverity = "error"
	SeverityWarning  IssueSeverity = "warning"
	SeverityInfo     IssueSeverity = "info"
)

type Issue struct {
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// ValidationResult captures how well one response holds up against one
// framework.
type ValidationResult struct {
	Agent      string        `json:"agent"`
	Framework  Framework     `json:"framework"`
	Score      float64       `json:"score"`
	Adherence  float64       `json:"adherence"`
	Compliance string        `json:"compliance"`
	Issues     []Issue       `json:"issues,omitempty"`
	Strengths  []string      `json:"strengths,omitempty"`
}

var severityWeights = map[IssueSeverity]float64{
	SeverityCritical: 0.3,
	SeverityError:    0.2,
	SeverityWarning:  0.1,
	SeverityInfo:     0.05,
}

// Validate scores text against a framework. Unknown frameworks get a
// neutral result rather than an error so a custom persona can name a
// framework the validator has no spec for.
func Validate(agent string, framework Framework, text string) *ValidationResult {
	spec, ok := frameworks[framework]
	if !ok {
		return &ValidationResult{
			Agent:      agent,
			Framework:  framework,
			Score:      1.0,
			Adherence:  1.0,
			Compliance: "excellent",
		}
	}

	lower := strings.ToLower(text)

	result := &ValidationResult{Agent: agent, Framework: framework}

	covered := 0
	for _, concept := range spec.concepts {
		if strings.Contains(lower, concept) {
			covered++
			result.Strengths = append(result.Strengths, concept)
		}
	}
	if covered*2 < len(spec.concepts) {
		result.Issues = append(result.Issues, Issue{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("covers %d of %d %s concepts", covered, len(spec.concepts), framework),
		})
	}

	for phrase, severity := range spec.violations {
		if strings.Contains(lower, phrase) {
			result.Issues = append(result.Issues, Issue{
				Severity: severity,
				Message:  fmt.Sprintf("mentions %q", phrase),
			})
		}
	}

	result.Score = computeScore(result.Issues, len(result.Strengths))
	result.Adherence = computeAdherence(result.Score, result.Issues)
	result.Compliance = complianceBucket(result.Score)
	return result
}

// ValidateAgent runs the text through every framework the agent is
// held to.
func ValidateAgent(agent, text string) []*ValidationResult {
	var results []*ValidationResult
	for _, f := range ForAgent(agent) {
		results = append(results, Validate(agent, f, text))
	}
	return results
}

func computeScore(issues []Issue, strengths int) float64 {
	score := 1.0
	for _, issue := range issues {
		score -= severityWeights[issue.Severity]
	}

	bonus := float64(strengths) * 0.05
	if bonus > 0.2 {
		bonus = 0.2
	}
	score += bonus

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

// computeAdherence applies floor penalties on top of the raw score:
// any critical issue caps hard, repeated errors cap moderately.
func computeAdherence(score float64, issues []Issue) float64 {
	criticals := 0
	errors := 0
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			criticals++
		case SeverityError:
			errors++
		}
	}

	adherence := score
	if criticals > 0 {
		adherence = score - 0.4
		if adherence < 0.3 {
			adherence = 0.3
		}
	} else if errors > 1 {
		adherence = score - 0.2
		if adherence < 0.5 {
			adherence = 0.5
		}
	}
	return adherence
}

func complianceBucket(score float64) string {
	switch {
	case score >= 0.9:
		return "excellent"
	case score >= 0.75:
		return "good"
	case score >= 0.6:
		return "fair"
	default:
		return "poor"
	}
}
