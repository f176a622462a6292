package orchestrate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kortex-labs/memory-enforce/internal/intel"
)

// Synthesis folds the individual responses into one piece of guidance.
type Synthesis struct {
	Recommendations []string `json:"recommendations"`
	Approach        string   `json:"approach"`
	Risks           []string `json:"risks,omitempty"`
	Mitigations     []string `json:"mitigations,omitempty"`
	QualityGates    []string `json:"quality_gates"`
	FollowUps       []string `json:"follow_ups,omitempty"`
	Confidence      float64  `json:"confidence"`
}

var approachByAgent = map[string]string{
	"senior-architect":    "Architecture-driven development with clear component boundaries",
	"security-consultant": "Security-first implementation with comprehensive threat mitigation",
	"backend-builder":     "API-first backend development with clean separation of concerns",
	"frontend-builder":    "Component-driven frontend development with accessibility focus",
	"ux-strategist":       "User-centered design validated through research and iteration",
}

var standardGates = []string{
	"Unit test coverage >= 80%",
	"Integration testing complete",
	"Code review approved",
}

// Synthesize aggregates responses: recommendations ranked by how often
// they repeat, risks derived from overlapping expertise areas, and
// confidence as the plain mean.
func Synthesize(req *Request, responses []*intel.AgentResponse) *Synthesis {
	s := &Synthesis{}
	if len(responses) == 0 {
		return s
	}

	var recommendations []string
	total := 0.0
	consulted := make(map[string]bool)
	for _, r := range responses {
		if r.Recommendation != "" {
			recommendations = append(recommendations, r.Recommendation)
		}
		total += r.Confidence
		consulted[r.Agent] = true
	}
	s.Recommendations = intel.RankStrings(recommendations)
	s.Confidence = total / float64(len(responses))

	var approaches []string
	for _, r := range responses {
		if a, ok := approachByAgent[r.Agent]; ok {
			approaches = append(approaches, a)
		}
	}
	if len(approaches) > 0 {
		s.Approach = strings.Join(approaches, " | ")
	} else {
		s.Approach = "Standard development approach with quality focus"
	}

	for _, overlap := range intel.DetectOverlaps(responses) {
		for _, area := range overlap.Areas {
			s.Risks = appendUnique(s.Risks,
				fmt.Sprintf("Conflicting guidance possible on %s between %s and %s",
					area, overlap.Agents[0], overlap.Agents[1]))
		}
	}
	s.Mitigations = mitigationsFor(s.Risks)

	gates := make(map[string]bool)
	for _, r := range responses {
		switch r.Agent {
		case "security-consultant":
			gates["Security review and vulnerability assessment"] = true
		case "senior-architect":
			gates["Architecture compliance and design review"] = true
		case "backend-builder", "frontend-builder":
			gates["Code quality review and testing validation"] = true
		}
	}
	for _, gate := range standardGates {
		gates[gate] = true
	}
	for gate := range gates {
		s.QualityGates = append(s.QualityGates, gate)
	}
	sort.Strings(s.QualityGates)

	objective := strings.ToLower(req.Objective)
	if strings.Contains(objective, "security") && !consulted["security-consultant"] {
		s.FollowUps = append(s.FollowUps, "security-consultant for a security analysis")
	}
	if (strings.Contains(objective, "ui") || strings.Contains(objective, "frontend")) && !consulted["ux-strategist"] {
		s.FollowUps = append(s.FollowUps, "ux-strategist for user experience guidance")
	}

	return s
}

func mitigationsFor(risks []string) []string {
	var out []string
	for _, risk := range risks {
		lower := strings.ToLower(risk)
		switch {
		case strings.Contains(lower, "security"):
			out = appendUnique(out, "Implement comprehensive security testing and code review")
		case strings.Contains(lower, "performance"):
			out = appendUnique(out, "Conduct performance testing and optimization analysis")
		case strings.Contains(lower, "integration"):
			out = appendUnique(out, "Develop an integration testing strategy and API contracts")
		default:
			out = appendUnique(out, "Resolve through the designated conflict resolver")
		}
	}
	return out
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
