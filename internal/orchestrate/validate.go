package orchestrate

import (
	"strings"

	"github.com/kortex-labs/memory-enforce/internal/intel"
	"github.com/kortex-labs/memory-enforce/internal/methodology"
)

// SynthesisCheck is one structural check on the synthesized guidance.
type SynthesisCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

type SynthesisValidation struct {
	Checks []SynthesisCheck `json:"checks"`
	Score  float64          `json:"score"`
	Passed bool             `json:"passed"`
}

// ValidateSynthesis runs the structural checks on the guidance. Success
// criteria count as met when at least half their keywords appear in the
// synthesized text.
func ValidateSynthesis(req *Request, s *Synthesis) *SynthesisValidation {
	checks := []SynthesisCheck{
		{Name: "has_recommendations", Passed: len(s.Recommendations) > 0},
		{Name: "has_approach", Passed: s.Approach != ""},
		{Name: "has_risk_assessment", Passed: len(s.Risks) == 0 || len(s.Mitigations) > 0},
		{Name: "has_quality_gates", Passed: len(s.QualityGates) > 0},
		{Name: "meets_success_criteria", Passed: meetsSuccessCriteria(req.SuccessCriteria, s)},
	}

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}
	score := float64(passed) / float64(len(checks))

	return &SynthesisValidation{Checks: checks, Score: score, Passed: score >= 0.8}
}

func meetsSuccessCriteria(criteria string, s *Synthesis) bool {
	if criteria == "" {
		return true
	}

	var b strings.Builder
	for _, r := range s.Recommendations {
		b.WriteString(strings.ToLower(r))
		b.WriteString(" ")
	}
	b.WriteString(strings.ToLower(s.Approach))
	text := b.String()

	keywords := strings.Fields(strings.ToLower(criteria))
	if len(keywords) == 0 {
		return true
	}

	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			matches++
		}
	}
	return matches*2 >= len(keywords)
}

// QualityThresholds hold the pass bars on a 0 to 100 scale.
type QualityThresholds struct {
	Overall              float64 `yaml:"overall" json:"overall"`
	Consistency          float64 `yaml:"consistency" json:"consistency"`
	Completeness         float64 `yaml:"completeness" json:"completeness"`
	MethodologyAdherence float64 `yaml:"methodology_adherence" json:"methodology_adherence"`
	Confidence           float64 `yaml:"confidence" json:"confidence"`
}

var DefaultQualityThresholds = QualityThresholds{
	Overall:              85.0,
	Consistency:          90.0,
	Completeness:         85.0,
	MethodologyAdherence: 85.0,
	Confidence:           80.0,
}

// QualityReport grades a finished run. Status is "pass" at or above the
// overall threshold, "partial" at 70 or above, "failed" below.
type QualityReport struct {
	Overall              float64 `json:"overall"`
	Consistency          float64 `json:"consistency"`
	Completeness         float64 `json:"completeness"`
	MethodologyAdherence float64 `json:"methodology_adherence"`
	Confidence           float64 `json:"confidence"`
	Status               string  `json:"status"`
}

// AssessQuality scores the run across its four dimensions and averages
// them into the overall grade.
func AssessQuality(responses []*intel.AgentResponse, validation *SynthesisValidation,
	adherence []*methodology.ValidationResult, synthesis *Synthesis,
	thresholds QualityThresholds) *QualityReport {

	report := &QualityReport{}

	report.Consistency = 60.0
	if responsesWellFormed(responses) {
		report.Consistency = 92.0
	}

	report.Completeness = 70.0
	if validation != nil && validation.Passed {
		report.Completeness = 95.0
	}

	report.MethodologyAdherence = 65.0
	if len(adherence) > 0 {
		total := 0.0
		for _, result := range adherence {
			total += result.Adherence
		}
		report.MethodologyAdherence = total / float64(len(adherence)) * 100
	}

	report.Confidence = 75.0
	if synthesis != nil && synthesis.Confidence > 0 {
		report.Confidence = synthesis.Confidence * 100
	}

	report.Overall = (report.Consistency + report.Completeness +
		report.MethodologyAdherence + report.Confidence) / 4

	switch {
	case report.Overall >= thresholds.Overall:
		report.Status = "pass"
	case report.Overall >= 70.0:
		report.Status = "partial"
	default:
		report.Status = "failed"
	}
	return report
}

func responsesWellFormed(responses []*intel.AgentResponse) bool {
	if len(responses) == 0 {
		return false
	}
	for _, r := range responses {
		if r.Agent == "" || r.Recommendation == "" {
			return false
		}
		if r.Confidence <= 0 || r.Confidence > 1 {
			return false
		}
	}
	return true
}
