package orchestrate

import "strings"

// Request describes one development task handed to the engine.
type Request struct {
	Objective             string            `json:"objective"`
	Context               map[string]string `json:"context,omitempty"`
	Constraints           []string          `json:"constraints,omitempty"`
	TechnicalRequirements []string          `json:"technical_requirements,omitempty"`
	SuccessCriteria       string            `json:"success_criteria,omitempty"`
}

// TaskAnalysis is the assessment that drives pattern selection.
type TaskAnalysis struct {
	Indicators           []string `json:"indicators,omitempty"`
	ComplexityScore      int      `json:"complexity_score"`
	ComplexityLevel      string   `json:"complexity_level"`
	RequiredExpertise    []string `json:"required_expertise"`
	ConflictsLikely      bool     `json:"conflicts_likely"`
	ParallelWorkPossible bool     `json:"parallel_work_possible"`
	ArchitectureChange   bool     `json:"architecture_change"`
	Pattern              Pattern  `json:"pattern"`
	EstimatedSteps       int      `json:"estimated_steps"`
}

var complexityIndicators = map[string][]string{
	"multiple_systems":     {"integration", "microservice", "api", "database"},
	"security_critical":    {"security", "auth", "permission", "encryption"},
	"ui_component":         {"frontend", "ui", "interface", "component"},
	"architecture_change":  {"architecture", "design", "refactor", "restructure"},
	"performance_critical": {"performance", "optimization", "scaling", "speed"},
}

// expertiseRules map objective keywords to the persona that covers
// them, checked in hierarchy order so the expertise list is stable.
var expertiseRules = []struct {
	agent    string
	keywords []string
}{
	{"senior-architect", []string{"architecture", "design", "system", "integration"}},
	{"security-consultant", []string{"security", "auth", "permission", "encryption", "vulnerability"}},
	{"ux-strategist", []string{"ui", "ux", "user", "interface", "frontend"}},
	{"backend-builder", []string{"api", "backend", "server", "database", "microservice"}},
	{"frontend-builder", []string{"frontend", "ui", "react", "vue", "angular", "component"}},
}

var indicatorOrder = []string{
	"multiple_systems", "security_critical", "ui_component",
	"architecture_change", "performance_critical",
}

// Analyze assesses the task and selects the orchestration pattern.
func Analyze(req *Request) *TaskAnalysis {
	objective := strings.ToLower(req.Objective)

	a := &TaskAnalysis{}

	for _, name := range indicatorOrder {
		if containsAny(objective, complexityIndicators[name]) {
			a.Indicators = append(a.Indicators, name)
		}
	}
	a.ArchitectureChange = containsAny(objective, complexityIndicators["architecture_change"])
	a.ConflictsLikely = len(req.TechnicalRequirements) > 3 || len(req.Constraints) > 2
	a.ParallelWorkPossible = strings.Contains(objective, "analysis") || strings.Contains(objective, "review")

	a.ComplexityScore = len(a.Indicators)
	if a.ConflictsLikely {
		a.ComplexityScore++
	}
	if a.ParallelWorkPossible {
		a.ComplexityScore++
	}
	switch {
	case a.ComplexityScore >= 4:
		a.ComplexityLevel = "high"
	case a.ComplexityScore >= 2:
		a.ComplexityLevel = "medium"
	default:
		a.ComplexityLevel = "low"
	}

	for _, rule := range expertiseRules {
		if containsAny(objective, rule.keywords) {
			a.RequiredExpertise = append(a.RequiredExpertise, rule.agent)
		}
	}
	if len(a.RequiredExpertise) == 0 {
		a.RequiredExpertise = []string{"senior-architect"}
	}

	a.Pattern = selectPattern(a)
	a.EstimatedSteps = len(a.RequiredExpertise)
	return a
}

// selectPattern picks how the consultants run. A single expert needs no
// coordination; likely conflicts or an architecture change call for
// consensus; independent analysis work fans out; a large group led by
// the architect delegates.
func selectPattern(a *TaskAnalysis) Pattern {
	switch {
	case len(a.RequiredExpertise) == 1:
		return PatternSequential
	case a.ConflictsLikely || a.ArchitectureChange:
		return PatternConsensus
	case a.ParallelWorkPossible:
		return PatternMapReduce
	case contains(a.RequiredExpertise, "senior-architect") && len(a.RequiredExpertise) > 2:
		return PatternHierarchical
	default:
		return PatternSequential
	}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
