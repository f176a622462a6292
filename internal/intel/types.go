package intel

// AgentResponse is the normalized output of one consultant run. The
// intelligence layer only reads these; producing them is the
// orchestration engine's job.
type AgentResponse struct {
	Agent          string            `json:"agent"`
	Recommendation string            `json:"recommendation"`
	Analysis       string            `json:"analysis,omitempty"`
	Methodology    string            `json:"methodology,omitempty"`
	Confidence     float64           `json:"confidence"`
	Decisions      map[string]string `json:"decisions,omitempty"`
}

func (r *AgentResponse) text() string {
	return r.Recommendation + " " + r.Analysis
}

// developmentAreas is the shared keyword vocabulary for expertise
// overlaps and consensus themes.
var developmentAreas = []string{
	"database", "authentication", "api", "frontend", "backend",
	"cache", "deployment", "testing", "security", "performance",
	"architecture", "framework", "library", "pattern", "storage",
	"queue", "logging", "monitoring",
}

// agentHierarchy decides who wins a toss-up. Higher outranks lower.
var agentHierarchy = map[string]int{
	"senior-architect":    5,
	"security-consultant": 4,
	"ux-strategist":       3,
	"backend-builder":     2,
	"frontend-builder":    2,
}

func HierarchyRank(agent string) int {
	if rank, ok := agentHierarchy[agent]; ok {
		return rank
	}
	return 1
}
