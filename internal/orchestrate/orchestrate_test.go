package orchestrate

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortex-labs/memory-enforce/internal/intel"
	"github.com/kortex-labs/memory-enforce/internal/methodology"
)

func TestAnalyzeSingleExpertSequential(t *testing.T) {
	a := Analyze(&Request{Objective: "Optimize database queries"})

	assert.Equal(t, []string{"backend-builder"}, a.RequiredExpertise)
	assert.Equal(t, PatternSequential, a.Pattern)
	assert.Equal(t, "low", a.ComplexityLevel)
}

func TestAnalyzeArchitectureChangeConsensus(t *testing.T) {
	a := Analyze(&Request{Objective: "Redesign the architecture of the payment api with a security review"})

	assert.True(t, a.ArchitectureChange)
	assert.Equal(t, PatternConsensus, a.Pattern)
	assert.Equal(t, []string{"senior-architect", "security-consultant", "backend-builder"}, a.RequiredExpertise)
}

func TestAnalyzeConstraintsForceConsensus(t *testing.T) {
	a := Analyze(&Request{
		Objective:   "Add the api and the frontend ui",
		Constraints: []string{"budget", "deadline", "compliance"},
	})

	assert.True(t, a.ConflictsLikely)
	assert.Equal(t, PatternConsensus, a.Pattern)
}

func TestAnalyzeReviewMapReduce(t *testing.T) {
	a := Analyze(&Request{Objective: "Review the api security posture and user interface flows"})

	require.Greater(t, len(a.RequiredExpertise), 1)
	assert.True(t, a.ParallelWorkPossible)
	assert.Equal(t, PatternMapReduce, a.Pattern)
}

func TestAnalyzeHierarchical(t *testing.T) {
	a := Analyze(&Request{Objective: "Build the payment system integration with api security and frontend components"})

	assert.Contains(t, a.RequiredExpertise, "senior-architect")
	require.Greater(t, len(a.RequiredExpertise), 2)
	assert.Equal(t, PatternHierarchical, a.Pattern)
	assert.Equal(t, "medium", a.ComplexityLevel)
}

func TestLoaderBuiltins(t *testing.T) {
	loader := NewLoader(t.TempDir())

	p, err := loader.Load("senior-architect")
	require.NoError(t, err)
	assert.Equal(t, "senior-architect", p.Identity.Name)
	assert.Contains(t, p.Methodology, "clean_architecture")

	_, err = loader.Load("nonexistent-agent")
	assert.Error(t, err)
}

func TestLoaderCustomPersona(t *testing.T) {
	dir := t.TempDir()
	persona := `{
		"agent_identity": {"name": "data-engineer", "role": "Pipelines", "expertise": ["etl"]},
		"capabilities": ["pipeline design"],
		"methodology": ["solid"],
		"input_schema": {"type": "object"},
		"output_schema": {"type": "object"}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data-engineer.json"), []byte(persona), 0o644))

	loader := NewLoader(dir)
	p, err := loader.Load("data-engineer")
	require.NoError(t, err)
	assert.Equal(t, "Pipelines", p.Identity.Role)

	assert.Contains(t, loader.Available(), "data-engineer")
	assert.Contains(t, loader.Available(), "ux-strategist")
}

func TestLoaderRejectsIncompletePersona(t *testing.T) {
	dir := t.TempDir()
	persona := `{"agent_identity": {"name": "x"}, "capabilities": [], "methodology": []}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.json"), []byte(persona), 0o644))

	_, err := NewLoader(dir).Load("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input_schema")
}

// recordingConsultant captures every request it sees, keyed by agent.
type recordingConsultant struct {
	mu       sync.Mutex
	requests map[string]*Request
}

func newRecordingConsultant() *recordingConsultant {
	return &recordingConsultant{requests: make(map[string]*Request)}
}

func (c *recordingConsultant) Consult(ctx context.Context, persona *Persona, req *Request) (*intel.AgentResponse, error) {
	c.mu.Lock()
	c.requests[persona.Identity.Name] = req
	c.mu.Unlock()

	return &intel.AgentResponse{
		Agent:          persona.Identity.Name,
		Recommendation: persona.Identity.Name + " guidance",
		Confidence:     0.85,
	}, nil
}

func newTestEngine(c Consultant) *Engine {
	return NewEngine(NewLoader(""), c, DefaultQualityThresholds)
}

func TestSequentialAccumulatesContext(t *testing.T) {
	consultant := newRecordingConsultant()
	engine := newTestEngine(consultant)

	_, err := engine.Run(context.Background(), &Request{Objective: "task"}, RunOptions{
		Pattern:  PatternSequential,
		Personas: []string{"senior-architect", "backend-builder"},
	})
	require.NoError(t, err)

	second := consultant.requests["backend-builder"]
	require.NotNil(t, second)
	assert.Equal(t, "senior-architect guidance", second.Context["senior-architect_recommendation"])
}

func TestHierarchicalGuidesSpecialists(t *testing.T) {
	consultant := newRecordingConsultant()
	engine := newTestEngine(consultant)

	result, err := engine.Run(context.Background(), &Request{Objective: "task"}, RunOptions{
		Pattern:  PatternHierarchical,
		Personas: []string{"senior-architect", "backend-builder", "security-consultant"},
	})
	require.NoError(t, err)

	require.Len(t, result.Responses, 3)
	assert.Equal(t, "senior-architect", result.Responses[0].Agent)

	for _, specialist := range []string{"backend-builder", "security-consultant"} {
		req := consultant.requests[specialist]
		require.NotNil(t, req)
		assert.Equal(t, "senior-architect guidance", req.Context["architect_guidance"])
	}
}

func TestConsensusResolvesConflicts(t *testing.T) {
	engine := newTestEngine(TemplateConsultant{})

	result, err := engine.Run(context.Background(), &Request{
		Objective: "Redesign the architecture of the payment api with a security review",
	}, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, PatternConsensus, result.Pattern)
	require.NotNil(t, result.Resolution)
	assert.Equal(t, "confidence_weighted", result.Resolution.Method)
	// equal confidence everywhere, so the hierarchy breaks the tie
	assert.Equal(t, "senior-architect", result.Resolution.Winner.Agent)
	assert.Equal(t, "pass", result.Quality.Status)
}

func TestResolvePrefersConfidenceThenHierarchy(t *testing.T) {
	byConfidence := Resolve([]*intel.AgentResponse{
		{Agent: "frontend-builder", Confidence: 0.9},
		{Agent: "senior-architect", Confidence: 0.7},
	})
	assert.Equal(t, "frontend-builder", byConfidence.Winner.Agent)
	assert.Equal(t, 1, byConfidence.ConflictsResolved)

	byHierarchy := Resolve([]*intel.AgentResponse{
		{Agent: "frontend-builder", Confidence: 0.8},
		{Agent: "security-consultant", Confidence: 0.8},
	})
	assert.Equal(t, "security-consultant", byHierarchy.Winner.Agent)
}

func TestValidateSynthesisSuccessCriteria(t *testing.T) {
	s := &Synthesis{
		Recommendations: []string{"Use postgres with read replicas"},
		Approach:        "API-first backend development",
		QualityGates:    []string{"Code review approved"},
	}

	met := ValidateSynthesis(&Request{SuccessCriteria: "postgres replicas chosen"}, s)
	assert.True(t, met.Passed)

	unmet := ValidateSynthesis(&Request{SuccessCriteria: "kafka event streaming deployed"}, s)
	assert.InDelta(t, 0.8, unmet.Score, 0.001)

	bare := ValidateSynthesis(&Request{SuccessCriteria: "kafka event streaming deployed"}, &Synthesis{})
	assert.False(t, bare.Passed)
}

func TestAssessQualityGrades(t *testing.T) {
	responses := []*intel.AgentResponse{
		{Agent: "backend-builder", Recommendation: "guidance", Confidence: 0.9},
	}
	validation := &SynthesisValidation{Passed: true}
	adherence := []*methodology.ValidationResult{{Agent: "backend-builder", Adherence: 0.9}}
	synthesis := &Synthesis{Confidence: 0.9}

	report := AssessQuality(responses, validation, adherence, synthesis, DefaultQualityThresholds)

	assert.InDelta(t, 92.0, report.Consistency, 0.001)
	assert.InDelta(t, 95.0, report.Completeness, 0.001)
	assert.InDelta(t, 90.0, report.MethodologyAdherence, 0.001)
	assert.InDelta(t, 90.0, report.Confidence, 0.001)
	assert.Equal(t, "pass", report.Status)
}

func TestAssessQualityPartial(t *testing.T) {
	report := AssessQuality(nil, &SynthesisValidation{Passed: false}, nil, nil, DefaultQualityThresholds)

	// 60 + 70 + 65 + 75 over 4
	assert.InDelta(t, 67.5, report.Overall, 0.001)
	assert.Equal(t, "failed", report.Status)
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("mapreduce")
	require.NoError(t, err)
	assert.Equal(t, PatternMapReduce, p)

	_, err = ParsePattern("swarm")
	assert.Error(t, err)
}
