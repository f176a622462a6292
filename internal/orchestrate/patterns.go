package orchestrate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kortex-labs/memory-enforce/internal/intel"
	"github.com/kortex-labs/memory-enforce/internal/logger"
	"github.com/kortex-labs/memory-enforce/internal/methodology"
)

var log = logger.ForComponent("orchestrator")

type Pattern string

const (
	PatternSequential   Pattern = "sequential"
	PatternMapReduce    Pattern = "mapreduce"
	PatternConsensus    Pattern = "consensus"
	PatternHierarchical Pattern = "hierarchical"
)

func ParsePattern(s string) (Pattern, error) {
	switch Pattern(s) {
	case PatternSequential, PatternMapReduce, PatternConsensus, PatternHierarchical:
		return Pattern(s), nil
	default:
		return "", fmt.Errorf("unknown orchestration pattern %q", s)
	}
}

// Engine runs consultations end to end: analysis, pattern execution,
// synthesis, and quality assessment.
type Engine struct {
	loader     *Loader
	consultant Consultant
	thresholds QualityThresholds

	performance *intel.PerformanceTracker
	adherence   *methodology.Tracker
}

func NewEngine(loader *Loader, consultant Consultant, thresholds QualityThresholds) *Engine {
	return &Engine{
		loader:      loader,
		consultant:  consultant,
		thresholds:  thresholds,
		performance: intel.NewPerformanceTracker(),
		adherence:   methodology.NewTracker(),
	}
}

func (e *Engine) Performance() *intel.PerformanceTracker { return e.performance }
func (e *Engine) Adherence() *methodology.Tracker        { return e.adherence }

// RunOptions override the automatic pattern and persona selection.
type RunOptions struct {
	Pattern  Pattern
	Personas []string
}

// Result is everything one run produced.
type Result struct {
	Pattern    Pattern                           `json:"pattern"`
	Analysis   *TaskAnalysis                     `json:"analysis"`
	Responses  []*intel.AgentResponse            `json:"responses"`
	Resolution *Resolution                       `json:"resolution,omitempty"`
	Consensus  *intel.Consensus                  `json:"consensus,omitempty"`
	Synthesis  *Synthesis                        `json:"synthesis"`
	Validation *SynthesisValidation              `json:"validation"`
	Adherence  []*methodology.ValidationResult   `json:"adherence,omitempty"`
	Quality    *QualityReport                    `json:"quality"`
	Duration   time.Duration                     `json:"duration"`
}

func (e *Engine) Run(ctx context.Context, req *Request, opts RunOptions) (*Result, error) {
	start := time.Now()

	analysis := Analyze(req)

	pattern := analysis.Pattern
	if opts.Pattern != "" {
		pattern = opts.Pattern
	}
	agents := analysis.RequiredExpertise
	if len(opts.Personas) > 0 {
		agents = opts.Personas
	}

	personas := make([]*Persona, 0, len(agents))
	for _, name := range agents {
		p, err := e.loader.Load(name)
		if err != nil {
			return nil, err
		}
		personas = append(personas, p)
	}

	log.Info("orchestration started",
		"pattern", pattern,
		"agents", strings.Join(agents, ","),
		"complexity", analysis.ComplexityLevel)

	result := &Result{Pattern: pattern, Analysis: analysis}

	var err error
	switch pattern {
	case PatternSequential:
		result.Responses, err = e.runSequential(ctx, req, personas)
	case PatternMapReduce:
		result.Responses, err = e.runParallel(ctx, req, personas)
	case PatternConsensus:
		result.Responses, err = e.runParallel(ctx, req, personas)
		if err == nil {
			result.Consensus = intel.AnalyzeConsensus(result.Responses)
			if len(intel.DetectOverlaps(result.Responses)) > 0 {
				result.Resolution = Resolve(result.Responses)
			}
		}
	case PatternHierarchical:
		result.Responses, err = e.runHierarchical(ctx, req, personas)
	default:
		err = fmt.Errorf("unknown orchestration pattern %q", pattern)
	}
	if err != nil {
		return nil, err
	}

	result.Synthesis = Synthesize(req, result.Responses)
	result.Validation = ValidateSynthesis(req, result.Synthesis)

	for _, r := range result.Responses {
		text := r.Recommendation + " " + r.Analysis
		result.Adherence = append(result.Adherence, methodology.ValidateAgent(r.Agent, text)...)
	}
	for _, a := range result.Adherence {
		e.adherence.Record(a)
	}

	result.Quality = AssessQuality(result.Responses, result.Validation,
		result.Adherence, result.Synthesis, e.thresholds)

	success := result.Quality.Status != "failed"
	conflicts := 0
	if result.Resolution != nil {
		conflicts = result.Resolution.ConflictsResolved
	}
	for _, r := range result.Responses {
		e.performance.RecordOutcome(r.Agent, r.Confidence, success, conflicts)
	}

	result.Duration = time.Since(start)
	log.Info("orchestration finished",
		"status", result.Quality.Status,
		"overall", result.Quality.Overall,
		"duration", result.Duration)
	return result, nil
}

// runSequential consults one persona at a time, feeding each one's
// recommendation into the next request's context.
func (e *Engine) runSequential(ctx context.Context, req *Request, personas []*Persona) ([]*intel.AgentResponse, error) {
	responses := make([]*intel.AgentResponse, 0, len(personas))

	accumulated := make(map[string]string, len(req.Context))
	for k, v := range req.Context {
		accumulated[k] = v
	}

	for _, persona := range personas {
		step := *req
		step.Context = accumulated

		response, err := e.consultant.Consult(ctx, persona, &step)
		if err != nil {
			return nil, fmt.Errorf("consult %s: %w", persona.Identity.Name, err)
		}
		responses = append(responses, response)

		next := make(map[string]string, len(accumulated)+1)
		for k, v := range accumulated {
			next[k] = v
		}
		next[persona.Identity.Name+"_recommendation"] = response.Recommendation
		accumulated = next
	}

	return responses, nil
}

// runParallel fans the same request out to every persona at once.
func (e *Engine) runParallel(ctx context.Context, req *Request, personas []*Persona) ([]*intel.AgentResponse, error) {
	responses := make([]*intel.AgentResponse, len(personas))
	errs := make([]error, len(personas))

	var wg sync.WaitGroup
	for i, persona := range personas {
		wg.Add(1)
		go func(i int, persona *Persona) {
			defer wg.Done()
			responses[i], errs[i] = e.consultant.Consult(ctx, persona, req)
		}(i, persona)
	}
	wg.Wait()

	out := make([]*intel.AgentResponse, 0, len(personas))
	for i, response := range responses {
		if errs[i] != nil {
			log.Warn("consultation failed", "agent", personas[i].Identity.Name, "error", errs[i])
			continue
		}
		out = append(out, response)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("all %d consultations failed", len(personas))
	}
	return out, nil
}

// runHierarchical consults the architect first and hands its guidance
// to the specialists, who then run in parallel. Without an architect
// the pattern degrades to sequential.
func (e *Engine) runHierarchical(ctx context.Context, req *Request, personas []*Persona) ([]*intel.AgentResponse, error) {
	var architect *Persona
	specialists := make([]*Persona, 0, len(personas))
	for _, p := range personas {
		if p.Identity.Name == "senior-architect" {
			architect = p
		} else {
			specialists = append(specialists, p)
		}
	}

	if architect == nil {
		log.Warn("hierarchical pattern without senior-architect, running sequential")
		return e.runSequential(ctx, req, personas)
	}

	lead, err := e.consultant.Consult(ctx, architect, req)
	if err != nil {
		return nil, fmt.Errorf("consult senior-architect: %w", err)
	}
	if len(specialists) == 0 {
		return []*intel.AgentResponse{lead}, nil
	}

	guided := *req
	guided.Context = make(map[string]string, len(req.Context)+1)
	for k, v := range req.Context {
		guided.Context[k] = v
	}
	guided.Context["architect_guidance"] = lead.Recommendation

	rest, err := e.runParallel(ctx, &guided, specialists)
	if err != nil {
		return nil, err
	}
	return append([]*intel.AgentResponse{lead}, rest...), nil
}
