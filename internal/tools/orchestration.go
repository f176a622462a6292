package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kortex-labs/memory-enforce/internal/orchestrate"
)

// OrchestrateTool runs a multi-persona consultation over a task.
type OrchestrateTool struct {
	deps *Deps
}

func NewOrchestrateTool(deps *Deps) *OrchestrateTool {
	return &OrchestrateTool{deps: deps}
}

func (t *OrchestrateTool) Name() string { return "orchestrate" }

func (t *OrchestrateTool) Title() string { return "Orchestrate Consultation" }

func (t *OrchestrateTool) Description() string {
	return `Run a multi-persona consultation over a development task.

The task is analyzed for complexity and required expertise, an
orchestration pattern is selected (sequential, mapreduce, consensus, or
hierarchical), and the persona responses are synthesized into one piece
of guidance with a quality grade. Pattern and personas can be forced.`
}

func (t *OrchestrateTool) Annotations() map[string]bool { return ReadOnlyAnnotations() }

func (t *OrchestrateTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"objective": {"type": "string"},
			"pattern": {"type": "string", "enum": ["sequential", "mapreduce", "consensus", "hierarchical"]},
			"personas": {"type": "array", "items": {"type": "string"}},
			"constraints": {"type": "array", "items": {"type": "string"}},
			"technical_requirements": {"type": "array", "items": {"type": "string"}},
			"success_criteria": {"type": "string"}
		},
		"required": ["objective"]
	}`)
}

func (t *OrchestrateTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params struct {
		Objective             string   `json:"objective"`
		Pattern               string   `json:"pattern"`
		Personas              []string `json:"personas"`
		Constraints           []string `json:"constraints"`
		TechnicalRequirements []string `json:"technical_requirements"`
		SuccessCriteria       string   `json:"success_criteria"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.Objective == "" {
		return nil, fmt.Errorf("objective is required")
	}

	opts := orchestrate.RunOptions{Personas: params.Personas}
	if params.Pattern != "" {
		pattern, err := orchestrate.ParsePattern(params.Pattern)
		if err != nil {
			return nil, err
		}
		opts.Pattern = pattern
	}

	req := &orchestrate.Request{
		Objective:             params.Objective,
		Constraints:           params.Constraints,
		TechnicalRequirements: params.TechnicalRequirements,
		SuccessCriteria:       params.SuccessCriteria,
	}

	return t.deps.Engine.Run(ctx, req, opts)
}
