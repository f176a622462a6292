package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// ThinkTool appends to a persisted reasoning chain. Nothing is
// executed; the value is the recorded trail.
type ThinkTool struct {
	deps *Deps
}

func NewThinkTool(deps *Deps) *ThinkTool {
	return &ThinkTool{deps: deps}
}

func (t *ThinkTool) Name() string { return "think" }

func (t *ThinkTool) Title() string { return "Think" }

func (t *ThinkTool) Description() string {
	return `Append a thought to a persisted reasoning chain.

Use before consequential decisions: each thought is numbered within its
session and survives restarts, so a chain can be resumed or audited
later. Set revises to point at an earlier thought number instead of
rewriting history.`
}

func (t *ThinkTool) Annotations() map[string]bool { return NonIdempotentWriteAnnotations() }

func (t *ThinkTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"thought": {"type": "string"},
			"session_id": {"type": "string", "default": "default"},
			"revises": {"type": "integer", "description": "Number of the earlier thought this one revises"}
		},
		"required": ["thought"]
	}`)
}

func (t *ThinkTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params struct {
		Thought   string `json:"thought"`
		SessionID string `json:"session_id"`
		Revises   int    `json:"revises"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.Thought == "" {
		return nil, fmt.Errorf("thought is required")
	}
	if params.SessionID == "" {
		params.SessionID = "default"
	}

	thought, err := t.deps.Memory.AddThought(params.SessionID, params.Thought, params.Revises)
	if err != nil {
		return nil, err
	}

	chain, err := t.deps.Memory.Thoughts(params.SessionID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"session_id":   thought.SessionID,
		"number":       thought.Number,
		"chain_length": len(chain),
	}, nil
}
