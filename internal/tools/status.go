package tools

import (
	"context"
	"encoding/json"
	"time"
)

// StatusTool reports store sizes, index state, and orchestration
// health in one place.
type StatusTool struct {
	deps *Deps
}

func NewStatusTool(deps *Deps) *StatusTool {
	return &StatusTool{deps: deps}
}

func (t *StatusTool) Name() string { return "system_status" }

func (t *StatusTool) Title() string { return "System Status" }

func (t *StatusTool) Description() string {
	return "Report memory store statistics, index coverage, worker queues, and orchestration health."
}

func (t *StatusTool) Annotations() map[string]bool { return ReadOnlyAnnotations() }

func (t *StatusTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *StatusTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	memoryStats, err := t.deps.Memory.Stats()
	if err != nil {
		return nil, err
	}

	indexStats, err := t.deps.Index.GetStats()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"uptime_seconds": int64(time.Since(t.deps.StartTime).Seconds()),
		"memory":         memoryStats,
		"index":          indexStats,
		"worker":         t.deps.Worker.GetStats(),
		"orchestration": map[string]interface{}{
			"system_health":      t.deps.Engine.Performance().SystemHealth(),
			"adherence_health":   t.deps.Engine.Adherence().SystemHealth(),
			"agent_performance":  t.deps.Engine.Performance().All(),
		},
	}, nil
}
