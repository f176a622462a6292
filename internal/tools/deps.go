package tools

import (
	"time"

	"github.com/kortex-labs/memory-enforce/internal/index"
	"github.com/kortex-labs/memory-enforce/internal/memory"
	"github.com/kortex-labs/memory-enforce/internal/orchestrate"
)

// Deps bundles the shared state every tool closes over.
type Deps struct {
	Memory      *memory.Store
	Conventions string
	SymbolIndex string

	Index    *index.Store
	Worker   *index.Worker
	Root     string
	Excludes []string

	Engine *orchestrate.Engine

	StartTime time.Time
}

// DefaultRegistry wires the full tool surface into a fresh registry.
func DefaultRegistry(deps *Deps) (*Registry, error) {
	registry := NewRegistry()

	all := []Tool{
		NewRecordTool(deps),
		NewSearchTool(deps),
		NewCoreTool(deps),
		NewValidateTool(deps),
		NewConflictsTool(deps),
		NewIndexTool(deps),
		NewDriftTool(deps),
		NewThinkTool(deps),
		NewOrchestrateTool(deps),
		NewStatusTool(deps),
	}

	for _, tool := range all {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
