package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kortex-labs/memory-enforce/internal/drift"
	"github.com/kortex-labs/memory-enforce/internal/index"
)

// IndexTool walks the project, indexes source files, and regenerates
// symbol-index.md.
type IndexTool struct {
	deps *Deps
}

func NewIndexTool(deps *Deps) *IndexTool {
	return &IndexTool{deps: deps}
}

func (t *IndexTool) Name() string { return "index_codebase" }

func (t *IndexTool) Title() string { return "Index Codebase" }

func (t *IndexTool) Description() string {
	return "Walk the project tree, extract symbols from source files, and regenerate symbol-index.md with per-file content hashes. Unchanged files are skipped."
}

func (t *IndexTool) Annotations() map[string]bool { return SafeWriteAnnotations() }

func (t *IndexTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Root to index. Defaults to the configured project root"}
		}
	}`)
}

func (t *IndexTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params struct {
		Path string `json:"path"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
	}
	root := params.Path
	if root == "" {
		root = t.deps.Root
	}

	files, err := index.CollectFiles(root, t.deps.Excludes)
	if err != nil {
		return nil, fmt.Errorf("collect files: %w", err)
	}

	enqueued := t.deps.Worker.EnqueueBatch(files, index.PriorityNormal)
	if err := t.deps.Worker.Drain(ctx); err != nil {
		return nil, err
	}

	if err := index.WriteSymbolIndex(t.deps.SymbolIndex, t.deps.Index); err != nil {
		return nil, fmt.Errorf("write symbol index: %w", err)
	}

	stats, err := t.deps.Index.GetStats()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"root":         root,
		"enqueued":     enqueued,
		"stats":        stats,
		"symbol_index": t.deps.SymbolIndex,
	}, nil
}

// DriftTool checks symbol-index.md claims against the files on disk.
type DriftTool struct {
	deps *Deps
}

func NewDriftTool(deps *Deps) *DriftTool {
	return &DriftTool{deps: deps}
}

func (t *DriftTool) Name() string { return "index_drift" }

func (t *DriftTool) Title() string { return "Check Index Drift" }

func (t *DriftTool) Description() string {
	return "Compare symbol-index.md claims against the current file contents. Reports stale hashes, missing files, and renamed or removed symbols. With fix set, stale files are re-indexed and the index regenerated."
}

func (t *DriftTool) Annotations() map[string]bool { return SafeWriteAnnotations() }

func (t *DriftTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"fix": {"type": "boolean", "description": "Re-index drifted files and rewrite symbol-index.md"}
		}
	}`)
}

func (t *DriftTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params struct {
		Fix bool `json:"fix"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
	}

	claims, err := index.LoadSymbolIndex(t.deps.SymbolIndex)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return map[string]interface{}{
			"checked": 0,
			"fresh":   false,
			"reason":  "symbol-index.md not found, run index_codebase first",
		}, nil
	}

	report := drift.Check(claims)

	fixed := false
	if params.Fix && !report.Fresh {
		for _, finding := range report.Findings {
			if finding.Type == drift.FindingMissingFile {
				if err := t.deps.Index.DeleteFile(finding.Path); err != nil {
					return nil, err
				}
				continue
			}
			t.deps.Worker.Enqueue(index.Job{Path: finding.Path, Priority: index.PriorityHigh})
		}
		if err := t.deps.Worker.Drain(ctx); err != nil {
			return nil, err
		}
		if err := index.WriteSymbolIndex(t.deps.SymbolIndex, t.deps.Index); err != nil {
			return nil, err
		}
		fixed = true
	}

	return map[string]interface{}{
		"checked":  report.CheckedFiles,
		"fresh":    report.Fresh,
		"findings": report.Findings,
		"fixed":    fixed,
	}, nil
}
