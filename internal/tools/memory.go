package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kortex-labs/memory-enforce/internal/intel"
	"github.com/kortex-labs/memory-enforce/internal/memory"
)

// RecordTool writes a decision into the store and conventions.md,
// gated by the quality score unless forced.
type RecordTool struct {
	deps *Deps
}

func NewRecordTool(deps *Deps) *RecordTool {
	return &RecordTool{deps: deps}
}

func (t *RecordTool) Name() string { return "memory_record" }

func (t *RecordTool) Title() string { return "Record Decision" }

func (t *RecordTool) Description() string {
	return `Record an architectural or convention decision into institutional memory.

The decision is quality-scored before it lands: it needs a decision
statement, a rationale, a date, considered alternatives, and a scope.
Entries below the quality threshold or in critical conflict with an
existing decision are rejected unless force is set. Conflicts are
reported either way.`
}

func (t *RecordTool) Annotations() map[string]bool { return NonIdempotentWriteAnnotations() }

func (t *RecordTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"topic": {"type": "string", "description": "Short unique topic, e.g. 'api versioning'"},
			"decision": {"type": "string", "description": "What was decided"},
			"rationale": {"type": "string", "description": "Why it was decided"},
			"alternatives": {"type": "string", "description": "What else was considered"},
			"scope": {"type": "string", "description": "Where the decision applies"},
			"decided_on": {"type": "string", "description": "Decision date, YYYY-MM-DD. Defaults to today"},
			"category": {"type": "string", "enum": ["core", "architecture", "decisions", "context", "general"]},
			"tags": {"type": "array", "items": {"type": "string"}},
			"force": {"type": "boolean", "description": "Record even when the quality score is below threshold"}
		},
		"required": ["topic", "decision"]
	}`)
}

func (t *RecordTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params struct {
		Topic        string   `json:"topic"`
		Decision     string   `json:"decision"`
		Rationale    string   `json:"rationale"`
		Alternatives string   `json:"alternatives"`
		Scope        string   `json:"scope"`
		DecidedOn    string   `json:"decided_on"`
		Category     string   `json:"category"`
		Tags         []string `json:"tags"`
		Force        bool     `json:"force"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.Topic == "" || params.Decision == "" {
		return nil, fmt.Errorf("topic and decision are required")
	}
	if params.Category != "" && !memory.ValidCategory(memory.Category(params.Category)) {
		return nil, fmt.Errorf("unknown category %q", params.Category)
	}
	if params.DecidedOn == "" {
		params.DecidedOn = time.Now().UTC().Format("2006-01-02")
	}

	d := &memory.Decision{
		Topic:        params.Topic,
		Decision:     params.Decision,
		Rationale:    params.Rationale,
		Alternatives: params.Alternatives,
		Scope:        params.Scope,
		DecidedOn:    params.DecidedOn,
		Category:     memory.Category(params.Category),
		Tags:         params.Tags,
	}

	quality := memory.ScoreDecision(d)

	existing, err := t.deps.Memory.All()
	if err != nil {
		return nil, err
	}
	var conflicts []*memory.Conflict
	for _, other := range existing {
		if c := memory.CheckPair(d, other); c != nil {
			conflicts = append(conflicts, c)
		}
	}

	if quality.Score < memory.QualityThreshold && !params.Force {
		return map[string]interface{}{
			"recorded":  false,
			"reason":    fmt.Sprintf("quality score %.2f below threshold %.2f, set force to override", quality.Score, memory.QualityThreshold),
			"quality":   quality,
			"conflicts": conflicts,
		}, nil
	}

	if c := criticalConflict(conflicts); c != nil && !params.Force {
		return map[string]interface{}{
			"recorded":  false,
			"reason":    fmt.Sprintf("critical conflict with %q, set force to override", c.TopicB),
			"quality":   quality,
			"conflicts": conflicts,
		}, nil
	}

	recorded, err := t.deps.Memory.Record(d)
	if err != nil {
		return nil, err
	}

	doc, err := memory.LoadDocument(t.deps.Conventions)
	if err != nil {
		return nil, err
	}
	doc.Append(recorded)
	if err := memory.SaveDocument(t.deps.Conventions, doc); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"recorded":  true,
		"id":        recorded.ID,
		"topic":     recorded.Topic,
		"quality":   quality,
		"conflicts": conflicts,
	}, nil
}

// SearchTool runs ranked full-text search over recorded decisions.
type SearchTool struct {
	deps *Deps
}

func NewSearchTool(deps *Deps) *SearchTool {
	return &SearchTool{deps: deps}
}

func (t *SearchTool) Name() string { return "memory_search" }

func (t *SearchTool) Title() string { return "Search Memory" }

func (t *SearchTool) Description() string {
	return "Search recorded decisions by keyword, ranked by relevance, recency, access frequency, and topic proximity. With symbols set, the symbol index is searched instead."
}

func (t *SearchTool) Annotations() map[string]bool { return ReadOnlyAnnotations() }

func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string"},
			"category": {"type": "string", "enum": ["core", "architecture", "decisions", "context", "general"]},
			"limit": {"type": "integer", "default": 10},
			"symbols": {"type": "boolean", "description": "Search indexed code symbols instead of decisions"}
		},
		"required": ["query"]
	}`)
}

func (t *SearchTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params struct {
		Query    string `json:"query"`
		Category string `json:"category"`
		Limit    int    `json:"limit"`
		Symbols  bool   `json:"symbols"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	if params.Symbols {
		symbols, err := t.deps.Index.SearchSymbols(params.Query, params.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"query":   params.Query,
			"count":   len(symbols),
			"symbols": symbols,
		}, nil
	}

	var category *memory.Category
	if params.Category != "" {
		c := memory.Category(params.Category)
		if !memory.ValidCategory(c) {
			return nil, fmt.Errorf("unknown category %q", params.Category)
		}
		category = &c
	}

	results, err := t.deps.Memory.Search(params.Query, category, params.Limit*3)
	if err != nil {
		return nil, err
	}

	ranked := rankResults(results, params.Limit)
	return map[string]interface{}{
		"query":   params.Query,
		"count":   len(ranked),
		"results": ranked,
	}, nil
}

func criticalConflict(conflicts []*memory.Conflict) *memory.Conflict {
	for _, c := range conflicts {
		if c.Severity == memory.SeverityCritical {
			return c
		}
	}
	return nil
}

func rankResults(results []*memory.SearchResult, limit int) []*memory.SearchResult {
	items := make([]intel.Rankable, len(results))
	for i, r := range results {
		items[i] = r
	}

	top := intel.TopN(items, limit, intel.DefaultRankCriteria)

	out := make([]*memory.SearchResult, len(top))
	for i, item := range top {
		out[i] = item.(*memory.SearchResult)
	}
	return out
}

// CoreTool returns the always-relevant convention set: everything in
// the core category plus the most used decisions overall.
type CoreTool struct {
	deps *Deps
}

func NewCoreTool(deps *Deps) *CoreTool {
	return &CoreTool{deps: deps}
}

func (t *CoreTool) Name() string { return "memory_core" }

func (t *CoreTool) Title() string { return "Core Conventions" }

func (t *CoreTool) Description() string {
	return "Return the core convention set: all core-category decisions plus the most frequently used ones. Intended to be loaded at session start."
}

func (t *CoreTool) Annotations() map[string]bool { return ReadOnlyAnnotations() }

func (t *CoreTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"limit": {"type": "integer", "default": 10, "description": "Cap on the frequently used list"}
		}
	}`)
}

func (t *CoreTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params struct {
		Limit int `json:"limit"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	core := memory.CategoryCore
	coreResults, err := t.deps.Memory.Search("", &core, 100)
	if err != nil {
		return nil, err
	}

	all, err := t.deps.Memory.Search("", nil, 500)
	if err != nil {
		return nil, err
	}
	frequent := make([]*memory.SearchResult, 0, len(all))
	for _, r := range all {
		if r.Category != core {
			frequent = append(frequent, r)
		}
	}

	return map[string]interface{}{
		"core":            coreResults,
		"frequently_used": rankResults(frequent, params.Limit),
	}, nil
}

// ValidateTool quality-scores every recorded decision.
type ValidateTool struct {
	deps *Deps
}

func NewValidateTool(deps *Deps) *ValidateTool {
	return &ValidateTool{deps: deps}
}

func (t *ValidateTool) Name() string { return "memory_validate" }

func (t *ValidateTool) Title() string { return "Validate Memory Quality" }

func (t *ValidateTool) Description() string {
	return "Quality-score every recorded decision and report the ones below threshold first."
}

func (t *ValidateTool) Annotations() map[string]bool { return ReadOnlyAnnotations() }

func (t *ValidateTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ValidateTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	decisions, err := t.deps.Memory.All()
	if err != nil {
		return nil, err
	}

	reports := memory.ValidateAll(decisions)

	failing := 0
	for _, r := range reports {
		if !r.Passed {
			failing++
		}
	}

	return map[string]interface{}{
		"total":   len(reports),
		"failing": failing,
		"reports": reports,
	}, nil
}

// ConflictsTool runs pairwise conflict detection over all decisions.
type ConflictsTool struct {
	deps *Deps
}

func NewConflictsTool(deps *Deps) *ConflictsTool {
	return &ConflictsTool{deps: deps}
}

func (t *ConflictsTool) Name() string { return "memory_conflicts" }

func (t *ConflictsTool) Title() string { return "Detect Conflicts" }

func (t *ConflictsTool) Description() string {
	return "Detect contradictions between recorded decisions, graded by severity."
}

func (t *ConflictsTool) Annotations() map[string]bool { return ReadOnlyAnnotations() }

func (t *ConflictsTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ConflictsTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	decisions, err := t.deps.Memory.All()
	if err != nil {
		return nil, err
	}

	conflicts := memory.DetectConflicts(decisions)
	return map[string]interface{}{
		"checked":   len(decisions),
		"conflicts": conflicts,
	}, nil
}
