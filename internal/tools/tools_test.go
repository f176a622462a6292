package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kortex-labs/memory-enforce/internal/index"
	"github.com/kortex-labs/memory-enforce/internal/memory"
	"github.com/kortex-labs/memory-enforce/internal/orchestrate"
)

func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	dir := t.TempDir()

	mem, err := memory.OpenStore(filepath.Join(dir, "memory.db"))
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}

	idx, err := index.NewStore(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("open index store: %v", err)
	}

	config := index.DefaultWorkerConfig()
	worker := index.NewWorker(idx, config)
	worker.Start()

	t.Cleanup(func() {
		worker.Stop()
		idx.Close()
		mem.Close()
	})

	engine := orchestrate.NewEngine(
		orchestrate.NewLoader(filepath.Join(dir, "personas")),
		orchestrate.TemplateConsultant{},
		orchestrate.DefaultQualityThresholds,
	)

	return &Deps{
		Memory:      mem,
		Conventions: filepath.Join(dir, "conventions.md"),
		SymbolIndex: filepath.Join(dir, "symbol-index.md"),
		Index:       idx,
		Worker:      worker,
		Root:        filepath.Join(dir, "project"),
		Excludes:    config.ExcludePatterns,
		Engine:      engine,
		StartTime:   time.Now(),
	}
}

func execute(t *testing.T, tool Tool, input string) map[string]interface{} {
	t.Helper()
	raw, err := tool.Execute(context.Background(), json.RawMessage(input))
	if err != nil {
		t.Fatalf("%s: %v", tool.Name(), err)
	}
	result, ok := raw.(map[string]interface{})
	if !ok {
		t.Fatalf("%s returned %T, want map", tool.Name(), raw)
	}
	return result
}

func TestDefaultRegistryWiresAllTools(t *testing.T) {
	registry, err := DefaultRegistry(newTestDeps(t))
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}

	for _, name := range []string{
		"memory_record", "memory_search", "memory_core", "memory_validate",
		"memory_conflicts", "index_codebase", "index_drift", "think",
		"orchestrate", "system_status",
	} {
		if _, ok := registry.Get(name); !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestRecordToolRejectsLowQuality(t *testing.T) {
	deps := newTestDeps(t)
	tool := NewRecordTool(deps)

	result := execute(t, tool, `{"topic": "logging", "decision": "use slog"}`)
	if result["recorded"] != false {
		t.Fatalf("low quality entry was recorded: %v", result)
	}

	if _, err := deps.Memory.Get("logging"); err == nil {
		t.Error("rejected decision ended up in the store")
	}
}

func TestRecordToolForceOverridesQuality(t *testing.T) {
	deps := newTestDeps(t)
	tool := NewRecordTool(deps)

	result := execute(t, tool, `{"topic": "logging", "decision": "use slog", "force": true}`)
	if result["recorded"] != true {
		t.Fatalf("forced record failed: %v", result)
	}

	data, err := os.ReadFile(deps.Conventions)
	if err != nil {
		t.Fatalf("conventions.md not written: %v", err)
	}
	if !strings.Contains(string(data), "### logging") {
		t.Errorf("conventions.md missing entry:\n%s", data)
	}
}

func TestRecordToolAcceptsCompleteDecision(t *testing.T) {
	deps := newTestDeps(t)
	tool := NewRecordTool(deps)

	result := execute(t, tool, `{
		"topic": "api versioning",
		"decision": "Version the public api in the url path",
		"rationale": "Header versioning confused every client team we tried it with",
		"alternatives": "Accept header versioning, query parameter versioning",
		"scope": "public api endpoints"
	}`)
	if result["recorded"] != true {
		t.Fatalf("complete decision rejected: %v", result)
	}

	d, err := deps.Memory.Get("api versioning")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.DecidedOn == "" {
		t.Error("decided_on was not defaulted")
	}
}

func TestRecordToolRefusesCriticalConflict(t *testing.T) {
	deps := newTestDeps(t)
	tool := NewRecordTool(deps)

	execute(t, tool, `{
		"topic": "primary database",
		"decision": "Use the postgresql database for all persistent storage",
		"rationale": "One engine keeps operations simple",
		"alternatives": "mysql, mongodb",
		"scope": "all services"
	}`)

	contradicting := `{
		"topic": "document storage",
		"decision": "Use the mongodb database, the postgresql database must not hold documents",
		"rationale": "Document shapes change too often for relational schemas",
		"alternatives": "jsonb columns in postgresql",
		"scope": "document services"%s
	}`

	refused := execute(t, tool, fmt.Sprintf(contradicting, ""))
	if refused["recorded"] != false {
		t.Fatalf("critical conflict was recorded: %v", refused)
	}
	if !strings.Contains(refused["reason"].(string), "critical conflict") {
		t.Errorf("reason = %v", refused["reason"])
	}

	forced := execute(t, tool, fmt.Sprintf(contradicting, `, "force": true`))
	if forced["recorded"] != true {
		t.Fatalf("forced record failed: %v", forced)
	}
}

func TestSearchToolRanksResults(t *testing.T) {
	deps := newTestDeps(t)
	record := NewRecordTool(deps)

	execute(t, record, `{"topic": "cache strategy", "decision": "Use redis for the session cache", "force": true}`)
	execute(t, record, `{"topic": "queue choice", "decision": "Use rabbitmq for background jobs", "force": true}`)

	result := execute(t, NewSearchTool(deps), `{"query": "cache"}`)
	results := result["results"].([]*memory.SearchResult)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Topic != "cache strategy" {
		t.Errorf("top result = %s", results[0].Topic)
	}
}

func TestSearchToolFindsSymbols(t *testing.T) {
	deps := newTestDeps(t)

	if err := os.MkdirAll(deps.Root, 0o755); err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(deps.Root, "service.go")
	if err := os.WriteFile(source, []byte("package svc\n\nfunc StartServer() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	execute(t, NewIndexTool(deps), `{}`)

	result := execute(t, NewSearchTool(deps), `{"query": "StartServer", "symbols": true}`)
	symbols := result["symbols"].([]*index.Symbol)
	if len(symbols) != 1 || symbols[0].Name != "StartServer" {
		t.Fatalf("symbols = %+v", symbols)
	}
}

func TestCoreToolSeparatesCoreCategory(t *testing.T) {
	deps := newTestDeps(t)
	record := NewRecordTool(deps)

	execute(t, record, `{"topic": "error wrapping", "decision": "Wrap errors with context", "category": "core", "force": true}`)
	execute(t, record, `{"topic": "queue choice", "decision": "Use rabbitmq", "force": true}`)

	result := execute(t, NewCoreTool(deps), `{}`)

	core := result["core"].([]*memory.SearchResult)
	if len(core) != 1 || core[0].Topic != "error wrapping" {
		t.Fatalf("core set wrong: %+v", core)
	}

	frequent := result["frequently_used"].([]*memory.SearchResult)
	if len(frequent) != 1 || frequent[0].Topic != "queue choice" {
		t.Fatalf("frequently_used wrong: %+v", frequent)
	}
}

func TestValidateToolReportsFailures(t *testing.T) {
	deps := newTestDeps(t)
	execute(t, NewRecordTool(deps), `{"topic": "logging", "decision": "use slog", "force": true}`)

	result := execute(t, NewValidateTool(deps), `{}`)
	if result["failing"].(int) != 1 {
		t.Errorf("failing = %v, want 1", result["failing"])
	}
}

func TestConflictsToolFindsContradiction(t *testing.T) {
	deps := newTestDeps(t)
	record := NewRecordTool(deps)

	execute(t, record, `{"topic": "primary database", "decision": "Use the postgresql database for all persistent storage", "force": true}`)
	execute(t, record, `{"topic": "storage engine", "decision": "The mongodb database must not be bypassed, it conflicts with using the postgresql database for persistent storage", "force": true}`)

	result := execute(t, NewConflictsTool(deps), `{}`)
	conflicts := result["conflicts"].([]*memory.Conflict)
	if len(conflicts) == 0 {
		t.Fatal("no conflicts detected")
	}
}

func TestIndexAndDriftTools(t *testing.T) {
	deps := newTestDeps(t)

	if err := os.MkdirAll(deps.Root, 0o755); err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(deps.Root, "service.go")
	if err := os.WriteFile(source, []byte("package svc\n\nfunc Start() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	indexed := execute(t, NewIndexTool(deps), `{}`)
	if indexed["enqueued"].(int) != 1 {
		t.Fatalf("enqueued = %v, want 1", indexed["enqueued"])
	}
	if _, err := os.Stat(deps.SymbolIndex); err != nil {
		t.Fatalf("symbol index not written: %v", err)
	}

	fresh := execute(t, NewDriftTool(deps), `{}`)
	if fresh["fresh"] != true {
		t.Fatalf("freshly indexed tree reported drift: %v", fresh["findings"])
	}

	if err := os.WriteFile(source, []byte("package svc\n\nfunc Launch() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	drifted := execute(t, NewDriftTool(deps), `{"fix": true}`)
	if drifted["fresh"] != false {
		t.Fatal("edited file not reported as drift")
	}
	if drifted["fixed"] != true {
		t.Fatal("fix did not run")
	}

	again := execute(t, NewDriftTool(deps), `{}`)
	if again["fresh"] != true {
		t.Fatalf("drift persists after fix: %v", again["findings"])
	}
}

func TestThinkToolChains(t *testing.T) {
	deps := newTestDeps(t)
	tool := NewThinkTool(deps)

	first := execute(t, tool, `{"thought": "options are sqlite or bolt"}`)
	if first["number"].(int) != 1 {
		t.Errorf("first number = %v", first["number"])
	}

	second := execute(t, tool, `{"thought": "sqlite, we need fts", "session_id": "default"}`)
	if second["chain_length"].(int) != 2 {
		t.Errorf("chain_length = %v, want 2", second["chain_length"])
	}
}

func TestOrchestrateTool(t *testing.T) {
	deps := newTestDeps(t)
	tool := NewOrchestrateTool(deps)

	raw, err := tool.Execute(context.Background(), json.RawMessage(
		`{"objective": "Redesign the architecture of the payment api with a security review"}`))
	if err != nil {
		t.Fatalf("orchestrate: %v", err)
	}

	result, ok := raw.(*orchestrate.Result)
	if !ok {
		t.Fatalf("result type %T", raw)
	}
	if result.Pattern != orchestrate.PatternConsensus {
		t.Errorf("pattern = %s, want consensus", result.Pattern)
	}
	if len(result.Responses) != 3 {
		t.Errorf("responses = %d, want 3", len(result.Responses))
	}
}

func TestStatusTool(t *testing.T) {
	deps := newTestDeps(t)

	result := execute(t, NewStatusTool(deps), `{}`)
	if _, ok := result["memory"]; !ok {
		t.Error("status missing memory stats")
	}
	if _, ok := result["index"]; !ok {
		t.Error("status missing index stats")
	}
}

func TestRegistryExecuteWithTimeout(t *testing.T) {
	registry, err := DefaultRegistry(newTestDeps(t))
	if err != nil {
		t.Fatal(err)
	}

	result, err := registry.ExecuteWithTimeout(context.Background(), "system_status", json.RawMessage(`{}`), 5*time.Second)
	if err != nil {
		t.Fatalf("ExecuteWithTimeout: %v", err)
	}
	if result == nil {
		t.Fatal("nil result")
	}

	_, err = registry.Execute(context.Background(), "no_such_tool", json.RawMessage(`{}`))
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Code != -32601 {
		t.Fatalf("unknown tool error = %v", err)
	}
}
