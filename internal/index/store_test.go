package index

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestIndexStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUpsertFileAndGet(t *testing.T) {
	store := newTestIndexStore(t)

	id, err := store.UpsertFile(&IndexedFile{
		Path:        "src/main.go",
		ContentHash: "abc123",
		Encoding:    "utf-8",
		Language:    "go",
		Status:      StatusIndexed,
	})
	if err != nil {
		t.Fatalf("UpsertFile failed: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero file id")
	}

	file, err := store.GetFile("src/main.go")
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if file == nil || file.ContentHash != "abc123" {
		t.Errorf("unexpected file: %+v", file)
	}

	missing, err := store.GetFile("src/other.go")
	if err != nil {
		t.Fatalf("GetFile for missing path errored: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unindexed path")
	}
}

func TestUpsertFileReplaces(t *testing.T) {
	store := newTestIndexStore(t)

	first, err := store.UpsertFile(&IndexedFile{Path: "a.go", ContentHash: "h1", Status: StatusIndexed})
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.UpsertFile(&IndexedFile{Path: "a.go", ContentHash: "h2", Status: StatusIndexed})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("expected stable id across upserts, got %d then %d", first, second)
	}

	file, _ := store.GetFile("a.go")
	if file.ContentHash != "h2" {
		t.Errorf("expected updated hash, got %s", file.ContentHash)
	}
}

func TestReplaceSymbolsAndSearch(t *testing.T) {
	store := newTestIndexStore(t)

	fileID, err := store.UpsertFile(&IndexedFile{Path: "store.go", Language: "go", Status: StatusIndexed})
	if err != nil {
		t.Fatal(err)
	}

	symbols := []*Symbol{
		{Name: "OpenStore", Kind: "function", Signature: "func OpenStore(path string)", LineStart: 10, IsExported: true},
		{Name: "helper", Kind: "function", LineStart: 40},
	}
	if err := store.ReplaceSymbols(fileID, symbols); err != nil {
		t.Fatalf("ReplaceSymbols failed: %v", err)
	}

	got, err := store.SymbolsByFile(fileID)
	if err != nil {
		t.Fatalf("SymbolsByFile failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(got))
	}

	found, err := store.SearchSymbols("OpenStore", 10)
	if err != nil {
		t.Fatalf("SearchSymbols failed: %v", err)
	}
	if len(found) != 1 || found[0].Name != "OpenStore" {
		t.Errorf("unexpected search result: %+v", found)
	}

	// Replacing again drops the old set.
	if err := store.ReplaceSymbols(fileID, []*Symbol{{Name: "Reopened", Kind: "function", LineStart: 5, IsExported: true}}); err != nil {
		t.Fatal(err)
	}
	gone, err := store.SearchSymbols("OpenStore", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(gone) != 0 {
		t.Errorf("expected replaced symbol to leave the FTS index, got %d hits", len(gone))
	}
}

func TestGetStats(t *testing.T) {
	store := newTestIndexStore(t)

	fileID, err := store.UpsertFile(&IndexedFile{Path: "x.go", Status: StatusIndexed})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.UpsertFile(&IndexedFile{Path: "y.go", Status: StatusFailed}); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceSymbols(fileID, []*Symbol{{Name: "X", Kind: "type", LineStart: 1}}); err != nil {
		t.Fatal(err)
	}

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalFiles != 2 || stats.IndexedFiles != 1 || stats.FailedFiles != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.TotalSymbols != 1 {
		t.Errorf("expected 1 symbol, got %d", stats.TotalSymbols)
	}
}

func TestWorkerProcessPath(t *testing.T) {
	store := newTestIndexStore(t)
	worker := NewWorker(store, DefaultWorkerConfig())

	dir := t.TempDir()
	path := filepath.Join(dir, "svc.go")
	source := "package svc\n\nfunc Handle() {}\n\ntype internalState struct{}\n"
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	worker.ProcessPath(path)

	file, err := store.GetFile(path)
	if err != nil || file == nil {
		t.Fatalf("expected file indexed: %v", err)
	}
	if file.Language != "go" || file.Status != StatusIndexed {
		t.Errorf("unexpected file record: %+v", file)
	}

	symbols, err := store.SymbolsByFile(file.ID)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, s := range symbols {
		names[s.Name] = true
	}
	if !names["Handle"] || !names["internalState"] {
		t.Errorf("expected extracted symbols, got %v", names)
	}

	stats := worker.GetStats()
	if stats.Indexed != 1 {
		t.Errorf("expected 1 indexed, got %d", stats.Indexed)
	}

	// Unchanged content is skipped on the second pass.
	worker.ProcessPath(path)
	if got := worker.GetStats().Indexed; got != 1 {
		t.Errorf("expected unchanged file to be skipped, indexed = %d", got)
	}
}

func TestWorkerExcludesPatterns(t *testing.T) {
	store := newTestIndexStore(t)
	worker := NewWorker(store, DefaultWorkerConfig())

	dir := t.TempDir()
	excluded := filepath.Join(dir, "node_modules", "pkg")
	if err := os.MkdirAll(excluded, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(excluded, "index.js")
	if err := os.WriteFile(path, []byte("function x() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	worker.ProcessPath(path)

	file, err := store.GetFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if file != nil {
		t.Error("expected excluded file to stay out of the index")
	}
	if worker.GetStats().Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", worker.GetStats().Skipped)
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(rel, content string) {
		full := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	mustWrite("main.go", "package main\n")
	mustWrite("lib/util.py", "def util():\n    pass\n")
	mustWrite("README.md", "# readme\n")
	mustWrite("node_modules/dep/index.js", "function x() {}\n")

	paths, err := CollectFiles(dir, DefaultWorkerConfig().ExcludePatterns)
	if err != nil {
		t.Fatalf("CollectFiles failed: %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("expected 2 source files, got %d: %v", len(paths), paths)
	}
	for _, p := range paths {
		if filepath.Base(p) == "index.js" {
			t.Error("excluded directory was walked")
		}
		if filepath.Base(p) == "README.md" {
			t.Error("non-source file was collected")
		}
	}
}
