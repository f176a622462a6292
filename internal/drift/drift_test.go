package drift

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kortex-labs/memory-enforce/internal/index"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func claimFor(path, content string) *index.FileClaim {
	claim := &index.FileClaim{
		Path: path,
		Hash: index.ClaimHash(index.HashContent(content)),
	}
	for _, s := range index.ExtractSource(path, content) {
		if s.IsExported {
			claim.Symbols = append(claim.Symbols, index.SymbolClaim{
				Kind: s.Kind,
				Name: s.Name,
				Line: s.LineStart,
			})
		}
	}
	return claim
}

func TestCheckFreshFile(t *testing.T) {
	dir := t.TempDir()
	content := "package svc\n\nfunc Handle() {}\n"
	path := writeFile(t, dir, "svc.go", content)

	report := Check([]*index.FileClaim{claimFor(path, content)})

	if !report.Fresh {
		t.Errorf("expected fresh report, got findings: %+v", report.Findings)
	}
	if report.CheckedFiles != 1 {
		t.Errorf("expected 1 checked file, got %d", report.CheckedFiles)
	}
}

func TestCheckMissingFile(t *testing.T) {
	claim := &index.FileClaim{Path: filepath.Join(t.TempDir(), "gone.go"), Hash: "abc"}

	report := Check([]*index.FileClaim{claim})

	if report.Fresh {
		t.Fatal("expected findings")
	}
	if report.Findings[0].Type != FindingMissingFile {
		t.Errorf("expected missing_file, got %s", report.Findings[0].Type)
	}
}

func TestCheckStaleHashAndSymbolDiff(t *testing.T) {
	dir := t.TempDir()
	original := "package svc\n\nfunc Handle() {}\n\nfunc Teardown() {}\n"
	path := writeFile(t, dir, "svc.go", original)
	claim := claimFor(path, original)

	// Teardown renamed to Shutdown after the claim was recorded.
	changed := "package svc\n\nfunc Handle() {}\n\nfunc Shutdown() {}\n"
	if err := os.WriteFile(path, []byte(changed), 0644); err != nil {
		t.Fatal(err)
	}

	report := Check([]*index.FileClaim{claim})
	if report.Fresh {
		t.Fatal("expected drift findings")
	}

	byType := map[FindingType][]*Finding{}
	for _, f := range report.Findings {
		byType[f.Type] = append(byType[f.Type], f)
	}

	if len(byType[FindingStaleHash]) != 1 {
		t.Errorf("expected one stale_hash finding, got %d", len(byType[FindingStaleHash]))
	}
	if len(byType[FindingMissingSymbol]) != 1 || byType[FindingMissingSymbol][0].Symbol != "Teardown" {
		t.Errorf("expected Teardown missing, got %+v", byType[FindingMissingSymbol])
	}
	if len(byType[FindingNewSymbol]) != 1 || byType[FindingNewSymbol][0].Symbol != "Shutdown" {
		t.Errorf("expected Shutdown unclaimed, got %+v", byType[FindingNewSymbol])
	}
}

func TestCheckFileFreshness(t *testing.T) {
	store, err := index.NewStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	dir := t.TempDir()
	content := "package a\n\nfunc A() {}\n"
	path := writeFile(t, dir, "a.go", content)

	if _, err := store.UpsertFile(&index.IndexedFile{
		Path:        path,
		ContentHash: index.HashContent(content),
		Language:    "go",
		Status:      index.StatusIndexed,
	}); err != nil {
		t.Fatal(err)
	}

	fresh, err := CheckFile(store, path)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh {
		t.Error("expected file to be fresh")
	}

	if err := os.WriteFile(path, []byte("package a\n\nfunc B() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	fresh, err = CheckFile(store, path)
	if err != nil {
		t.Fatal(err)
	}
	if fresh {
		t.Error("expected file to be stale after edit")
	}

	fresh, err = CheckFile(store, filepath.Join(dir, "never.go"))
	if err != nil {
		t.Fatal(err)
	}
	if fresh {
		t.Error("untracked file must not be fresh")
	}
}
