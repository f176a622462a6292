package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateAndParseSymbolIndex(t *testing.T) {
	store := newTestIndexStore(t)

	fileID, err := store.UpsertFile(&IndexedFile{
		Path:        "internal/api/server.go",
		ContentHash: "0123456789abcdef0123",
		Language:    "go",
		Status:      StatusIndexed,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceSymbols(fileID, []*Symbol{
		{Name: "Server", Kind: "struct", LineStart: 12, IsExported: true},
		{Name: "newMux", Kind: "function", LineStart: 30},
	}); err != nil {
		t.Fatal(err)
	}

	content, err := GenerateSymbolIndex(store)
	if err != nil {
		t.Fatalf("GenerateSymbolIndex failed: %v", err)
	}

	if !strings.Contains(content, "### internal/api/server.go") {
		t.Error("expected file block heading")
	}
	if !strings.Contains(content, "hash: 0123456789ab") {
		t.Error("expected truncated hash claim")
	}
	if strings.Contains(content, "newMux") {
		t.Error("unexported symbol should not be listed")
	}

	claims := ParseSymbolIndex(content)
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}
	claim := claims[0]
	if claim.Path != "internal/api/server.go" || claim.Hash != "0123456789ab" {
		t.Errorf("unexpected claim: %+v", claim)
	}
	if len(claim.Symbols) != 1 || claim.Symbols[0].Name != "Server" || claim.Symbols[0].Line != 12 {
		t.Errorf("unexpected symbols: %+v", claim.Symbols)
	}
}

func TestLoadSymbolIndexMissing(t *testing.T) {
	claims, err := LoadSymbolIndex(filepath.Join(t.TempDir(), "symbol-index.md"))
	if err != nil {
		t.Fatalf("expected missing index to be nil, got error %v", err)
	}
	if claims != nil {
		t.Errorf("expected nil claims, got %v", claims)
	}
}

func TestWriteSymbolIndex(t *testing.T) {
	store := newTestIndexStore(t)
	path := filepath.Join(t.TempDir(), "symbol-index.md")

	if err := WriteSymbolIndex(path, store); err != nil {
		t.Fatalf("WriteSymbolIndex failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# Symbol Index") {
		t.Error("expected header in written file")
	}
}
