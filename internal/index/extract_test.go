package index

import "testing"

func TestDetectLanguage(t *testing.T) {
	cases := map[string]string{
		"a/b/store.go": "go",
		"src/app.tsx":  "typescript",
		"cli.py":       "python",
		"lib.rs":       "rust",
		"Main.java":    "java",
		"notes.txt":    "",
	}
	for path, want := range cases {
		if got := detectLanguage(path); got != want {
			t.Errorf("detectLanguage(%s) = %q, want %q", path, got, want)
		}
	}
}

func TestExtractGoSymbols(t *testing.T) {
	source := `package store

type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	return nil, nil
}

func (s *Store) Close() error {
	return nil
}

func helper() {}
`
	symbols := extractSymbols(source, "go")

	byName := map[string]*Symbol{}
	for _, s := range symbols {
		byName[s.Name] = s
	}

	if s := byName["Store"]; s == nil || !s.IsExported {
		t.Errorf("expected exported Store type, got %+v", s)
	}
	if s := byName["NewStore"]; s == nil || s.Kind != "function" {
		t.Errorf("expected NewStore function, got %+v", s)
	}
	if s := byName["Close"]; s == nil || s.Kind != "method" {
		t.Errorf("expected Close method, got %+v", s)
	}
	if s := byName["helper"]; s == nil || s.IsExported {
		t.Errorf("expected unexported helper, got %+v", s)
	}
}

func TestExtractGoSymbolsOnePerDeclaration(t *testing.T) {
	source := `package store

type Store struct {
}

type Reader interface {
}

type Alias = string
`
	symbols := extractSymbols(source, "go")

	counts := map[string]int{}
	kinds := map[string]string{}
	for _, s := range symbols {
		counts[s.Name]++
		kinds[s.Name] = s.Kind
	}

	for name, count := range counts {
		if count != 1 {
			t.Errorf("%s extracted %d times, want 1", name, count)
		}
	}
	if kinds["Store"] != "struct" {
		t.Errorf("Store kind = %q, want struct", kinds["Store"])
	}
	if kinds["Reader"] != "interface" {
		t.Errorf("Reader kind = %q, want interface", kinds["Reader"])
	}
	if kinds["Alias"] != "type" {
		t.Errorf("Alias kind = %q, want type", kinds["Alias"])
	}
}

func TestExtractPythonSymbols(t *testing.T) {
	source := `class Orchestrator:
    def consult(self, task):
        pass

def _internal():
    pass
`
	symbols := extractSymbols(source, "python")

	byName := map[string]*Symbol{}
	for _, s := range symbols {
		byName[s.Name] = s
	}

	if s := byName["Orchestrator"]; s == nil || s.Kind != "class" {
		t.Errorf("expected Orchestrator class, got %+v", s)
	}
	if s := byName["consult"]; s == nil || s.Kind != "method" {
		t.Errorf("expected consult method, got %+v", s)
	}
	if s := byName["_internal"]; s == nil || s.IsExported {
		t.Errorf("expected _internal unexported, got %+v", s)
	}
}

func TestExtractUnknownLanguage(t *testing.T) {
	if got := extractSymbols("anything", ""); got != nil {
		t.Errorf("expected nil for unknown language, got %v", got)
	}
}
