// Package orchestrate coordinates multi-persona consultations over a
// development task: it analyzes the task, picks an orchestration
// pattern, runs the consultants, and synthesizes their responses.
package orchestrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Persona is one consultant's configuration. Custom personas live as
// JSON files in the personas directory; the five built-in ones ship in
// code.
type Persona struct {
	Identity     Identity       `json:"agent_identity"`
	Capabilities []string       `json:"capabilities"`
	Methodology  []string       `json:"methodology"`
	InputSchema  map[string]any `json:"input_schema"`
	OutputSchema map[string]any `json:"output_schema"`
}

type Identity struct {
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Expertise []string `json:"expertise"`
}

var requiredPersonaKeys = []string{
	"agent_identity", "capabilities", "methodology", "input_schema", "output_schema",
}

var anySchema = map[string]any{"type": "object"}

var builtinPersonas = map[string]*Persona{
	"senior-architect": {
		Identity: Identity{
			Name:      "senior-architect",
			Role:      "System architecture and technical direction",
			Expertise: []string{"architecture", "design", "system", "integration"},
		},
		Capabilities: []string{"system design", "technology selection", "scalability review"},
		Methodology:  []string{"clean_architecture", "solid", "microservices"},
		InputSchema:  anySchema,
		OutputSchema: anySchema,
	},
	"security-consultant": {
		Identity: Identity{
			Name:      "security-consultant",
			Role:      "Threat modeling and security review",
			Expertise: []string{"security", "auth", "encryption", "vulnerability"},
		},
		Capabilities: []string{"security analysis", "threat modeling", "compliance review"},
		Methodology:  []string{"owasp_top10", "nist_csf"},
		InputSchema:  anySchema,
		OutputSchema: anySchema,
	},
	"ux-strategist": {
		Identity: Identity{
			Name:      "ux-strategist",
			Role:      "User experience and interface strategy",
			Expertise: []string{"ui", "ux", "user", "interface"},
		},
		Capabilities: []string{"user research", "interaction design", "accessibility review"},
		Methodology:  []string{"design_thinking"},
		InputSchema:  anySchema,
		OutputSchema: anySchema,
	},
	"backend-builder": {
		Identity: Identity{
			Name:      "backend-builder",
			Role:      "Server-side implementation",
			Expertise: []string{"api", "backend", "database", "server"},
		},
		Capabilities: []string{"api design", "data modeling", "service implementation"},
		Methodology:  []string{"solid", "rest_api"},
		InputSchema:  anySchema,
		OutputSchema: anySchema,
	},
	"frontend-builder": {
		Identity: Identity{
			Name:      "frontend-builder",
			Role:      "Client-side implementation",
			Expertise: []string{"frontend", "ui", "component"},
		},
		Capabilities: []string{"component design", "state management", "accessibility"},
		Methodology:  []string{"solid", "design_thinking"},
		InputSchema:  anySchema,
		OutputSchema: anySchema,
	},
}

// Loader resolves persona names to configurations. JSON files in the
// personas directory shadow the built-ins of the same name.
type Loader struct {
	dir string

	mu     sync.Mutex
	loaded map[string]*Persona
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, loaded: make(map[string]*Persona)}
}

func (l *Loader) Load(name string) (*Persona, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.loaded[name]; ok {
		return p, nil
	}

	path := filepath.Join(l.dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if p, ok := builtinPersonas[name]; ok {
				l.loaded[name] = p
				return p, nil
			}
			return nil, fmt.Errorf("persona %q not found", name)
		}
		return nil, fmt.Errorf("read persona %q: %w", name, err)
	}

	p, err := parsePersona(name, data)
	if err != nil {
		return nil, err
	}
	l.loaded[name] = p
	return p, nil
}

func parsePersona(name string, data []byte) (*Persona, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse persona %q: %w", name, err)
	}
	for _, key := range requiredPersonaKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("persona %q missing required key %q", name, key)
		}
	}

	var p Persona
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse persona %q: %w", name, err)
	}
	if p.Identity.Name == "" {
		p.Identity.Name = name
	}
	return &p, nil
}

// Available lists built-in persona names plus any JSON files in the
// personas directory, sorted and deduplicated.
func (l *Loader) Available() []string {
	seen := make(map[string]bool)
	for name := range builtinPersonas {
		seen[name] = true
	}

	entries, err := os.ReadDir(l.dir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			seen[strings.TrimSuffix(entry.Name(), ".json")] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
