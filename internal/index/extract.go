package index

import (
	"path/filepath"
	"regexp"
	"strings"
)

func detectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".go":
		return "go"
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".py":
		return "python"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	case ".kt", ".kts":
		return "kotlin"
	case ".scala":
		return "scala"
	default:
		return ""
	}
}

// extractSymbols runs the per-language line patterns over the content.
// Line-based regex extraction is deliberately shallow: the index needs
// names and locations for search and drift, not a full parse.
func extractSymbols(content, language string) []*Symbol {
	if language == "" {
		return nil
	}

	var patterns map[string]*regexp.Regexp
	switch language {
	case "go":
		patterns = goPatterns
	case "typescript", "javascript":
		patterns = tsPatterns
	case "python":
		patterns = pyPatterns
	case "java", "kotlin", "scala":
		patterns = javaPatterns
	case "rust":
		patterns = rustPatterns
	default:
		return nil
	}

	var symbols []*Symbol
	lines := strings.Split(content, "\n")

	for lineNum, line := range lines {
		// a line like "type X struct {" matches both the generic type
		// pattern and the struct pattern; keep one symbol per name,
		// preferring the specific kind
		found := make(map[string]*Symbol)
		var names []string

		for kind, re := range patterns {
			matches := re.FindStringSubmatch(line)
			if len(matches) <= 1 {
				continue
			}
			name := matches[1]

			if prev, ok := found[name]; ok {
				if kindSpecificity(kind) <= kindSpecificity(prev.Kind) {
					continue
				}
			} else {
				names = append(names, name)
			}

			found[name] = &Symbol{
				Name:       name,
				Kind:       kind,
				Signature:  strings.TrimSpace(matches[0]),
				LineStart:  lineNum + 1,
				LineEnd:    lineNum + 1,
				IsExported: isExported(name, language),
			}
		}

		for _, name := range names {
			symbols = append(symbols, found[name])
		}
	}

	return symbols
}

func kindSpecificity(kind string) int {
	if kind == "type" {
		return 0
	}
	return 1
}

func isExported(name, language string) bool {
	if name == "" {
		return false
	}
	switch language {
	case "go":
		return name[0] >= 'A' && name[0] <= 'Z'
	default:
		return !strings.HasPrefix(name, "_")
	}
}

var (
	goPatterns = map[string]*regexp.Regexp{
		"function":  regexp.MustCompile(`^\s*func\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
		"method":    regexp.MustCompile(`^\s*func\s+\([^)]+\)\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
		"type":      regexp.MustCompile(`^\s*type\s+([A-Za-z_][A-Za-z0-9_]*)\s+`),
		"interface": regexp.MustCompile(`^\s*type\s+([A-Za-z_][A-Za-z0-9_]*)\s+interface\s*\{`),
		"struct":    regexp.MustCompile(`^\s*type\s+([A-Za-z_][A-Za-z0-9_]*)\s+struct\s*\{`),
		"const":     regexp.MustCompile(`^\s*const\s+([A-Za-z_][A-Za-z0-9_]*)\s*`),
		"var":       regexp.MustCompile(`^\s*var\s+([A-Za-z_][A-Za-z0-9_]*)\s+`),
	}

	tsPatterns = map[string]*regexp.Regexp{
		"function":  regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][A-Za-z0-9_$]*)`),
		"class":     regexp.MustCompile(`^\s*(?:export\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)`),
		"interface": regexp.MustCompile(`^\s*(?:export\s+)?interface\s+([A-Za-z_$][A-Za-z0-9_$]*)`),
		"type":      regexp.MustCompile(`^\s*(?:export\s+)?type\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=`),
		"const":     regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*[=:]`),
	}

	pyPatterns = map[string]*regexp.Regexp{
		"function": regexp.MustCompile(`^def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
		"class":    regexp.MustCompile(`^class\s+([A-Za-z_][A-Za-z0-9_]*)`),
		"method":   regexp.MustCompile(`^\s+def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
	}

	javaPatterns = map[string]*regexp.Regexp{
		"class":     regexp.MustCompile(`^\s*(?:public\s+)?(?:abstract\s+)?class\s+([A-Za-z_][A-Za-z0-9_]*)`),
		"interface": regexp.MustCompile(`^\s*(?:public\s+)?interface\s+([A-Za-z_][A-Za-z0-9_]*)`),
		"method":    regexp.MustCompile(`^\s*(?:public|private|protected)\s+(?:static\s+)?[A-Za-z<>\[\]]+\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
	}

	rustPatterns = map[string]*regexp.Regexp{
		"function": regexp.MustCompile(`^\s*(?:pub\s+)?fn\s+([A-Za-z_][A-Za-z0-9_]*)`),
		"struct":   regexp.MustCompile(`^\s*(?:pub\s+)?struct\s+([A-Za-z_][A-Za-z0-9_]*)`),
		"enum":     regexp.MustCompile(`^\s*(?:pub\s+)?enum\s+([A-Za-z_][A-Za-z0-9_]*)`),
		"trait":    regexp.MustCompile(`^\s*(?:pub\s+)?trait\s+([A-Za-z_][A-Za-z0-9_]*)`),
	}
)
