package index

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// symbol-index.md is the generated half of the institutional memory
// pair. Each file block carries a truncated content hash so drift
// checks can tell a stale claim from a fresh one without re-reading
// the whole index database.

const hashClaimLen = 12

type FileClaim struct {
	Path    string
	Hash    string
	Symbols []SymbolClaim
}

type SymbolClaim struct {
	Kind string
	Name string
	Line int
}

var (
	claimFileRe   = regexp.MustCompile(`^###\s+(.+)$`)
	claimHashRe   = regexp.MustCompile(`^hash:\s*([0-9a-f]+)$`)
	claimSymbolRe = regexp.MustCompile("^- ([a-z]+) `(.+)` line ([0-9]+)$")
)

// ClaimHash truncates a full content hash to the length recorded in
// symbol-index.md.
func ClaimHash(contentHash string) string {
	if len(contentHash) > hashClaimLen {
		return contentHash[:hashClaimLen]
	}
	return contentHash
}

// GenerateSymbolIndex renders the claims for every indexed file. Only
// exported symbols are listed; the database keeps the rest.
func GenerateSymbolIndex(store *Store) (string, error) {
	files, err := store.AllFiles()
	if err != nil {
		return "", fmt.Errorf("list files: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Symbol Index\n\n")
	b.WriteString("Generated by `memory-enforce index`. Hand edits are overwritten.\n")

	for _, f := range files {
		if f.Status != StatusIndexed {
			continue
		}

		symbols, err := store.SymbolsByFile(f.ID)
		if err != nil {
			return "", fmt.Errorf("symbols for %s: %w", f.Path, err)
		}

		b.WriteString("\n### ")
		b.WriteString(f.Path)
		b.WriteString("\n")
		b.WriteString("hash: ")
		b.WriteString(ClaimHash(f.ContentHash))
		b.WriteString("\n")

		for _, s := range symbols {
			if !s.IsExported {
				continue
			}
			fmt.Fprintf(&b, "- %s `%s` line %d\n", s.Kind, s.Name, s.LineStart)
		}
	}

	return b.String(), nil
}

func WriteSymbolIndex(path string, store *Store) error {
	content, err := GenerateSymbolIndex(store)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ParseSymbolIndex reads the claims back. Unrecognized lines are
// ignored so prose around the blocks is harmless.
func ParseSymbolIndex(content string) []*FileClaim {
	var claims []*FileClaim
	var current *FileClaim

	for _, line := range strings.Split(content, "\n") {
		if m := claimFileRe.FindStringSubmatch(line); m != nil {
			current = &FileClaim{Path: strings.TrimSpace(m[1])}
			claims = append(claims, current)
			continue
		}
		if current == nil {
			continue
		}
		if m := claimHashRe.FindStringSubmatch(line); m != nil {
			current.Hash = m[1]
			continue
		}
		if m := claimSymbolRe.FindStringSubmatch(line); m != nil {
			lineNum, _ := strconv.Atoi(m[3])
			current.Symbols = append(current.Symbols, SymbolClaim{
				Kind: m[1],
				Name: m[2],
				Line: lineNum,
			})
		}
	}

	return claims
}

func LoadSymbolIndex(path string) ([]*FileClaim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseSymbolIndex(string(data)), nil
}
