// Package drift compares the claims in symbol-index.md against the
// live codebase. The index file is institutional memory; the codebase
// is ground truth. Any disagreement is a finding.
package drift

import (
	"fmt"
	"os"

	"github.com/kortex-labs/memory-enforce/internal/index"
	"github.com/kortex-labs/memory-enforce/internal/logger"
)

var log = logger.ForComponent("drift")

type FindingType string

const (
	FindingStaleHash     FindingType = "stale_hash"
	FindingMissingFile   FindingType = "missing_file"
	FindingMissingSymbol FindingType = "missing_symbol"
	FindingNewSymbol     FindingType = "new_symbol"
)

type Finding struct {
	Type   FindingType `json:"type"`
	Path   string      `json:"path"`
	Symbol string      `json:"symbol,omitempty"`
	Detail string      `json:"detail"`
}

type Report struct {
	CheckedFiles int        `json:"checked_files"`
	Findings     []*Finding `json:"findings"`
	Fresh        bool       `json:"fresh"`
}

// Check reads every claimed file, re-hashes it, and diffs the exported
// symbols when the hash no longer matches.
func Check(claims []*index.FileClaim) *Report {
	report := &Report{CheckedFiles: len(claims)}

	for _, claim := range claims {
		report.Findings = append(report.Findings, checkClaim(claim)...)
	}

	report.Fresh = len(report.Findings) == 0
	return report
}

func checkClaim(claim *index.FileClaim) []*Finding {
	if _, err := os.Stat(claim.Path); err != nil {
		return []*Finding{{
			Type:   FindingMissingFile,
			Path:   claim.Path,
			Detail: "file claimed by symbol-index.md no longer exists",
		}}
	}

	content, _, err := index.ReadFileAsUTF8(claim.Path)
	if err != nil {
		log.Warn("cannot read claimed file", "path", claim.Path, "error", err)
		return []*Finding{{
			Type:   FindingMissingFile,
			Path:   claim.Path,
			Detail: fmt.Sprintf("file unreadable: %v", err),
		}}
	}

	liveHash := index.ClaimHash(index.HashContent(content))
	if liveHash == claim.Hash {
		return nil
	}

	findings := []*Finding{{
		Type:   FindingStaleHash,
		Path:   claim.Path,
		Detail: fmt.Sprintf("content hash %s no longer matches claimed %s", liveHash, claim.Hash),
	}}

	findings = append(findings, diffSymbols(claim, content)...)
	return findings
}

// diffSymbols names what changed inside a stale file so the report is
// actionable, not just "something moved".
func diffSymbols(claim *index.FileClaim, content string) []*Finding {
	live := map[string]bool{}
	for _, s := range index.ExtractSource(claim.Path, content) {
		if s.IsExported {
			live[s.Name] = true
		}
	}

	claimed := map[string]bool{}
	for _, s := range claim.Symbols {
		claimed[s.Name] = true
	}

	var findings []*Finding

	for _, s := range claim.Symbols {
		if !live[s.Name] {
			findings = append(findings, &Finding{
				Type:   FindingMissingSymbol,
				Path:   claim.Path,
				Symbol: s.Name,
				Detail: fmt.Sprintf("claimed %s `%s` is gone from the file", s.Kind, s.Name),
			})
		}
	}

	for name := range live {
		if !claimed[name] {
			findings = append(findings, &Finding{
				Type:   FindingNewSymbol,
				Path:   claim.Path,
				Symbol: name,
				Detail: fmt.Sprintf("exported symbol `%s` is not claimed by symbol-index.md", name),
			})
		}
	}

	return findings
}

// CheckFile answers whether a single indexed file is still fresh,
// without loading the markdown claims.
func CheckFile(store *index.Store, path string) (bool, error) {
	file, err := store.GetFile(path)
	if err != nil {
		return false, err
	}
	if file == nil {
		return false, nil
	}

	content, _, err := index.ReadFileAsUTF8(path)
	if err != nil {
		return false, err
	}

	return index.HashContent(content) == file.ContentHash, nil
}
