package index

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent is the canonical content hash: sha256 over the UTF-8
// normalized text, so the same file hashes identically regardless of
// its on-disk encoding.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ExtractSource extracts symbols for the language implied by the path.
func ExtractSource(path, content string) []*Symbol {
	return extractSymbols(content, detectLanguage(path))
}
