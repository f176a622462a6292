package index

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// CollectFiles walks root and returns the source files worth indexing.
// Excluded directories are pruned so large trees like node_modules are
// never descended into.
func CollectFiles(root string, excludePatterns []string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if path != root && dirExcluded(path, excludePatterns) {
				return fs.SkipDir
			}
			return nil
		}

		if detectLanguage(path) == "" {
			return nil
		}

		for _, pattern := range excludePatterns {
			if matched, err := doublestar.Match(pattern, path); err == nil && matched {
				return nil
			}
		}

		paths = append(paths, path)
		return nil
	})

	return paths, err
}

// dirExcluded prunes a directory when a "**/name/**" pattern names it.
func dirExcluded(path string, patterns []string) bool {
	for _, pattern := range patterns {
		trimmed := strings.TrimSuffix(pattern, "/**")
		if trimmed == pattern {
			continue
		}
		if matched, err := doublestar.Match(trimmed, path); err == nil && matched {
			return true
		}
	}
	return false
}
