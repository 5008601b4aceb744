package discovery

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/leapstack-labs/buster/pkg/core"
)

// FilterResult splits discovered files into included and excluded sets.
type FilterResult struct {
	Included []string
	Excluded []core.ExcludedFile
}

// Filter matches each file, relative to baseDir, against excludePatterns in
// declaration order. The first matching pattern is recorded as the reason.
// Patterns without a slash also match the file's base name.
func Filter(files []string, excludePatterns []string, baseDir string) (*FilterResult, error) {
	result := &FilterResult{
		Included: make([]string, 0, len(files)),
		Excluded: []core.ExcludedFile{},
	}

	if len(excludePatterns) == 0 {
		result.Included = append(result.Included, files...)
		return result, nil
	}

	for _, p := range excludePatterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	for _, file := range files {
		rel := relSlash(absBase, file)
		if pattern, ok := firstMatch(excludePatterns, rel); ok {
			result.Excluded = append(result.Excluded, core.ExcludedFile{
				File:   rel,
				Reason: "excluded by pattern: " + pattern,
			})
			continue
		}
		result.Included = append(result.Included, file)
	}
	return result, nil
}

func firstMatch(patterns []string, rel string) (string, bool) {
	base := path.Base(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return p, true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, base); ok {
				return p, true
			}
		}
	}
	return "", false
}
