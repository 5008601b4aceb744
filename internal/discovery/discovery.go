// Package discovery finds model files under a project root and applies
// exclusion patterns to them.
package discovery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/leapstack-labs/buster/internal/config"
	"github.com/leapstack-labs/buster/pkg/core"
)

// alwaysSkipped are path segments that never contain model files.
var alwaysSkipped = map[string]bool{
	"node_modules": true,
	"dist":         true,
	"build":        true,
	".git":         true,
}

// Finder expands include patterns into model files.
// A nil cache disables caching.
type Finder struct {
	cache  *Cache
	logger *slog.Logger
}

// NewFinder creates a Finder backed by cache.
func NewFinder(cache *Cache, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Finder{cache: cache, logger: logger}
}

// Discover expands cfg.Include relative to baseDir into a sorted,
// de-duplicated list of absolute .yml/.yaml paths.
func Discover(cfg *core.ResolvedConfig, baseDir string, recursive bool) ([]string, error) {
	return NewFinder(nil, nil).Discover(cfg, baseDir, recursive)
}

// Discover expands cfg.Include relative to baseDir. Results are served from
// the cache while its entry is younger than the cache TTL.
func (f *Finder) Discover(cfg *core.ResolvedConfig, baseDir string, recursive bool) ([]string, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	key := cacheKey(absBase, cfg.Include, recursive)
	if f.cache != nil {
		if files, ok := f.cache.Get(key); ok {
			f.logger.Debug("discovery cache hit", "base_dir", absBase, "files", len(files))
			return files, nil
		}
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range cfg.Include {
		matches, err := expand(absBase, pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range matches {
			if !isModelFile(absBase, path, recursive) || seen[path] {
				continue
			}
			seen[path] = true
			files = append(files, path)
		}
	}
	slices.Sort(files)

	f.logger.Debug("discovered model files", "base_dir", absBase, "patterns", cfg.Include, "files", len(files))

	if f.cache != nil {
		f.cache.Put(key, files)
	}
	return files, nil
}

// expand globs one pattern. Relative patterns are joined with baseDir.
func expand(baseDir, pattern string) ([]string, error) {
	full := pattern
	if !filepath.IsAbs(pattern) {
		full = filepath.Join(baseDir, pattern)
	}
	full = filepath.ToSlash(full)

	if !doublestar.ValidatePattern(full) {
		return nil, fmt.Errorf("invalid include pattern %q", pattern)
	}

	root, rest := doublestar.SplitPattern(full)
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	matches, err := doublestar.Glob(os.DirFS(root), rest, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to expand pattern %q: %w", pattern, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(filepath.FromSlash(root), filepath.FromSlash(m)))
	}
	return out, nil
}

// isModelFile applies the fixed discovery rules to one absolute path.
func isModelFile(baseDir, path string, recursive bool) bool {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".yml" && ext != ".yaml" {
		return false
	}
	if config.IsConfigFileName(name) {
		return false
	}
	if !recursive && filepath.Dir(path) != baseDir {
		return false
	}
	// Only directories below baseDir count; its ancestors are never checked.
	dir := filepath.Dir(path)
	if rel, err := filepath.Rel(baseDir, dir); err == nil {
		dir = rel
	}
	for _, segment := range strings.Split(filepath.ToSlash(dir), "/") {
		if alwaysSkipped[segment] {
			return false
		}
	}
	return true
}

// relSlash returns path relative to baseDir with forward slashes.
// Paths outside baseDir are returned unchanged.
func relSlash(baseDir, path string) string {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
