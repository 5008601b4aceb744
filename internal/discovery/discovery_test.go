package discovery

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/buster/internal/testutil"
	"github.com/leapstack-labs/buster/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("name: x\n"), 0o600))
	}
}

func defaultConfig() *core.ResolvedConfig {
	return &core.ResolvedConfig{
		ProjectName:    "p",
		DataSourceName: "pg",
		Schema:         "public",
		Include:        core.DefaultInclude,
		Exclude:        []string{},
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"buster.yml",
		"orders.yml",
		"models/customers.yaml",
		"models/nested/payments.yml",
		"models/readme.md",
		"node_modules/pkg/model.yml",
		"dist/model.yml",
		"build/model.yml",
		".git/model.yml",
	)

	t.Run("recursive", func(t *testing.T) {
		files, err := Discover(defaultConfig(), root, true)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "models", "customers.yaml"),
			filepath.Join(root, "models", "nested", "payments.yml"),
			filepath.Join(root, "orders.yml"),
		}, files)
	})

	t.Run("non-recursive keeps top level only", func(t *testing.T) {
		files, err := Discover(defaultConfig(), root, false)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "orders.yml")}, files)
	})

	t.Run("overlapping patterns are de-duplicated", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Include = []string{"**/*.yml", "models/**/*.yml", "orders.yml"}
		files, err := Discover(cfg, root, true)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "models", "nested", "payments.yml"),
			filepath.Join(root, "orders.yml"),
		}, files)
	})

	t.Run("missing directory yields nothing", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Include = []string{"does-not-exist/**/*.yml"}
		files, err := Discover(cfg, root, true)
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Include = []string{"models/[*.yml"}
		_, err := Discover(cfg, root, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid include pattern")
	})

	t.Run("project under a skipped directory name", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "build", "analytics")
		writeTree(t, base, "models/orders.yml", "models/dist/stale.yml")

		files, err := Discover(defaultConfig(), base, true)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(base, "models", "orders.yml")}, files)
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := Discover(defaultConfig(), root, true)
		require.NoError(t, err)
		for range 3 {
			again, err := Discover(defaultConfig(), root, true)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}

func TestFinder_UsesCache(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.yml")

	now := time.Now()
	cache := NewCache(time.Minute)
	cache.now = func() time.Time { return now }
	finder := NewFinder(cache, testutil.NewTestLogger(t))

	files, err := finder.Discover(defaultConfig(), root, true)
	require.NoError(t, err)
	require.Len(t, files, 1)

	writeTree(t, root, "b.yml")

	files, err = finder.Discover(defaultConfig(), root, true)
	require.NoError(t, err)
	assert.Len(t, files, 1, "fresh entry should be served from cache")

	now = now.Add(2 * time.Minute)
	files, err = finder.Discover(defaultConfig(), root, true)
	require.NoError(t, err)
	assert.Len(t, files, 2, "expired entry should be refreshed")

	writeTree(t, root, "c.yml")
	cache.Invalidate()
	files, err = finder.Discover(defaultConfig(), root, true)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestFilter(t *testing.T) {
	root := t.TempDir()
	files := []string{
		filepath.Join(root, "models", "orders.yml"),
		filepath.Join(root, "models", "staging", "stg_orders.yml"),
		filepath.Join(root, "legacy", "old.yml"),
	}

	t.Run("no patterns is identity", func(t *testing.T) {
		res, err := Filter(files, nil, root)
		require.NoError(t, err)
		assert.Equal(t, files, res.Included)
		assert.NotNil(t, res.Excluded)
		assert.Empty(t, res.Excluded)
	})

	t.Run("first match wins", func(t *testing.T) {
		res, err := Filter(files, []string{"legacy/**", "**/*.yml"}, root)
		require.NoError(t, err)
		assert.Empty(t, res.Included)
		require.Len(t, res.Excluded, 3)
		assert.Equal(t, core.ExcludedFile{File: "models/orders.yml", Reason: "excluded by pattern: **/*.yml"}, res.Excluded[0])
		assert.Equal(t, core.ExcludedFile{File: "legacy/old.yml", Reason: "excluded by pattern: legacy/**"}, res.Excluded[2])
	})

	t.Run("pattern without slash matches base name", func(t *testing.T) {
		res, err := Filter(files, []string{"stg_*.yml"}, root)
		require.NoError(t, err)
		assert.Equal(t, []string{files[0], files[2]}, res.Included)
		require.Len(t, res.Excluded, 1)
		assert.Equal(t, "models/staging/stg_orders.yml", res.Excluded[0].File)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := Filter(files, []string{"[oops"}, root)
		require.Error(t, err)
	})
}

func TestCache(t *testing.T) {
	now := time.Now()
	c := NewCache(0)
	c.now = func() time.Time { return now }

	_, ok := c.Get("k")
	assert.False(t, ok)

	in := []string{"a", "b"}
	c.Put("k", in)
	in[0] = "mutated"

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	now = now.Add(DefaultCacheTTL)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
