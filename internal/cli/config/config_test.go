package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/buster/internal/apperr"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFlags mirrors the flags registered by the root and deploy commands.
func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("path", DefaultPath, "")
	fs.String("project", "", "")
	fs.Bool("dry-run", false, "")
	fs.BoolP("verbose", "v", false, "")
	fs.Bool("debug", false, "")
	fs.String("api-url", "", "")
	fs.Int("retries", 0, "")
	fs.Duration("retry-delay", 0, "")
	fs.StringSlice("exclude", nil, "")
	fs.String("state", "", "")
	fs.Bool("no-color", false, "")
	fs.StringP("output", "o", "", "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfigWithOptions(Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultPath, cfg.Path)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultRetries, cfg.Retries)
	assert.Equal(t, DefaultRetryDelay, cfg.RetryDelay)
	assert.Equal(t, filepath.Join(DefaultPath, DefaultStateFile), cfg.StatePath)
	assert.True(t, cfg.History)
	assert.Equal(t, "text", cfg.Output)
	assert.False(t, cfg.DryRun)
	assert.Empty(t, cfg.Exclude)
	assert.Empty(t, cfg.EnvFile)
}

func TestLoadConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("BUSTER_API_KEY", "secret")
	t.Setenv("BUSTER_API_URL", "https://staging.buster.so")
	t.Setenv("BUSTER_RETRY_DELAY", "250ms")
	t.Setenv("BUSTER_RETRIES", "5")
	t.Setenv("BUSTER_EXCLUDE", "legacy/**, scratch/*.yml")
	t.Setenv("BUSTER_DRY_RUN", "true")
	t.Setenv("BUSTER_PATH", "/srv/semantic")

	cfg, err := LoadConfigWithOptions(Options{})
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "https://staging.buster.so", cfg.APIURL)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, []string{"legacy/**", "scratch/*.yml"}, cfg.Exclude)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, filepath.Join("/srv/semantic", DefaultStateFile), cfg.StatePath)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"BUSTER_API_KEY=from-dotenv\nBUSTER_PROJECT=warehouse\nUNRELATED=1\n"), 0o600))

	t.Run("applied", func(t *testing.T) {
		cfg, err := LoadConfigWithOptions(Options{EnvFile: envFile})
		require.NoError(t, err)
		assert.Equal(t, "from-dotenv", cfg.APIKey)
		assert.Equal(t, "warehouse", cfg.Project)
		assert.Equal(t, envFile, cfg.EnvFile)
		_, set := os.LookupEnv("UNRELATED")
		assert.False(t, set, "dotenv must not leak into the process environment")
	})

	t.Run("environment wins over dotenv", func(t *testing.T) {
		t.Setenv("BUSTER_API_KEY", "from-env")
		cfg, err := LoadConfigWithOptions(Options{EnvFile: envFile})
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.APIKey)
		assert.Equal(t, "warehouse", cfg.Project)
	})

	t.Run("missing file is ignored", func(t *testing.T) {
		cfg, err := LoadConfigWithOptions(Options{EnvFile: filepath.Join(dir, "absent.env")})
		require.NoError(t, err)
		assert.Empty(t, cfg.EnvFile)
	})
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("BUSTER_RETRIES", "5")
	t.Setenv("BUSTER_PROJECT", "from-env")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{
		"--retries", "2",
		"--retry-delay", "3s",
		"--exclude", "a/**", "--exclude", "b.yml",
		"--state", "/tmp/history.db",
		"--dry-run",
		"-o", "json",
	}))

	cfg, err := LoadConfigWithOptions(Options{Flags: fs})
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, 3*time.Second, cfg.RetryDelay)
	assert.Equal(t, []string{"a/**", "b.yml"}, cfg.Exclude)
	assert.Equal(t, "/tmp/history.db", cfg.StatePath)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "from-env", cfg.Project, "unset flags must not override env")
}

func TestLoadConfig_UnchangedFlagDefaultsIgnored(t *testing.T) {
	t.Setenv("BUSTER_API_URL", "https://eu.buster.so")

	fs := newFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := LoadConfigWithOptions(Options{Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, "https://eu.buster.so", cfg.APIURL)
	assert.Equal(t, DefaultRetries, cfg.Retries)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		errPart string
	}{
		{name: "zero retries", env: map[string]string{"BUSTER_RETRIES": "0"}, errPart: "retries"},
		{name: "negative retries", env: map[string]string{"BUSTER_RETRIES": "-2"}, errPart: "retries"},
		{name: "relative api url", env: map[string]string{"BUSTER_API_URL": "api.buster.so"}, errPart: "api_url"},
		{name: "unknown output", env: map[string]string{"BUSTER_OUTPUT": "yaml"}, errPart: "output"},
		{name: "bad duration", env: map[string]string{"BUSTER_RETRY_DELAY": "soon"}, errPart: "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfigWithOptions(Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}

	t.Run("validation errors are configuration errors", func(t *testing.T) {
		t.Setenv("BUSTER_RETRIES", "0")
		_, err := LoadConfigWithOptions(Options{})
		assert.Equal(t, apperr.ExitConfiguration, apperr.ExitCode(err))
	})
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	assert.NotNil(t, GetLogger(ctx), "fallback logger")
	cfg := GetConfig(ctx)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultRetries, cfg.Retries)

	want := &Config{Path: "/p", Project: "x"}
	assert.Same(t, want, GetConfig(WithConfig(ctx, want)))
}

func TestResolvePathRelativeTo(t *testing.T) {
	tests := []struct {
		path, base, want string
	}{
		{"", "/root", ""},
		{":memory:", "/root", ":memory:"},
		{"/abs/state.db", "/root", "/abs/state.db"},
		{".buster/state.db", "/root", filepath.Join("/root", ".buster/state.db")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolvePathRelativeTo(tt.path, tt.base), tt.path)
	}
}
