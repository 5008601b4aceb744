package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// Options controls where LoadConfigWithOptions reads settings from.
type Options struct {
	// Flags are the command flags; only flags that were set are applied.
	Flags *pflag.FlagSet
	// EnvFile is the dotenv file to read. Empty disables dotenv loading.
	EnvFile string
}

// flagKeys maps flag names whose config key is not the snake_case form.
var flagKeys = map[string]string{
	"state": "state_path",
}

// LoadConfig loads configuration from defaults, ./.env, environment
// variables and flags. Precedence (highest to lowest): flags > env vars >
// .env > defaults.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithOptions(Options{Flags: flags, EnvFile: DefaultEnvFile})
}

// LoadConfigWithOptions is LoadConfig with explicit sources.
func LoadConfigWithOptions(opts Options) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. .env file
	envFile, err := loadDotEnv(k, opts.EnvFile)
	if err != nil {
		return nil, err
	}

	// 3. Environment variables: BUSTER_API_KEY -> api_key
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.EnvFile = envFile
	cfg.Include = trimPatterns(cfg.Include)
	cfg.Exclude = trimPatterns(cfg.Exclude)
	cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, cfg.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv merges BUSTER_* entries of a dotenv file into k without
// touching the process environment. A missing file is not an error.
func loadDotEnv(k *koanf.Koanf, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", path, err)
	}

	values := make(map[string]any, len(vars))
	for name, value := range vars {
		if strings.HasPrefix(name, EnvPrefix) {
			values[envKey(name)] = value
		}
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return "", fmt.Errorf("failed to load %s: %w", path, err)
	}
	return path, nil
}

func envKey(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
}

// trimPatterns drops blanks left by comma splitting.
func trimPatterns(in []string) []string {
	var out []string
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, in-memory or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config from the command context, or the defaults
// when none was stored.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return &Config{
		Path:       DefaultPath,
		APIURL:     DefaultAPIURL,
		Timeout:    DefaultTimeout,
		Retries:    DefaultRetries,
		RetryDelay: DefaultRetryDelay,
		StatePath:  resolvePathRelativeTo(DefaultStateFile, DefaultPath),
		History:    true,
		Output:     DefaultOutput,
	}
}
