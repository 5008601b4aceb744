// Package config locates and loads buster.yml and resolves one project's
// settings against CLI options and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/buster/internal/apperr"
	"github.com/leapstack-labs/buster/pkg/core"
)

// LoadResult is a parsed project config and the file it came from.
type LoadResult struct {
	Config     *core.ProjectConfig
	ConfigPath string
}

// Load finds the first buster.yml/buster.yaml under rootPath and parses it.
// Multiple config files are never merged; the first one found wins.
// A config that cannot be parsed or validated is logged and reported as
// "no valid projects found".
func Load(rootPath string, logger *slog.Logger) (*LoadResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, &apperr.ConfigurationError{Message: "invalid project path", Path: rootPath, Err: err}
	}

	info, err := os.Stat(absRoot)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &apperr.ConfigurationError{
			Message: "project path does not exist",
			Path:    absRoot,
			Hint:    "pass an existing directory with --path",
		}
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &apperr.ConfigurationError{
			Message: "project path is not a directory",
			Path:    absRoot,
			Hint:    "pass the directory that contains buster.yml with --path",
		}
	}

	configPath, err := FindConfigFile(absRoot)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return nil, &apperr.ConfigurationError{
			Message: "no buster.yml or buster.yaml found",
			Path:    absRoot,
			Hint:    "create a buster.yml with a top-level projects: list",
		}
	}

	logger.Debug("loading project config", "path", configPath)

	cfg, err := parseConfigFile(configPath)
	if err != nil {
		logger.Warn("ignoring invalid project config", "path", configPath, "error", err.Error())
		return nil, &apperr.ConfigurationError{
			Message: "no valid projects found",
			Path:    configPath,
			Err:     err,
			Hint:    "each project needs name, data_source and schema",
		}
	}

	return &LoadResult{Config: cfg, ConfigPath: configPath}, nil
}

// FindConfigFile returns the config file of dir itself if present, otherwise
// the first one found by a lexical depth-first walk. Generated directories
// are skipped. Returns empty string if not found.
func FindConfigFile(dir string) (string, error) {
	if found := configFileIn(dir); found != "" {
		return found, nil
	}

	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != dir && IsSkippedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsConfigFileName(d.Name()) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return found, nil
}

// configFileIn checks dir for buster.yml then buster.yaml.
func configFileIn(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// parseConfigFile loads, expands and validates a config file.
func parseConfigFile(path string) (*core.ProjectConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg core.ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	for i := range cfg.Projects {
		expandProjectEnvVars(&cfg.Projects[i])
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the schema of a project config, reporting every problem.
func Validate(cfg *core.ProjectConfig) error {
	if len(cfg.Projects) == 0 {
		return validation.Errors{"projects": errors.New("at least one project is required")}
	}

	errs := validation.Errors{}
	seen := make(map[string]bool, len(cfg.Projects))
	for i := range cfg.Projects {
		p := &cfg.Projects[i]
		key := fmt.Sprintf("projects.%d", i)
		if err := validation.ValidateStruct(p,
			validation.Field(&p.Name, validation.Required),
			validation.Field(&p.DataSource, validation.Required),
			validation.Field(&p.Schema, validation.Required),
			validation.Field(&p.Include, validation.Each(validation.Required)),
			validation.Field(&p.Exclude, validation.Each(validation.Required)),
		); err != nil {
			errs[key] = err
			continue
		}
		if seen[p.Name] {
			errs[key] = fmt.Errorf("duplicate project name %q", p.Name)
		}
		seen[p.Name] = true
	}
	return errs.Filter()
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns; unset variables stay as-is.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

func expandProjectEnvVars(p *core.Project) {
	p.DataSource = expandEnvVars(p.DataSource)
	p.Database = expandEnvVars(p.Database)
	p.Schema = expandEnvVars(p.Schema)
}
