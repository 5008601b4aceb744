package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/buster/internal/apperr"
	"github.com/leapstack-labs/buster/pkg/core"
)

// Resolve selects the named project, or the first declared one when
// projectName is empty, and merges it with CLI options and defaults.
// Precedence for include/exclude: CLI option > project > default.
func Resolve(cfg *core.ProjectConfig, opts ResolveOptions, projectName string) (*core.ResolvedConfig, error) {
	if cfg == nil || len(cfg.Projects) == 0 {
		return nil, &apperr.ConfigurationError{
			Message: "no projects defined in configuration",
			Hint:    "add at least one entry under projects: in buster.yml",
		}
	}

	project := &cfg.Projects[0]
	if projectName != "" {
		project = nil
		for i := range cfg.Projects {
			if cfg.Projects[i].Name == projectName {
				project = &cfg.Projects[i]
				break
			}
		}
		if project == nil {
			return nil, &apperr.ConfigurationError{
				Message: fmt.Sprintf("project %q not found", projectName),
				Hint:    "available projects: " + strings.Join(ProjectNames(cfg), ", "),
			}
		}
	}

	rc := &core.ResolvedConfig{
		ProjectName:    project.Name,
		DataSourceName: project.DataSource,
		Schema:         project.Schema,
	}
	if project.Database != "" {
		db := project.Database
		rc.Database = &db
	}
	applyDefaults(rc, opts, project)

	return rc, nil
}

// ResolveAll resolves every declared project in declaration order.
func ResolveAll(cfg *core.ProjectConfig, opts ResolveOptions) ([]*core.ResolvedConfig, error) {
	if cfg == nil || len(cfg.Projects) == 0 {
		return nil, &apperr.ConfigurationError{Message: "no projects defined in configuration"}
	}
	out := make([]*core.ResolvedConfig, 0, len(cfg.Projects))
	for _, p := range cfg.Projects {
		rc, err := Resolve(cfg, opts, p.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, nil
}

// ProjectNames lists declared project names in order.
func ProjectNames(cfg *core.ProjectConfig) []string {
	names := make([]string, 0, len(cfg.Projects))
	for _, p := range cfg.Projects {
		names = append(names, p.Name)
	}
	return names
}
