package config

import "github.com/leapstack-labs/buster/pkg/core"

// ConfigFileName is the name of the project config file.
const ConfigFileName = "buster.yml"

// ConfigFileNameAlt is the alternate name of the project config file.
const ConfigFileNameAlt = "buster.yaml"

// skipDirs are generated or vendored directories never searched for config.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"coverage":     true,
	".turbo":       true,
	".cache":       true,
	".venv":        true,
	"__pycache__":  true,
	"vendor":       true,
	"target":       true,
	"out":          true,
}

// IsSkippedDir reports whether a directory name is excluded from tree walks.
func IsSkippedDir(name string) bool {
	return skipDirs[name]
}

// IsConfigFileName reports whether name is buster.yml or buster.yaml.
func IsConfigFileName(name string) bool {
	return name == ConfigFileName || name == ConfigFileNameAlt
}

// ResolveOptions carries CLI-level overrides for Resolve.
// Empty slices mean "not set on the command line".
type ResolveOptions struct {
	Include []string
	Exclude []string
}

// pick returns the first non-empty pattern list, copied.
func pick(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return append([]string(nil), l...)
		}
	}
	return []string{}
}

// applyDefaults fills the include/exclude lists of a resolved config.
func applyDefaults(rc *core.ResolvedConfig, opts ResolveOptions, p *core.Project) {
	rc.Include = pick(opts.Include, p.Include, core.DefaultInclude)
	rc.Exclude = pick(opts.Exclude, p.Exclude, core.DefaultExclude)
}
