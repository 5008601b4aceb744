package core

// Default discovery patterns applied when neither the CLI nor the project sets them.
var (
	DefaultInclude = []string{"**/*.yml", "**/*.yaml"}
	DefaultExclude = []string{}
)

// ProjectConfig is the parsed content of buster.yml.
type ProjectConfig struct {
	Projects []Project `koanf:"projects" yaml:"projects" json:"projects"`
}

// Project is one named deployment target declared in buster.yml.
// A repository may declare several, e.g. one per data warehouse.
type Project struct {
	Name       string   `koanf:"name" yaml:"name" json:"name"`
	DataSource string   `koanf:"data_source" yaml:"data_source" json:"data_source"`
	Database   string   `koanf:"database" yaml:"database,omitempty" json:"database,omitempty"`
	Schema     string   `koanf:"schema" yaml:"schema" json:"schema"`
	Include    []string `koanf:"include" yaml:"include,omitempty" json:"include,omitempty"`
	Exclude    []string `koanf:"exclude" yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// ResolvedConfig is a single project's settings merged with CLI defaults.
// Include and Exclude are never nil.
type ResolvedConfig struct {
	ProjectName    string
	DataSourceName string
	Database       *string
	Schema         string
	Include        []string
	Exclude        []string
}

// ProjectDefaults are the values a project cascades into its models.
// Nil means the project does not set the field.
type ProjectDefaults struct {
	DataSourceName *string
	Database       *string
	Schema         *string
}

// Defaults returns the cascading defaults carried by the resolved config.
func (c *ResolvedConfig) Defaults() ProjectDefaults {
	return ProjectDefaults{
		DataSourceName: nonEmpty(c.DataSourceName),
		Database:       c.Database,
		Schema:         nonEmpty(c.Schema),
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Deref returns the value behind p, or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
