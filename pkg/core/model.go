package core

// Model is one semantic model, one-to-one with a source YAML file.
//
// DataSourceName, Database and Schema are optional at the file level and are
// resolved once against project defaults by the cascade package. A nil or
// blank SQLDefinition means the model selects its whole table.
type Model struct {
	Name           string         `yaml:"name" json:"name"`
	Description    string         `yaml:"description,omitempty" json:"description,omitempty"`
	DataSourceName *string        `yaml:"data_source_name,omitempty" json:"data_source_name,omitempty"`
	Database       *string        `yaml:"database,omitempty" json:"database,omitempty"`
	Schema         *string        `yaml:"schema,omitempty" json:"schema,omitempty"`
	SQLDefinition  *string        `yaml:"sql_definition,omitempty" json:"sql_definition,omitempty"`
	Dimensions     []Dimension    `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
	Measures       []Measure      `yaml:"measures,omitempty" json:"measures,omitempty"`
	Metrics        []Metric       `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Filters        []Filter       `yaml:"filters,omitempty" json:"filters,omitempty"`
	Relationships  []Relationship `yaml:"relationships,omitempty" json:"relationships,omitempty"`
}

// Dimension is a groupable attribute of a model.
type Dimension struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Type        string   `yaml:"type,omitempty" json:"type,omitempty"`
	Searchable  bool     `yaml:"searchable,omitempty" json:"searchable,omitempty"`
	Options     []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// Measure is an aggregatable numeric attribute of a model.
type Measure struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
}

// Argument is a named parameter of a metric or filter expression.
type Argument struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Metric is a named expression computed over the model.
type Metric struct {
	Name        string     `yaml:"name" json:"name"`
	Expr        string     `yaml:"expr" json:"expr"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Args        []Argument `yaml:"args,omitempty" json:"args,omitempty"`
}

// Filter is a named boolean expression over the model.
type Filter struct {
	Name        string     `yaml:"name" json:"name"`
	Expr        string     `yaml:"expr" json:"expr"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Args        []Argument `yaml:"args,omitempty" json:"args,omitempty"`
}

// Relationship joins this model to another one.
type Relationship struct {
	Name        string `yaml:"name" json:"name"`
	SourceCol   string `yaml:"source_col" json:"source_col"`
	RefCol      string `yaml:"ref_col" json:"ref_col"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Cardinality string `yaml:"cardinality,omitempty" json:"cardinality,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}
