package core

// Semantic types attached to synthesized columns.
const (
	SemanticTypeDimension = "dimension"
	SemanticTypeMeasure   = "measure"
)

// Column is a dimension or measure flattened into the wire format.
type Column struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	SemanticType string  `json:"semantic_type"`
	Expr         *string `json:"expr,omitempty"`
	Type         *string `json:"type,omitempty"`
	Searchable   bool    `json:"searchable"`
}

// DeployModel is a validated, cascaded Model ready to be sent to the service.
type DeployModel struct {
	Name           string         `json:"name"`
	DataSourceName string         `json:"data_source_name"`
	Database       *string        `json:"database,omitempty"`
	Schema         string         `json:"schema"`
	Description    string         `json:"description"`
	SQLDefinition  string         `json:"sql_definition"`
	Columns        []Column       `json:"columns"`
	Metrics        []Metric       `json:"metrics,omitempty"`
	Filters        []Filter       `json:"filters,omitempty"`
	Relationships  []Relationship `json:"relationships,omitempty"`
	YmlFile        string         `json:"yml_file"`
}

// DeployRequest is one project's batch of models.
type DeployRequest struct {
	Models             []DeployModel `json:"models"`
	DeleteAbsentModels bool          `json:"deleteAbsentModels"`
}

// DeploySuccess reports a model the service accepted.
type DeploySuccess struct {
	Name       string `json:"name"`
	DataSource string `json:"dataSource"`
	Schema     string `json:"schema,omitempty"`
	Database   string `json:"database,omitempty"`
}

// DeployFailure reports a model the service rejected.
type DeployFailure struct {
	Name   string   `json:"name"`
	Errors []string `json:"errors"`
}

// DeploySummary holds the counters of a DeployResponse.
type DeploySummary struct {
	TotalModels   int `json:"totalModels"`
	SuccessCount  int `json:"successCount"`
	UpdateCount   int `json:"updateCount"`
	NoChangeCount int `json:"noChangeCount"`
	FailureCount  int `json:"failureCount"`
}

// DeployResponse is the service's answer to a DeployRequest.
type DeployResponse struct {
	Success  []DeploySuccess `json:"success"`
	Updated  []DeploySuccess `json:"updated"`
	NoChange []DeploySuccess `json:"noChange"`
	Failures []DeployFailure `json:"failures"`
	Summary  DeploySummary   `json:"summary"`
	Docs     *DocsResult     `json:"docs,omitempty"`
}

// HasFailures reports whether any model failed.
func (r *DeployResponse) HasFailures() bool {
	return r != nil && len(r.Failures) > 0
}

// Summarize recomputes Summary from the response lists.
func (r *DeployResponse) Summarize() {
	r.Summary = DeploySummary{
		TotalModels:   len(r.Success) + len(r.Updated) + len(r.NoChange) + len(r.Failures),
		SuccessCount:  len(r.Success),
		UpdateCount:   len(r.Updated),
		NoChangeCount: len(r.NoChange),
		FailureCount:  len(r.Failures),
	}
}
