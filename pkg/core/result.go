package core

// DeploymentResult is the outcome of a deployment run, per project or merged.
// It is never mutated after creation; merging produces a new value.
type DeploymentResult struct {
	Success  []DeployedModel `json:"success"`
	Updated  []DeployedModel `json:"updated"`
	NoChange []DeployedModel `json:"noChange"`
	Failures []FailedModel   `json:"failures"`
	Excluded []ExcludedFile  `json:"excluded"`
	Todos    []TodoFile      `json:"todos"`
	Docs     *DocsResult     `json:"docs,omitempty"`
}

// DeployedModel is a model that reached the service.
type DeployedModel struct {
	File       string `json:"file"`
	ModelName  string `json:"modelName"`
	DataSource string `json:"dataSource"`
}

// FailedModel is a model that failed validation or deployment.
type FailedModel struct {
	File      string   `json:"file"`
	ModelName string   `json:"modelName"`
	Errors    []string `json:"errors"`
}

// ExcludedFile is a discovered file removed by an exclusion pattern.
type ExcludedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// TodoFile is a file still carrying a {{TODO}} placeholder.
type TodoFile struct {
	File string `json:"file"`
}

// DocsResult holds documentation deployment outcomes reported by the service.
type DocsResult struct {
	Created []DeployedDoc `json:"created"`
	Updated []DeployedDoc `json:"updated"`
	Failed  []FailedDoc   `json:"failed"`
}

// DeployedDoc is a documentation page accepted by the service.
type DeployedDoc struct {
	File string `json:"file"`
	Name string `json:"name"`
}

// FailedDoc is a documentation page the service rejected.
type FailedDoc struct {
	File  string `json:"file"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// NewDeploymentResult returns a result with every list initialized.
func NewDeploymentResult() *DeploymentResult {
	return &DeploymentResult{
		Success:  []DeployedModel{},
		Updated:  []DeployedModel{},
		NoChange: []DeployedModel{},
		Failures: []FailedModel{},
		Excluded: []ExcludedFile{},
		Todos:    []TodoFile{},
	}
}

// DeployedCount returns the number of models that reached the service.
func (r *DeploymentResult) DeployedCount() int {
	return len(r.Success) + len(r.Updated) + len(r.NoChange)
}

// HasFailures reports whether any model or doc failed or any TODO remains.
func (r *DeploymentResult) HasFailures() bool {
	if len(r.Failures) > 0 || len(r.Todos) > 0 {
		return true
	}
	return r.Docs != nil && len(r.Docs.Failed) > 0
}
