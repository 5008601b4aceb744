// Package state keeps a local history of deployments in SQLite.
//
// Every deployed model is stored together with the YAML snapshot that was
// sent, so a history entry is self-describing even after the source file
// changes.
package state

import (
	"context"
	"time"
)

// ModelStatus is the outcome recorded for one model.
type ModelStatus string

// Model outcomes.
const (
	ModelStatusSuccess  ModelStatus = "success"
	ModelStatusUpdated  ModelStatus = "updated"
	ModelStatusNoChange ModelStatus = "no_change"
	ModelStatusFailed   ModelStatus = "failed"
)

// Deployment is one recorded deployment of one project.
type Deployment struct {
	ID            string    `json:"id"`
	Project       string    `json:"project"`
	APIURL        string    `json:"apiUrl"`
	DryRun        bool      `json:"dryRun"`
	SuccessCount  int       `json:"successCount"`
	UpdatedCount  int       `json:"updatedCount"`
	NoChangeCount int       `json:"noChangeCount"`
	FailureCount  int       `json:"failureCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DeployedModelRecord is one model inside a recorded deployment.
type DeployedModelRecord struct {
	DeploymentID string
	ModelName    string
	File         string
	DataSource   string
	Status       ModelStatus
	YmlFile      string
	Error        string
}

// Store persists deployment history.
type Store interface {
	RecordDeployment(ctx context.Context, d *Deployment, models []DeployedModelRecord) error
	ListDeployments(ctx context.Context, limit int) ([]Deployment, error)
	GetDeployedModels(ctx context.Context, deploymentID string) ([]DeployedModelRecord, error)
	Close() error
}
