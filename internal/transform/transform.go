// Package transform converts resolved models into the deployment wire format.
package transform

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/buster/internal/apperr"
	"github.com/leapstack-labs/buster/pkg/core"
	"gopkg.in/yaml.v3"
)

// ToDeployModel converts a cascaded model. The data source and schema must be
// resolved by now; database is optional.
func ToDeployModel(m core.Model) (*core.DeployModel, error) {
	if core.Deref(m.DataSourceName) == "" {
		return nil, &apperr.ModelValidationError{
			Model:   m.Name,
			Field:   "data_source_name",
			Message: "data_source_name is required for deployment; set it on the model or the project",
		}
	}
	if core.Deref(m.Schema) == "" {
		return nil, &apperr.ModelValidationError{
			Model:   m.Name,
			Field:   "schema",
			Message: "schema is required for deployment; set it on the model or the project",
		}
	}

	snapshot, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize model %q: %w", m.Name, err)
	}

	var database *string
	if db := core.Deref(m.Database); db != "" {
		database = &db
	}

	return &core.DeployModel{
		Name:           m.Name,
		DataSourceName: *m.DataSourceName,
		Database:       database,
		Schema:         *m.Schema,
		Description:    m.Description,
		SQLDefinition:  sqlDefinition(m),
		Columns:        Columns(m),
		Metrics:        m.Metrics,
		Filters:        m.Filters,
		Relationships:  m.Relationships,
		YmlFile:        string(snapshot),
	}, nil
}

// Columns flattens dimensions and measures into columns, dimensions first.
// Only dimensions can be searchable.
func Columns(m core.Model) []core.Column {
	cols := make([]core.Column, 0, len(m.Dimensions)+len(m.Measures))
	for _, d := range m.Dimensions {
		cols = append(cols, core.Column{
			Name:         d.Name,
			Description:  d.Description,
			SemanticType: core.SemanticTypeDimension,
			Type:         optional(d.Type),
			Searchable:   d.Searchable,
		})
	}
	for _, ms := range m.Measures {
		cols = append(cols, core.Column{
			Name:         ms.Name,
			Description:  ms.Description,
			SemanticType: core.SemanticTypeMeasure,
			Type:         optional(ms.Type),
		})
	}
	return cols
}

// sqlDefinition returns the model's own SQL, or DefaultSQL when it has none.
func sqlDefinition(m core.Model) string {
	if sql := strings.TrimSpace(core.Deref(m.SQLDefinition)); sql != "" {
		return sql
	}
	return DefaultSQL(m)
}

// DefaultSQL projects every column of the model's table, qualified by the
// database and schema when they are set.
func DefaultSQL(m core.Model) string {
	parts := make([]string, 0, 3)
	if db := core.Deref(m.Database); db != "" {
		parts = append(parts, db)
	}
	if schema := core.Deref(m.Schema); schema != "" {
		parts = append(parts, schema)
	}
	parts = append(parts, m.Name)
	return "SELECT * FROM " + strings.Join(parts, ".")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
