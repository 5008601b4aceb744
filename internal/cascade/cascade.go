// Package cascade merges project-level defaults into models.
package cascade

import "github.com/leapstack-labs/buster/pkg/core"

// Resolve returns a copy of model whose data source, database and schema fall
// back to the project defaults when the model leaves them unset.
// Values the model sets always win. Unset project values stay nil.
func Resolve(model core.Model, defaults core.ProjectDefaults) core.Model {
	out := model
	out.DataSourceName = coalesce(model.DataSourceName, defaults.DataSourceName)
	out.Database = coalesce(model.Database, defaults.Database)
	out.Schema = coalesce(model.Schema, defaults.Schema)
	return out
}

// ResolveAll applies Resolve to every model.
func ResolveAll(models []core.Model, defaults core.ProjectDefaults) []core.Model {
	out := make([]core.Model, len(models))
	for i, m := range models {
		out[i] = Resolve(m, defaults)
	}
	return out
}

// coalesce returns a fresh pointer to the first non-nil value.
func coalesce(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			s := *v
			return &s
		}
	}
	return nil
}
