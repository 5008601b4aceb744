package cascade

import (
	"testing"

	"github.com/leapstack-labs/buster/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ptr := core.StringPtr

	tests := []struct {
		name     string
		model    core.Model
		defaults core.ProjectDefaults
		wantDS   *string
		wantDB   *string
		wantSch  *string
	}{
		{
			name:     "inherits everything",
			model:    core.Model{Name: "orders"},
			defaults: core.ProjectDefaults{DataSourceName: ptr("postgres"), Database: ptr("analytics"), Schema: ptr("public")},
			wantDS:   ptr("postgres"),
			wantDB:   ptr("analytics"),
			wantSch:  ptr("public"),
		},
		{
			name:     "model values win",
			model:    core.Model{Name: "orders", DataSourceName: ptr("bigquery"), Schema: ptr("events")},
			defaults: core.ProjectDefaults{DataSourceName: ptr("postgres"), Database: ptr("analytics"), Schema: ptr("public")},
			wantDS:   ptr("bigquery"),
			wantDB:   ptr("analytics"),
			wantSch:  ptr("events"),
		},
		{
			name:     "absent project values stay nil",
			model:    core.Model{Name: "orders"},
			defaults: core.ProjectDefaults{DataSourceName: ptr("postgres")},
			wantDS:   ptr("postgres"),
		},
		{
			name:     "explicit empty model value is kept",
			model:    core.Model{Name: "orders", Database: ptr("")},
			defaults: core.ProjectDefaults{Database: ptr("analytics")},
			wantDB:   ptr(""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.model, tt.defaults)
			assert.Equal(t, tt.wantDS, got.DataSourceName)
			assert.Equal(t, tt.wantDB, got.Database)
			assert.Equal(t, tt.wantSch, got.Schema)
			assert.Equal(t, tt.model.Name, got.Name)
		})
	}
}

func TestResolve_IdentityWhenModelSetsAll(t *testing.T) {
	m := core.Model{
		Name:           "orders",
		DataSourceName: core.StringPtr("a"),
		Database:       core.StringPtr("b"),
		Schema:         core.StringPtr("c"),
	}
	got := Resolve(m, core.ProjectDefaults{
		DataSourceName: core.StringPtr("x"),
		Database:       core.StringPtr("y"),
		Schema:         core.StringPtr("z"),
	})
	assert.Equal(t, m, got)
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	m := core.Model{Name: "orders"}
	d := core.ProjectDefaults{Schema: core.StringPtr("public")}

	got := Resolve(m, d)
	assert.Nil(t, m.Schema)

	*got.Schema = "changed"
	assert.Equal(t, "public", *d.Schema)
}

func TestResolveAll(t *testing.T) {
	models := []core.Model{{Name: "a"}, {Name: "b", Schema: core.StringPtr("own")}}
	got := ResolveAll(models, core.ProjectDefaults{Schema: core.StringPtr("public")})
	require.Len(t, got, 2)
	assert.Equal(t, "public", *got[0].Schema)
	assert.Equal(t, "own", *got[1].Schema)
}
