//go:build governance

package core_test

import (
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// =============================================================================
// COHESION TEST - Core types must be shared by multiple packages
// =============================================================================

// TestGovernance_CoreCohesion verifies that types in pkg/core are genuinely
// shared across multiple packages. Single-use types should be moved to their
// sole consumer to maintain cohesion.
func TestGovernance_CoreCohesion(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedDeps,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	coreDefs := make(map[types.Object]string)
	var corePkg *packages.Package

	for _, p := range pkgs {
		if p.PkgPath == modulePath+"/pkg/core" {
			corePkg = p
			scope := p.Types.Scope()
			for _, name := range scope.Names() {
				obj := scope.Lookup(name)
				if obj.Exported() {
					coreDefs[obj] = name
				}
			}
			break
		}
	}

	if corePkg == nil {
		t.Fatal("Could not find pkg/core")
	}

	// CoreTypeName -> set of importing packages
	usageMap := make(map[string]map[string]bool)
	for _, name := range coreDefs {
		usageMap[name] = make(map[string]bool)
	}

	base := modulePath + "/"

	for _, p := range pkgs {
		if p.PkgPath == corePkg.PkgPath || strings.HasSuffix(p.PkgPath, "_test") {
			continue
		}
		if p.TypesInfo == nil {
			continue
		}

		for _, info := range p.TypesInfo.Uses {
			if name, exists := coreDefs[info]; exists {
				importer := strings.TrimPrefix(p.PkgPath, base)
				usageMap[name][importer] = true
			}
		}
	}

	for typeName, importers := range usageMap {
		if isCohesionAllowlisted(typeName) {
			continue
		}

		if len(importers) == 0 {
			t.Logf("WARNING: Unused Core Type: %s (consider deleting)", typeName)
		} else if len(importers) == 1 {
			var user string
			for k := range importers {
				user = k
			}
			t.Errorf("COHESION VIOLATION: 'core.%s' is used ONLY by '%s'.\n"+
				"   Fix: Move type from pkg/core to %s.",
				typeName, user, user)
		}
	}
}

// isCohesionAllowlisted returns true for names allowed to have a single user.
// Parts of the model file schema and of the wire format stay next to the
// types that embed them.
func isCohesionAllowlisted(name string) bool {
	allowlist := map[string]bool{
		// model file schema
		"Dimension": true, "Measure": true, "Metric": true, "Filter": true,
		"Relationship": true, "Argument": true, "Project": true,
		"ProjectDefaults": true, "DefaultInclude": true, "DefaultExclude": true,
		// wire format
		"Column": true, "DeploySummary": true, "DeploySuccess": true,
		"DeployFailure": true, "SemanticTypeDimension": true, "SemanticTypeMeasure": true,
		// run results
		"DeployedModel": true, "DeployedDoc": true, "FailedDoc": true, "DocsResult": true,
		// helpers
		"StringPtr": true, "Deref": true,
	}
	return allowlist[name]
}

// =============================================================================
// LAYERING TEST - Only the CLI tree depends on CLI configuration
// =============================================================================

// TestGovernance_CLILayering ensures pipeline packages never reach into the
// command layer. internal/cli/output is shared styling and may be imported.
func TestGovernance_CLILayering(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	cliRoot := modulePath + "/internal/cli"
	for _, p := range pkgs {
		if p.PkgPath == cliRoot || strings.HasPrefix(p.PkgPath, cliRoot+"/") ||
			strings.HasPrefix(p.PkgPath, modulePath+"/cmd/") {
			continue
		}
		for imp := range p.Imports {
			if imp == cliRoot+"/output" {
				continue
			}
			if imp == cliRoot || strings.HasPrefix(imp, cliRoot+"/") {
				t.Errorf("LAYERING VIOLATION: '%s' imports '%s'.\n"+
					"   Fix: pass the values in through options instead.",
					strings.TrimPrefix(p.PkgPath, modulePath+"/"), strings.TrimPrefix(imp, modulePath+"/"))
			}
		}
	}
}
