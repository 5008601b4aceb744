// Package report merges deployment results and renders them for people.
package report

import "github.com/leapstack-labs/buster/pkg/core"

// Merge concatenates every list of the given results in input order into a
// new result. Docs are merged only when at least one input carries them.
func Merge(results []*core.DeploymentResult) *core.DeploymentResult {
	out := core.NewDeploymentResult()
	for _, r := range results {
		if r == nil {
			continue
		}
		out.Success = append(out.Success, r.Success...)
		out.Updated = append(out.Updated, r.Updated...)
		out.NoChange = append(out.NoChange, r.NoChange...)
		out.Failures = append(out.Failures, r.Failures...)
		out.Excluded = append(out.Excluded, r.Excluded...)
		out.Todos = append(out.Todos, r.Todos...)

		if r.Docs != nil {
			if out.Docs == nil {
				out.Docs = &core.DocsResult{
					Created: []core.DeployedDoc{},
					Updated: []core.DeployedDoc{},
					Failed:  []core.FailedDoc{},
				}
			}
			out.Docs.Created = append(out.Docs.Created, r.Docs.Created...)
			out.Docs.Updated = append(out.Docs.Updated, r.Docs.Updated...)
			out.Docs.Failed = append(out.Docs.Failed, r.Docs.Failed...)
		}
	}
	return out
}
