// Package core defines the shared language of the buster deployment pipeline.
//
// This package contains:
//   - Project configuration entities (Project, ProjectConfig, ResolvedConfig)
//   - Semantic model entities (Model, Dimension, Measure, Metric, Filter, Relationship)
//   - Wire types sent to the analytics service (DeployModel, DeployRequest, DeployResponse)
//   - Run results consumed by the reporter (DeploymentResult)
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
