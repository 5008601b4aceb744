package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/buster/pkg/core"
)

// ValidationResult holds every business-rule violation found in a model.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate checks business rules that the schema cannot express.
// It never stops at the first violation.
func Validate(model core.Model) ValidationResult {
	var errs []string

	if strings.TrimSpace(model.Name) == "" {
		errs = append(errs, "Model name is required")
	}

	if len(model.Dimensions) == 0 && len(model.Measures) == 0 {
		errs = append(errs, "Model must have at least one dimension or measure")
	}

	errs = append(errs, duplicates("dimension", names(model.Dimensions, func(d core.Dimension) string { return d.Name }))...)
	errs = append(errs, duplicates("measure", names(model.Measures, func(m core.Measure) string { return m.Name }))...)
	errs = append(errs, duplicates("metric", names(model.Metrics, func(m core.Metric) string { return m.Name }))...)
	errs = append(errs, duplicates("filter", names(model.Filters, func(f core.Filter) string { return f.Name }))...)

	for _, m := range model.Metrics {
		if strings.TrimSpace(m.Expr) == "" {
			errs = append(errs, fmt.Sprintf("Metric %s must have an expression", m.Name))
		}
	}
	for _, f := range model.Filters {
		if strings.TrimSpace(f.Expr) == "" {
			errs = append(errs, fmt.Sprintf("Filter %s must have an expression", f.Name))
		}
	}

	for _, r := range model.Relationships {
		if strings.TrimSpace(r.SourceCol) == "" || strings.TrimSpace(r.RefCol) == "" {
			errs = append(errs, fmt.Sprintf("Relationship %s must have source_col and ref_col", r.Name))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = name(item)
	}
	return out
}

// duplicates reports each repeated name once, in first-seen order.
func duplicates(kind string, list []string) []string {
	counts := make(map[string]int, len(list))
	var errs []string
	for _, n := range list {
		counts[n]++
		if counts[n] == 2 {
			errs = append(errs, fmt.Sprintf("Duplicate %s name: %s", kind, n))
		}
	}
	return errs
}
