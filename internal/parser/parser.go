// Package parser reads semantic model files.
//
// Each file holds exactly one flat model object. Parsing runs a schema check
// over the raw YAML first and reports every violation it finds, so one bad
// field never hides another. Business rules are checked separately by
// Validate.
package parser

import (
	"bytes"
	"fmt"
	"os"

	"github.com/leapstack-labs/buster/internal/apperr"
	"github.com/leapstack-labs/buster/pkg/core"
	"gopkg.in/yaml.v3"
)

// ParseResult holds the models read from one file and the schema errors found.
// A file that fails the schema check yields no models.
type ParseResult struct {
	Models []core.Model
	Errors []*apperr.ModelParsingError
}

// OK reports whether the file parsed without schema errors.
func (r *ParseResult) OK() bool {
	return len(r.Errors) == 0
}

// Parse reads filePath and parses its content. Read failures are returned as
// errors; schema problems are returned in the result.
func Parse(filePath string) (*ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return ParseContent(filePath, content), nil
}

// ParseContent parses the YAML content of a model file.
func ParseContent(filePath string, content []byte) *ParseResult {
	result := &ParseResult{Models: []core.Model{}, Errors: []*apperr.ModelParsingError{}}

	fail := func(e *apperr.ModelParsingError) *ParseResult {
		e.File = filePath
		result.Errors = append(result.Errors, e)
		return result
	}

	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return fail(&apperr.ModelParsingError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		})
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return fail(&apperr.ModelParsingError{Message: "Invalid YAML structure"})
	}

	if issues := checkSchema(obj); len(issues) > 0 {
		return fail(&apperr.ModelParsingError{
			ModelName: modelName(obj),
			Issues:    issues,
		})
	}

	var model core.Model
	dec := yaml.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&model); err != nil {
		return fail(&apperr.ModelParsingError{
			ModelName: modelName(obj),
			Message:   fmt.Sprintf("failed to decode model: %v", err),
		})
	}

	result.Models = append(result.Models, model)
	return result
}

// modelName extracts the name from data that may not have passed the schema.
func modelName(obj map[string]any) string {
	if name, ok := obj["name"].(string); ok {
		return name
	}
	return ""
}
