package parser

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/leapstack-labs/buster/internal/apperr"
)

// modelSchema checks the top-level model object.
// The models key belongs to a retired multi-model format and is rejected.
var modelSchema = []*validation.KeyRules{
	validation.Key("name", validation.By(isString), validation.Required),
	validation.Key("description", validation.By(isString)).Optional(),
	validation.Key("data_source_name", validation.By(isString)).Optional(),
	validation.Key("database", validation.By(isString)).Optional(),
	validation.Key("schema", validation.By(isString)).Optional(),
	validation.Key("sql_definition", validation.By(isString)).Optional(),
	validation.Key("dimensions", list(dimensionSchema...)).Optional(),
	validation.Key("measures", list(measureSchema...)).Optional(),
	validation.Key("metrics", list(expressionSchema...)).Optional(),
	validation.Key("filters", list(expressionSchema...)).Optional(),
	validation.Key("relationships", list(relationshipSchema...)).Optional(),
	validation.Key("models", validation.By(rejectModelsKey)).Optional(),
}

var dimensionSchema = []*validation.KeyRules{
	validation.Key("name", validation.By(isString), validation.Required),
	validation.Key("description", validation.By(isString)).Optional(),
	validation.Key("type", validation.By(isString)).Optional(),
	validation.Key("searchable", validation.By(isBool)).Optional(),
	validation.Key("options", stringList()).Optional(),
}

var measureSchema = []*validation.KeyRules{
	validation.Key("name", validation.By(isString), validation.Required),
	validation.Key("description", validation.By(isString)).Optional(),
	validation.Key("type", validation.By(isString)).Optional(),
}

var argumentSchema = []*validation.KeyRules{
	validation.Key("name", validation.By(isString), validation.Required),
	validation.Key("type", validation.By(isString)).Optional(),
	validation.Key("description", validation.By(isString)).Optional(),
}

// expressionSchema covers metrics and filters, which share a shape.
var expressionSchema = []*validation.KeyRules{
	validation.Key("name", validation.By(isString), validation.Required),
	validation.Key("expr", validation.By(isString)),
	validation.Key("description", validation.By(isString)).Optional(),
	validation.Key("args", list(argumentSchema...)).Optional(),
}

var relationshipSchema = []*validation.KeyRules{
	validation.Key("name", validation.By(isString), validation.Required),
	validation.Key("source_col", validation.By(isString)),
	validation.Key("ref_col", validation.By(isString)),
	validation.Key("type", validation.By(isString)).Optional(),
	validation.Key("cardinality", validation.By(isString)).Optional(),
	validation.Key("description", validation.By(isString)).Optional(),
}

// checkSchema validates a decoded model object and returns every issue,
// sorted by path.
func checkSchema(obj map[string]any) []apperr.Issue {
	err := validation.Map(modelSchema...).AllowExtraKeys().Validate(obj)
	if err == nil {
		return nil
	}
	var issues []apperr.Issue
	flatten("", err, &issues)
	slices.SortFunc(issues, func(a, b apperr.Issue) int {
		return strings.Compare(a.Path, b.Path)
	})
	return issues
}

func flatten(prefix string, err error, out *[]apperr.Issue) {
	var errs validation.Errors
	if errors.As(err, &errs) {
		for key, child := range errs {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			flatten(path, child, out)
		}
		return
	}
	*out = append(*out, apperr.Issue{Path: prefix, Message: err.Error()})
}

// list validates an optional array whose elements are objects.
func list(keys ...*validation.KeyRules) validation.Rule {
	return validation.By(func(value any) error {
		if value == nil {
			return nil
		}
		items, ok := value.([]any)
		if !ok {
			return typeError("array", value)
		}
		return validation.Each(validation.By(object(keys...))).Validate(items)
	})
}

// object validates a map against keys, allowing unknown keys.
func object(keys ...*validation.KeyRules) validation.RuleFunc {
	return func(value any) error {
		m, ok := value.(map[string]any)
		if !ok {
			return typeError("object", value)
		}
		return validation.Map(keys...).AllowExtraKeys().Validate(m)
	}
}

// stringList validates an optional array of strings.
func stringList() validation.Rule {
	return validation.By(func(value any) error {
		if value == nil {
			return nil
		}
		items, ok := value.([]any)
		if !ok {
			return typeError("array", value)
		}
		return validation.Each(validation.By(isString)).Validate(items)
	})
}

func isString(value any) error {
	if _, ok := value.(string); !ok && value != nil {
		return typeError("string", value)
	}
	return nil
}

func isBool(value any) error {
	if _, ok := value.(bool); !ok && value != nil {
		return typeError("boolean", value)
	}
	return nil
}

func rejectModelsKey(any) error {
	return validation.NewError("validation_models_key",
		"multi-model files are not supported; put one model per file at the top level")
}

func typeError(expected string, value any) error {
	return validation.NewError("validation_type",
		fmt.Sprintf("expected %s, received %s", expected, typeName(value)))
}

// typeName names a decoded YAML value the way users write it.
func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}
