// Package apperr defines the error taxonomy of the deployment pipeline and
// the process exit code each error maps to.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Process exit codes (sysexits.h values where one fits).
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitDataErr       = 65 // EX_DATAERR
	ExitTempFail      = 75 // EX_TEMPFAIL
	ExitConfiguration = 78 // EX_CONFIG
)

// ConfigurationError reports a missing or invalid buster.yml or project path.
type ConfigurationError struct {
	Message string
	Path    string
	Hint    string
	Err     error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, "\nHint: %s", e.Hint)
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ExitCode implements Coder.
func (e *ConfigurationError) ExitCode() int { return ExitConfiguration }

// ModelValidationError is a single business-rule violation tied to a model field.
type ModelValidationError struct {
	Model   string
	Field   string
	Message string
}

func (e *ModelValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("model %q: %s: %s", e.Model, e.Field, e.Message)
	}
	return fmt.Sprintf("model %q: %s", e.Model, e.Message)
}

// ExitCode implements Coder.
func (e *ModelValidationError) ExitCode() int { return ExitDataErr }

// Issue is one schema violation at a dotted path, e.g. "dimensions.0.name".
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ModelParsingError reports schema-level problems in one model file.
// It carries every issue found, not just the first.
type ModelParsingError struct {
	File      string
	ModelName string
	Message   string
	Issues    []Issue
}

func (e *ModelParsingError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		fmt.Fprintf(&b, "%d schema issue(s)", len(e.Issues))
	}
	for _, issue := range e.Issues {
		b.WriteString("\n  - ")
		b.WriteString(issue.String())
	}
	return b.String()
}

// Messages flattens the error into one line per issue.
func (e *ModelParsingError) Messages() []string {
	if len(e.Issues) == 0 {
		return []string{e.Message}
	}
	out := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		out = append(out, issue.String())
	}
	return out
}

// DeploymentError reports models the remote service rejected.
type DeploymentError struct {
	Models []string
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("deployment failed for %d model(s): %s\nHint: run with --verbose to see every failure",
		len(e.Models), strings.Join(e.Models, ", "))
}

// ExitCode implements Coder.
func (e *DeploymentError) ExitCode() int { return ExitTempFail }

// DeploymentValidationError is the aggregate pre-flight failure: every parse or
// validation failure and every TODO-marked file found before any network call.
type DeploymentValidationError struct {
	Failures []string
	Todos    []string
	Code     int
}

func (e *DeploymentValidationError) Error() string {
	msg := fmt.Sprintf("Cannot deploy: %d error(s) / TODO marker(s)", len(e.Failures)+len(e.Todos))
	if len(e.Todos) > 0 {
		msg += "\nHint: replace {{TODO}} markers with real values before deploying"
	}
	return msg
}

// ExitCode implements Coder.
func (e *DeploymentValidationError) ExitCode() int {
	if e.Code != 0 {
		return e.Code
	}
	return ExitFailure
}

// Coder is implemented by errors that select their own exit code.
type Coder interface {
	ExitCode() int
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var c Coder
	if errors.As(err, &c) {
		return c.ExitCode()
	}
	return ExitFailure
}
