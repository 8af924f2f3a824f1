// Package tool implements the tool catalog agents draw their capabilities
// from: the Tool contract, the immutable Registry built once per process or
// session, the per-agent CapabilitySet slices of it, and adapters turning Go
// functions, external providers or whole agents into tools.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentgroup/internal/util"
)

// Tool defines a named, externally implemented action exposed to agents.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define a JSON schema for parameters
//   - Respect ctx cancellation
//   - Be safe for concurrent use (a Registry is shared across sessions)
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case recommended).
	Name() string

	// Description returns a human-readable description shown to models.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Kind reports which implementation variant backs the tool.
	Kind() Kind

	// Call executes the tool with decoded arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes carried by ToolError and recorded on failed tool results.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeExecution           = "EXECUTION_ERROR"
	CodeTimeout             = "TIMEOUT"
	CodePanic               = "PANIC"
	CodeAborted             = "ABORTED"
	CodeCapabilityViolation = "CAPABILITY_VIOLATION"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// Definition is the provider-neutral declaration of a tool handed to model
// backends.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// DefinitionOf describes t for a model backend.
func DefinitionOf(t Tool) Definition {
	return Definition{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()}
}
