// Package tool implements the callable capabilities offered to the
// tool-invoking responder: the Tool contract, schema-validated adapters for Go
// functions, typed tools validated with go-playground/validator and a
// result-caching decorator.
package tool

import (
	"fmt"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/internal/util"
	"github.com/hupe1980/tutormesh/model"
)

// Error codes carried by ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
)

// Tool is a named capability a model can request.
//
// Implementations must be safe for concurrent use: the function executor may
// run several calls of one assistant message in parallel.
type Tool interface {
	// Name returns the unique identifier the model uses to request the tool.
	Name() string

	// Description is shown to the model to explain when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with decoded JSON arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (core.Payload, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *ToolError) Unwrap() error { return e.cause }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

func wrapError(tool, code string, err error) *ToolError {
	return &ToolError{Tool: tool, Message: err.Error(), Code: code, cause: err}
}

// Definitions converts tools into model tool definitions, preserving order.
func Definitions(tools ...Tool) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}
