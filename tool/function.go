package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/internal/util"
)

// FunctionTool exposes a plain Go function as a Tool.
//
// Arguments are validated against the declared schema before the function
// runs. Failures are normalized to *ToolError:
//
//	validation failure  -> Code VALIDATION_ERROR
//	other error         -> Code EXECUTION_ERROR
//	*ToolError          -> forwarded unchanged
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(toolCtx *core.ToolContext, args map[string]any) (core.Payload, error)
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
// Example:
//
//	echo := NewFunctionTool(
//	  "echo",
//	  "Repeat the query",
//	  map[string]any{
//	    "type":       "object",
//	    "properties": map[string]any{"query": map[string]any{"type": "string"}},
//	    "required":   []string{"query"},
//	  },
//	  func(tc *core.ToolContext, args map[string]any) (core.Payload, error) {
//	    return core.PlainText(args["query"].(string)), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (core.Payload, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using
// util.CreateSchema.
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (core.Payload, error),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args then invokes the wrapped function.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (core.Payload, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "fc_id", toolCtx.FunctionCallID())

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
			cause:   err,
		}
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}

		return nil, wrapError(t.name, CodeExecution, err)
	}

	if result == nil {
		result = core.PlainText("")
	}

	logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
