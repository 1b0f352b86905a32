package tool

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/hupe1980/tutormesh/core"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func argValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// TypedTool binds decoded arguments to a struct T validated with
// go-playground/validator tags. The schema is derived from T.
type TypedTool[T any] struct {
	*FunctionTool
}

// NewTypedTool creates a TypedTool.
//
//	type searchArgs struct {
//	  Query string `json:"query" validate:"required" description:"Search query"`
//	}
//	t := NewTypedTool("web_search", "Search the web", func(tc *core.ToolContext, a searchArgs) (core.Payload, error) { ... })
func NewTypedTool[T any](name, description string, fn func(toolCtx *core.ToolContext, args T) (core.Payload, error)) *TypedTool[T] {
	var zero T

	ft := NewFunctionToolFromStruct(name, description, zero, func(toolCtx *core.ToolContext, raw map[string]any) (core.Payload, error) {
		args, err := bindArgs[T](raw)
		if err != nil {
			return nil, &ToolError{Tool: name, Message: err.Error(), Code: CodeValidation, cause: err}
		}
		return fn(toolCtx, args)
	})

	return &TypedTool[T]{FunctionTool: ft}
}

func bindArgs[T any](raw map[string]any) (T, error) {
	var args T

	b, err := json.Marshal(raw)
	if err != nil {
		return args, fmt.Errorf("encode arguments: %w", err)
	}

	if err := json.Unmarshal(b, &args); err != nil {
		return args, fmt.Errorf("decode arguments: %w", err)
	}

	if err := argValidator().Struct(args); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}

	return args, nil
}
