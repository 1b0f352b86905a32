package core

import (
	"context"

	"github.com/hupe1980/tutormesh/logging"
)

// ToolContext provides a constrained surface for tool implementations invoked
// by the tool-invoking responder. It exposes the request context, the
// originating call identity and a logger; tools never see the transcript.
type ToolContext struct {
	ctx            context.Context
	requestID      string
	functionCallID string
	toolName       string

	*callLogger
}

// NewToolContext constructs a tool context for one function call.
func NewToolContext(ctx context.Context, requestID, functionCallID, toolName string, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ToolContext{
		ctx:            ctx,
		requestID:      requestID,
		functionCallID: functionCallID,
		toolName:       toolName,
		callLogger:     newCallLogger(logger, "request_id", requestID, "tool", toolName, "call_id", functionCallID),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// RequestID returns the id of the request that triggered the invocation.
func (tc *ToolContext) RequestID() string { return tc.requestID }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// ToolName returns the name the model used to request the tool.
func (tc *ToolContext) ToolName() string { return tc.toolName }

// Logger returns the underlying logger without the invocation attributes.
func (tc *ToolContext) Logger() logging.Logger { return tc.callLogger.logger }
