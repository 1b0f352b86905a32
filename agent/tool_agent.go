package agent

import (
	"context"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/flow"
	"github.com/hupe1980/tutormesh/model"
	"github.com/hupe1980/tutormesh/tool"
)

// ToolAgent answers questions with a reasoning model that may call tools.
type ToolAgent struct {
	loop *flow.ToolLoop
}

// NewToolAgent creates a ToolAgent. The loop is seeded with
// DefaultToolInstruction unless an option overrides it.
func NewToolAgent(m model.Model, tools []tool.Tool, optFns ...func(o *flow.ToolLoopOptions)) *ToolAgent {
	fns := append([]func(o *flow.ToolLoopOptions){
		func(o *flow.ToolLoopOptions) { o.Instruction = DefaultToolInstruction },
	}, optFns...)

	return &ToolAgent{loop: flow.NewToolLoop(m, tools, fns...)}
}

// Run executes the tool loop and returns its raw result.
func (a *ToolAgent) Run(ctx context.Context, question string) (*flow.Result, error) {
	requestID := core.RequestIDFrom(ctx)
	if requestID == "" {
		requestID = core.NewID()
	}
	return a.loop.Run(ctx, requestID, question)
}

// Answer implements Responder. Model and tool failures are returned.
func (a *ToolAgent) Answer(ctx context.Context, question string) (string, error) {
	res, err := a.Run(ctx, question)
	if err != nil {
		return "", err
	}
	return RenderAnswer(res.Final), nil
}
