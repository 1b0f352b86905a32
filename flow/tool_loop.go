package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/logging"
	"github.com/hupe1980/tutormesh/model"
	"github.com/hupe1980/tutormesh/tool"
)

// ToolLoopOptions configure a ToolLoop.
type ToolLoopOptions struct {
	// Instruction seeds the transcript as system message.
	Instruction string
	// MaxRoundTrips bounds reasoning -> execution cycles. <=0 uses core.DefaultMaxRoundTrips.
	MaxRoundTrips int
	Executor      FunctionExecutor
	Logger        logging.Logger
	// OnTransition observes every phase change.
	OnTransition func(from, to Phase)
}

// Result is the outcome of a ToolLoop run.
type Result struct {
	// Final is the first assistant message without tool calls, nil when the
	// round-trip bound was hit first.
	Final      *core.Content
	Transcript []core.Content
	RoundTrips int
	Exhausted  bool
}

// ToolLoop is the REASONING / EXECUTING_TOOLS / DONE state machine.
type ToolLoop struct {
	model model.Model
	tools map[string]tool.Tool
	defs  []model.ToolDefinition
	opts  ToolLoopOptions
}

// NewToolLoop creates a ToolLoop over m with the given tools.
func NewToolLoop(m model.Model, tools []tool.Tool, optFns ...func(o *ToolLoopOptions)) *ToolLoop {
	opts := ToolLoopOptions{
		MaxRoundTrips: core.DefaultMaxRoundTrips,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Executor == nil {
		opts.Executor = NewParallelFunctionExecutor(FunctionExecutorConfig{})
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	registry := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		registry[t.Name()] = t
	}

	return &ToolLoop{
		model: m,
		tools: registry,
		defs:  tool.Definitions(tools...),
		opts:  opts,
	}
}

// Run answers question. Model and tool failures are returned unmasked.
func (l *ToolLoop) Run(ctx context.Context, requestID, question string) (*Result, error) {
	transcript := NewTranscript(l.opts.Instruction, question)
	limiter := core.NewRoundTripLimiter(l.opts.MaxRoundTrips)
	logger := l.opts.Logger

	var (
		phase     = PhaseReasoning
		last      core.Content
		final     *core.Content
		exhausted bool
	)

	start := time.Now()

	for phase != PhaseDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := phase

		switch phase {
		case PhaseReasoning:
			resp, err := model.Collect(ctx, l.model, model.Request{
				Contents: transcript.Contents(),
				Tools:    l.defs,
			})
			if err != nil {
				logging.LogLLMCall(logger, l.model.Info().Name, 0, time.Since(start), err)
				return nil, fmt.Errorf("reasoning model call failed: %w", err)
			}

			last = assistantMessage(resp.Content)
			transcript.Append(last)

			if !last.HasFunctionCalls() {
				msg := last
				final = &msg
				next = PhaseDone
				break
			}

			if err := limiter.Increment(); err != nil {
				logger.Warn("flow.tool_loop.exhausted", "request_id", requestID, "max_round_trips", limiter.Max())
				exhausted = true
				next = PhaseDone
				break
			}

			next = PhaseExecutingTools

		case PhaseExecutingTools:
			responses, err := l.opts.Executor.Execute(ctx, Batch{
				RequestID: requestID,
				Tools:     l.tools,
				Calls:     last.FunctionCalls(),
				Logger:    logger,
			})
			if err != nil {
				return nil, err
			}

			for _, r := range responses {
				transcript.Append(core.Content{
					Role:  core.RoleTool,
					Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: r}},
				})
			}

			next = PhaseReasoning
		}

		if l.opts.OnTransition != nil {
			l.opts.OnTransition(phase, next)
		}
		logger.Debug("flow.tool_loop.transition", "request_id", requestID, "from", phase.String(), "to", next.String())

		phase = next
	}

	logger.Info(
		"flow.tool_loop.complete",
		"request_id", requestID,
		"round_trips", limiter.Count(),
		"exhausted", exhausted,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	rt := limiter.Count()
	if rt > limiter.Max() {
		rt = limiter.Max()
	}

	return &Result{
		Final:      final,
		Transcript: transcript.Contents(),
		RoundTrips: rt,
		Exhausted:  exhausted,
	}, nil
}

// assistantMessage normalizes a model reply: assistant role and a non-empty
// id on every function call so tool results can be correlated.
func assistantMessage(c core.Content) core.Content {
	out := core.Content{Role: core.RoleAssistant, Parts: make([]core.Part, 0, len(c.Parts))}
	for _, p := range c.Parts {
		if fc, ok := p.(core.FunctionCallPart); ok && fc.FunctionCall.ID == "" {
			fc.FunctionCall.ID = core.NewID()
			p = fc
		}
		out.Parts = append(out.Parts, p)
	}
	return out
}
