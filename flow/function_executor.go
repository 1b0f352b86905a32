package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/logging"
	"github.com/hupe1980/tutormesh/tool"
)

// FunctionExecutor runs the function calls of one assistant message and
// returns exactly one response per call, in call order. The first failing call
// aborts the batch and its error is returned.
type FunctionExecutor interface {
	Execute(ctx context.Context, batch Batch) ([]core.FunctionResponse, error)
}

// Batch is a unit of work for a FunctionExecutor.
type Batch struct {
	RequestID string
	Tools     map[string]tool.Tool
	Calls     []core.FunctionCall
	Logger    logging.Logger
}

// FunctionExecutorConfig configures the default parallel executor.
type FunctionExecutorConfig struct {
	MaxParallel    int  // <1 => one goroutine per call
	LogStartEvents bool // log a start line per function
	// OnCall observes every finished call.
	OnCall func(tool string, dur time.Duration, err error)
}

type parallelFunctionExecutor struct {
	cfg FunctionExecutorConfig
}

// NewParallelFunctionExecutor constructs a new executor with the given config.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	return &parallelFunctionExecutor{cfg: cfg}
}

func (e *parallelFunctionExecutor) Execute(ctx context.Context, batch Batch) ([]core.FunctionResponse, error) {
	n := len(batch.Calls)
	if n == 0 {
		return nil, nil
	}

	logger := batch.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	results := make([]core.FunctionResponse, n)

	if n == 1 {
		resp, err := e.executeOne(ctx, batch, logger, batch.Calls[0])
		if err != nil {
			return nil, err
		}
		results[0] = resp
		return results, nil
	}

	maxPar := e.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPar)

	batchStart := time.Now()
	for i, fc := range batch.Calls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resp, err := e.executeOne(gctx, batch, logger, fc)
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug(
		"agent.functions.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results, nil
}

func (e *parallelFunctionExecutor) executeOne(
	ctx context.Context,
	batch Batch,
	logger logging.Logger,
	fc core.FunctionCall,
) (resp core.FunctionResponse, err error) {
	toolCtx := core.NewToolContext(ctx, batch.RequestID, fc.ID, fc.Name, logger)

	if e.cfg.LogStartEvents {
		logger.Info("agent.function.start", "function", fc.Name, "function_call_id", fc.ID)
	}

	start := time.Now()

	var result core.Payload
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
				logger.Error("agent.function.panic", "function", fc.Name, "recover", r)
			}
		}()
		result, err = executeTool(batch.Tools, toolCtx, fc.Name, fc.Arguments)
	}()

	dur := time.Since(start)
	if e.cfg.OnCall != nil {
		e.cfg.OnCall(fc.Name, dur, err)
	}

	logger.Info(
		"agent.function.executed",
		"function", fc.Name,
		"function_call_id", fc.ID,
		"duration_ms", dur.Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		return core.FunctionResponse{}, fmt.Errorf("function %s failed: %w", fc.Name, err)
	}

	return core.FunctionResponse{ID: fc.ID, Name: fc.Name, Response: result}, nil
}

// panicError converts a recovered panic value to an error.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// executeTool looks up the tool by name, decodes the arguments and calls it.
func executeTool(tools map[string]tool.Tool, toolCtx *core.ToolContext, toolName, args string) (core.Payload, error) {
	impl, ok := tools[toolName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, toolName)
	}

	argMap := map[string]any{}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argMap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal args: %w", err)
		}
	}

	result, err := impl.Call(toolCtx, argMap)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = core.PlainText("")
	}

	return result, nil
}
