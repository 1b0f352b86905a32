package flow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/tool"
)

type teMockTool struct {
	name     string
	delay    time.Duration
	result   core.Payload
	err      error
	panicMsg any
	running  *int32
	peak     *int32
}

func (mt *teMockTool) Name() string               { return mt.name }
func (mt *teMockTool) Description() string        { return "mock tool" }
func (mt *teMockTool) Parameters() map[string]any { return map[string]any{} }
func (mt *teMockTool) Call(tc *core.ToolContext, _ map[string]any) (core.Payload, error) {
	if mt.running != nil {
		cur := atomic.AddInt32(mt.running, 1)
		defer atomic.AddInt32(mt.running, -1)
		for {
			p := atomic.LoadInt32(mt.peak)
			if cur <= p || atomic.CompareAndSwapInt32(mt.peak, p, cur) {
				break
			}
		}
	}
	if mt.delay > 0 {
		select {
		case <-time.After(mt.delay):
		case <-tc.Context().Done():
			return nil, tc.Context().Err()
		}
	}
	if mt.panicMsg != nil {
		panic(mt.panicMsg)
	}
	return mt.result, mt.err
}

func registry(tools ...tool.Tool) map[string]tool.Tool {
	m := map[string]tool.Tool{}
	for _, t := range tools {
		m[t.Name()] = t
	}
	return m
}

func TestExecutor_PreservesOrder(t *testing.T) {
	tools := registry(
		&teMockTool{name: "slow", delay: 30 * time.Millisecond, result: core.PlainText("slow")},
		&teMockTool{name: "fast", result: core.PlainText("fast")},
	)

	exec := NewParallelFunctionExecutor(FunctionExecutorConfig{})
	resps, err := exec.Execute(context.Background(), Batch{
		Tools: tools,
		Calls: []core.FunctionCall{{ID: "1", Name: "slow"}, {ID: "2", Name: "fast"}},
	})
	require.NoError(t, err)
	require.Len(t, resps, 2)
	assert.Equal(t, "1", resps[0].ID)
	assert.Equal(t, core.PlainText("slow"), resps[0].Response)
	assert.Equal(t, "2", resps[1].ID)
	assert.Equal(t, "fast", resps[1].Name)
}

func TestExecutor_MaxParallel(t *testing.T) {
	var running, peak int32
	mk := func(name string) tool.Tool {
		return &teMockTool{name: name, delay: 10 * time.Millisecond, result: core.PlainText(name), running: &running, peak: &peak}
	}

	exec := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 2})
	_, err := exec.Execute(context.Background(), Batch{
		Tools: registry(mk("a"), mk("b"), mk("c"), mk("d")),
		Calls: []core.FunctionCall{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}, {ID: "3", Name: "c"}, {ID: "4", Name: "d"}},
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestExecutor_UnknownTool(t *testing.T) {
	exec := NewParallelFunctionExecutor(FunctionExecutorConfig{})
	_, err := exec.Execute(context.Background(), Batch{
		Tools: registry(),
		Calls: []core.FunctionCall{{ID: "1", Name: "calculator"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "calculator")
}

func TestExecutor_ToolErrorPropagates(t *testing.T) {
	boom := errors.New("upstream down")
	var observed []string

	exec := NewParallelFunctionExecutor(FunctionExecutorConfig{
		OnCall: func(name string, _ time.Duration, err error) {
			if err != nil {
				observed = append(observed, name)
			}
		},
	})
	_, err := exec.Execute(context.Background(), Batch{
		Tools: registry(&teMockTool{name: "web_search", err: boom}),
		Calls: []core.FunctionCall{{ID: "1", Name: "web_search", Arguments: `{"query":"x"}`}},
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"web_search"}, observed)
}

func TestExecutor_PanicRecovered(t *testing.T) {
	exec := NewParallelFunctionExecutor(FunctionExecutorConfig{LogStartEvents: true})
	_, err := exec.Execute(context.Background(), Batch{
		Tools: registry(
			&teMockTool{name: "bad", panicMsg: "kaboom"},
			&teMockTool{name: "ok", result: core.PlainText("ok")},
		),
		Calls: []core.FunctionCall{{ID: "1", Name: "bad"}, {ID: "2", Name: "ok"}},
	})
	require.Error(t, err)

	var pe *panicErr
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "kaboom", pe.val)
	assert.NotEmpty(t, pe.stack)
}

func TestExecutor_BadArguments(t *testing.T) {
	exec := NewParallelFunctionExecutor(FunctionExecutorConfig{})
	_, err := exec.Execute(context.Background(), Batch{
		Tools: registry(&teMockTool{name: "encyclopedia", result: core.PlainText("x")}),
		Calls: []core.FunctionCall{{ID: "1", Name: "encyclopedia", Arguments: "{not json"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal args")
}

func TestExecutor_Empty(t *testing.T) {
	exec := NewParallelFunctionExecutor(FunctionExecutorConfig{})
	resps, err := exec.Execute(context.Background(), Batch{})
	assert.NoError(t, err)
	assert.Nil(t, resps)
}
