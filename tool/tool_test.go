package tool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/internal/cache"
	"github.com/hupe1980/tutormesh/logging"
)

func newToolContext(name string) *core.ToolContext {
	return core.NewToolContext(context.Background(), "req", "fc1", name, logging.NoOpLogger{})
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
		},
		"required": []string{"query"},
	}

	echo := NewFunctionTool("echo", "Echo", params, func(_ *core.ToolContext, args map[string]any) (core.Payload, error) {
		return core.PlainText(args["query"].(string)), nil
	})

	result, err := echo.Call(newToolContext("echo"), map[string]any{"query": "hi"})
	require.NoError(t, err)
	assert.Equal(t, core.PlainText("hi"), result)
}

func TestFunctionTool_NilResultBecomesEmptyText(t *testing.T) {
	ft := NewFunctionTool("nil", "Nil", map[string]any{"type": "object"}, func(*core.ToolContext, map[string]any) (core.Payload, error) {
		return nil, nil
	})

	result, err := ft.Call(newToolContext("nil"), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, core.PlainText(""), result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	ft := NewFunctionTool("test", "Test", params, func(*core.ToolContext, map[string]any) (core.Payload, error) {
		return core.PlainText("unreachable"), nil
	})

	_, err := ft.Call(newToolContext("test"), map[string]any{})
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeValidation, toolErr.Code)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	boom := errors.New("boom")
	ft := NewFunctionTool("fail", "Fails", map[string]any{"type": "object"}, func(*core.ToolContext, map[string]any) (core.Payload, error) {
		return nil, boom
	})

	_, err := ft.Call(newToolContext("fail"), map[string]any{})
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "tool error [EXECUTION_ERROR] in fail: boom", err.Error())
}

func TestFunctionTool_ForwardsToolError(t *testing.T) {
	custom := NewToolError("quota", "limit reached", "QUOTA")
	ft := NewFunctionTool("quota", "Quota", map[string]any{"type": "object"}, func(*core.ToolContext, map[string]any) (core.Payload, error) {
		return nil, custom
	})

	_, err := ft.Call(newToolContext("quota"), map[string]any{})
	assert.Same(t, custom, err)
}

// -------------------- TypedTool Tests --------------------

type lookupArgs struct {
	Query string `json:"query" validate:"required,min=2" description:"Search term"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1,max=5"`
}

func TestTypedTool(t *testing.T) {
	var got lookupArgs
	tt := NewTypedTool("lookup", "Lookup", func(_ *core.ToolContext, a lookupArgs) (core.Payload, error) {
		got = a
		return core.PlainText("ok"), nil
	})

	assert.Equal(t, "lookup", tt.Name())
	assert.Equal(t, []string{"query"}, tt.Parameters()["required"])

	result, err := tt.Call(newToolContext("lookup"), map[string]any{"query": "DNS", "limit": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, core.PlainText("ok"), result)
	assert.Equal(t, lookupArgs{Query: "DNS", Limit: 2}, got)

	_, err = tt.Call(newToolContext("lookup"), map[string]any{"query": "x"})
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeValidation, toolErr.Code)

	_, err = tt.Call(newToolContext("lookup"), map[string]any{"query": "DNS", "limit": float64(10)})
	require.Error(t, err)
}

func TestDefinitions(t *testing.T) {
	tt := NewTypedTool("lookup", "Lookup", func(*core.ToolContext, lookupArgs) (core.Payload, error) { return nil, nil })
	defs := Definitions(tt)
	require.Len(t, defs, 1)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "lookup", defs[0].Function.Name)
	assert.Equal(t, "Lookup", defs[0].Function.Description)
}

// -------------------- CachedTool Tests --------------------

type mockStore struct{ mock.Mock }

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Bool(1), args.Error(2)
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func TestCachedTool(t *testing.T) {
	var calls int32
	inner := NewFunctionTool("video_search", "Videos", map[string]any{"type": "object"}, func(*core.ToolContext, map[string]any) (core.Payload, error) {
		atomic.AddInt32(&calls, 1)
		return core.LinkRecords{{"title": "Intro", "url": "https://youtube.com/watch?v=1"}}, nil
	})

	var hits, misses int
	ct := NewCachedTool(inner, cache.NewMemoryStore(), func(o *CachedToolOptions) {
		o.TTL = time.Minute
		o.OnLookup = func(_ string, hit bool) {
			if hit {
				hits++
			} else {
				misses++
			}
		}
	})

	args := map[string]any{"query": "python loops"}

	first, err := ct.Call(newToolContext("video_search"), args)
	require.NoError(t, err)
	second, err := ct.Call(newToolContext("video_search"), args)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	_, err = ct.Call(newToolContext("video_search"), map[string]any{"query": "other"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCachedTool_StoreFailureFallsThrough(t *testing.T) {
	inner := NewFunctionTool("encyclopedia", "Facts", map[string]any{"type": "object"}, func(*core.ToolContext, map[string]any) (core.Payload, error) {
		return core.PlainText("Page: DNS"), nil
	})

	store := &mockStore{}
	store.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(nil, false, errors.New("down")).Once()
	store.On("Set", mock.Anything, mock.AnythingOfType("string"), mock.Anything, time.Hour).Return(errors.New("down")).Once()

	ct := NewCachedTool(inner, store)
	result, err := ct.Call(newToolContext("encyclopedia"), map[string]any{"query": "DNS"})
	require.NoError(t, err)
	assert.Equal(t, core.PlainText("Page: DNS"), result)
	store.AssertExpectations(t)
}

func TestCachedTool_ErrorsAreNotCached(t *testing.T) {
	var calls int32
	inner := NewFunctionTool("web_search", "Web", map[string]any{"type": "object"}, func(*core.ToolContext, map[string]any) (core.Payload, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("upstream")
	})

	store := cache.NewMemoryStore()
	ct := NewCachedTool(inner, store)

	_, err := ct.Call(newToolContext("web_search"), map[string]any{"query": "q"})
	require.Error(t, err)
	_, err = ct.Call(newToolContext("web_search"), map[string]any{"query": "q"})
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, store.Len())
}
