package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tutormesh/core"
)

func userRequest(text string) Request {
	return Request{Contents: []core.Content{core.NewTextContent(core.RoleUser, text)}}
}

func TestMockModel_CannedAndEcho(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("hi", "hello there")

	resp, err := Collect(context.Background(), m, userRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Content.Text())
	assert.Equal(t, "stop", resp.FinishReason)

	resp, err = Collect(context.Background(), m, userRequest("other"))
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: other", resp.Content.Text())
	assert.Equal(t, 2, m.Calls())
}

func TestMockModel_Script(t *testing.T) {
	boom := errors.New("rate limited")
	m := NewMockModel("mock", "mock").
		EnqueueToolCalls(core.FunctionCall{ID: "1", Name: "encyclopedia", Arguments: `{"query":"DNS"}`}).
		EnqueueError(boom).
		EnqueueText("done")

	resp, err := Collect(context.Background(), m, userRequest("q"))
	require.NoError(t, err)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	require.Len(t, resp.Content.FunctionCalls(), 1)

	_, err = Collect(context.Background(), m, userRequest("q"))
	assert.ErrorIs(t, err, boom)

	resp, err = Collect(context.Background(), m, userRequest("q"))
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Content.Text())
	assert.Len(t, m.Requests(), 3)
}

func TestCollect_SkipsPartials(t *testing.T) {
	m := NewMockModel("mock", "mock").EnqueueText("abc")
	req := userRequest("q")
	req.Stream = true

	resp, err := Collect(context.Background(), m, req)
	require.NoError(t, err)
	assert.False(t, resp.Partial)
	assert.Equal(t, "abc", resp.Content.Text())
}

func TestCollect_NoContents(t *testing.T) {
	_, err := Collect(context.Background(), NewMockModel("mock", "mock"), Request{})
	assert.Error(t, err)
}

type silentModel struct{}

func (silentModel) Generate(context.Context, Request) (<-chan Response, <-chan error) {
	r := make(chan Response)
	e := make(chan error)
	close(r)
	close(e)
	return r, e
}

func (silentModel) Info() Info { return Info{Name: "silent"} }

func TestCollect_NoFinalResponse(t *testing.T) {
	_, err := Collect(context.Background(), silentModel{}, Request{})
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestCollect_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocking := blockingModel{}
	_, err := Collect(ctx, blocking, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

type blockingModel struct{}

func (blockingModel) Generate(context.Context, Request) (<-chan Response, <-chan error) {
	return make(chan Response), make(chan error)
}

func (blockingModel) Info() Info { return Info{Name: "blocking"} }
