package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/flow"
	"github.com/hupe1980/tutormesh/internal/testutil"
	"github.com/hupe1980/tutormesh/model"
	"github.com/hupe1980/tutormesh/tool"
)

func videoSearch() *testutil.StubTool {
	return &testutil.StubTool{
		ToolName: "video_search",
		Result: core.LinkRecords{
			{"title": "Subnetting Basics", "url": "https://youtube.com/x", "content": "intro"},
		},
	}
}

func TestToolAgent_PlainAnswer(t *testing.T) {
	m := model.NewMockModel("reasoner", "mock")
	m.EnqueueText("A subnet is a slice of an IP network.")

	a := NewToolAgent(m, []tool.Tool{videoSearch()})

	out, err := a.Answer(context.Background(), "What is a subnet?")
	require.NoError(t, err)
	assert.Equal(t, "A subnet is a slice of an IP network.", out)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, core.RoleSystem, reqs[0].Contents[0].Role)
	assert.Equal(t, DefaultToolInstruction, reqs[0].Contents[0].Text())
	assert.Len(t, reqs[0].Tools, 1)
}

func TestToolAgent_RendersRecords(t *testing.T) {
	vs := videoSearch()

	m := model.NewMockModel("reasoner", "mock")
	m.EnqueueToolCalls(core.FunctionCall{ID: "c1", Name: "video_search", Arguments: `{"query":"subnetting"}`})
	m.Enqueue(core.ContentOf(core.LinkRecords{
		{"title": "Subnetting Basics", "url": "https://youtube.com/x"},
	}))

	a := NewToolAgent(m, []tool.Tool{vs})

	out, err := a.Answer(context.Background(), "tutorial video on subnetting")
	require.NoError(t, err)
	assert.Equal(t, "Here are some useful videos you can watch:\n- [Subnetting Basics](https://youtube.com/x)", out)
	require.Len(t, vs.Args(), 1)
	assert.Equal(t, "subnetting", vs.Args()[0]["query"])
}

func TestToolAgent_ExhaustedLoop(t *testing.T) {
	m := model.NewMockModel("reasoner", "mock")
	for i := 0; i < 3; i++ {
		m.EnqueueToolCalls(core.FunctionCall{Name: "video_search", Arguments: `{}`})
	}

	a := NewToolAgent(m, []tool.Tool{videoSearch()}, func(o *flow.ToolLoopOptions) { o.MaxRoundTrips = 2 })

	res, err := a.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, res.Exhausted)

	out := RenderAnswer(res.Final)
	assert.Equal(t, NoAnswerMessage, out)
}

func TestToolAgent_ErrorsPropagate(t *testing.T) {
	modelErr := errors.New("upstream 500")
	m := model.NewMockModel("reasoner", "mock")
	m.EnqueueError(modelErr)

	a := NewToolAgent(m, nil)

	_, err := a.Answer(context.Background(), "q")
	assert.ErrorIs(t, err, modelErr)
}

func TestToolAgent_Transitions(t *testing.T) {
	m := model.NewMockModel("reasoner", "mock")
	m.EnqueueText("ok")

	var seen []string
	a := NewToolAgent(m, nil, func(o *flow.ToolLoopOptions) {
		o.OnTransition = func(from, to flow.Phase) { seen = append(seen, from.String()+">"+to.String()) }
	})

	_, err := a.Run(core.WithRequestID(context.Background(), "req-1"), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"REASONING>DONE"}, seen)
}
