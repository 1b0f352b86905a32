package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/model"
)

func TestGenerate_Text(t *testing.T) {
	var body map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "An IP address identifies a host."}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 7, "output_tokens": 9}
		}`)
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "test"
		o.BaseURL = srv.URL + "/"
		o.RequestOptions = []option.RequestOption{option.WithMaxRetries(0)}
	})

	resp, err := model.Collect(context.Background(), m, model.Request{
		Instructions: "Be brief.",
		Contents:     []core.Content{core.NewTextContent(core.RoleUser, "What is an IP address?")},
	})
	require.NoError(t, err)
	assert.Equal(t, "An IP address identifies a host.", resp.Content.Text())
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 16, resp.Usage.TotalTokens)

	system := body["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "Be brief.", system[0].(map[string]any)["text"])
}

func TestBuildMessages_ToolResultsAreUserTurns(t *testing.T) {
	msgs := buildMessages([]core.Content{
		core.NewTextContent(core.RoleSystem, "sys"),
		core.NewTextContent(core.RoleUser, "q"),
		{Role: core.RoleAssistant, Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "t1", Name: "encyclopedia", Arguments: `{"query":"DNS"}`}},
		}},
		{Role: core.RoleTool, Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "t1", Name: "encyclopedia", Response: core.PlainText("Page: DNS")}},
		}},
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Equal(t, "user", string(msgs[2].Role))
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "web_search",
			Description: "Search the web",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"query": map[string]any{"type": "string"}},
				"required":   []any{"query"},
			},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "web_search", tools[0].OfTool.Name)
	assert.Equal(t, []string{"query"}, tools[0].OfTool.InputSchema.Required)
}
