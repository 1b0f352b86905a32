// Package openai implements model.Model on top of the OpenAI Chat Completions
// API. Any OpenAI-compatible endpoint (Groq among them) can be targeted by
// setting BaseURL.
package openai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/model"
)

// GroqBaseURL is the OpenAI-compatible endpoint of Groq.
const GroqBaseURL = "https://api.groq.com/openai/v1/"

// aggCall aggregates streamed tool call deltas.
type aggCall struct{ id, name, args string }

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// APIKey overrides the OPENAI_API_KEY environment variable.
	APIKey string
	// BaseURL targets an OpenAI-compatible endpoint.
	BaseURL string
	// Provider is reported by Info; defaults to "openai".
	Provider       string
	RequestOptions []option.RequestOption
}

// WithGroq points the adapter at Groq using apiKey.
func WithGroq(apiKey string) func(o *Options) {
	return func(o *Options) {
		o.APIKey = apiKey
		o.BaseURL = GroqBaseURL
		o.Provider = "groq"
	}
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	reqOpts := append([]option.RequestOption(nil), opts.RequestOptions...)
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(reqOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		Provider:            "openai",
	}
}

// Generate adapts Chat Completions (with tool calling) into model.Response events.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := m.buildParams(req, buildMessages(req))
		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()

	return out, errCh
}

// buildMessages converts normalized contents into chat messages. Tool
// results become one tool message per function response, in transcript order.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Contents)+1)
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, c := range req.Contents {
		text := c.Text()

		switch c.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case core.RoleTool:
			for _, fr := range c.FunctionResponses() {
				messages = append(messages, openai.ToolMessage(fr.Text(), fr.ID))
			}
		case core.RoleAssistant:
			calls := c.FunctionCalls()
			if len(calls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}

			asst := &openai.ChatCompletionAssistantMessageParam{ToolCalls: toToolCallParams(calls)}
			if text != "" {
				asst.Content.OfString = openai.String(text)
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: asst})
		default:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	return messages
}

func toToolCallParams(calls []core.FunctionCall) []openai.ChatCompletionMessageToolCallParam {
	params := make([]openai.ChatCompletionMessageToolCallParam, 0, len(calls))
	for _, fc := range calls {
		params = append(params, openai.ChatCompletionMessageToolCallParam{
			ID:   fc.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.Name,
				Arguments: fc.Arguments,
			},
		})
	}
	return params
}

// buildParams assembles the request parameters including tool definitions.
func (m *Model) buildParams(
	req model.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       m.opts.Model,
		Temperature: openai.Float(m.opts.Temperature),
	}
	if m.opts.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openai.Int(m.opts.MaxCompletionTokens)
	}

	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools

	return params
}

// handleStreaming forwards partial text chunks and one final response.
func (m *Model) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var text strings.Builder
	toolAgg := map[int64]*aggCall{}

	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				text.WriteString(ch.Delta.Content)
				out <- model.Response{
					ID:      ck.ID,
					Partial: true,
					Content: core.NewTextContent(core.RoleAssistant, ch.Delta.Content),
				}
			}

			for _, tc := range ch.Delta.ToolCalls {
				ac, ok := toolAgg[tc.Index]
				if !ok {
					ac = &aggCall{}
					toolAgg[tc.Index] = ac
				}
				if tc.ID != "" {
					ac.id = tc.ID
				}
				if tc.Function.Name != "" {
					ac.name = tc.Function.Name
				}
				ac.args += tc.Function.Arguments
			}

			if ch.FinishReason != "" {
				out <- model.Response{
					ID:           ck.ID,
					Content:      finalContent(text.String(), toolAgg),
					FinishReason: ch.FinishReason,
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
	}
}

func finalContent(text string, toolAgg map[int64]*aggCall) core.Content {
	parts := make([]core.Part, 0, len(toolAgg)+1)
	if text != "" {
		parts = append(parts, core.TextPart{Text: text})
	}

	idx := make([]int64, 0, len(toolAgg))
	for i := range toolAgg {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool { return idx[a] < idx[b] })

	for _, i := range idx {
		ac := toolAgg[i]
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        ac.id,
			Name:      ac.name,
			Arguments: ac.args,
		}})
	}

	return core.Content{Role: core.RoleAssistant, Parts: parts}
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("%s api error: %w", m.opts.Provider, err)
		return
	}

	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("%s api error: no choices returned", m.opts.Provider)
		return
	}

	ch0 := resp.Choices[0]

	parts := make([]core.Part, 0, len(ch0.Message.ToolCalls)+1)
	if ch0.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: ch0.Message.Content})
	}
	for _, tc := range ch0.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	out <- model.Response{
		ID:           resp.ID,
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// Info returns metadata describing this model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      m.opts.Provider,
		SupportsTools: true,
	}
}
