package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/tutormesh/core"
)

// ErrNoResponse is returned by Collect when a generation finished without a
// final (non-partial) response.
var ErrNoResponse = errors.New("model returned no final response")

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by flows and agents.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt
	Contents     []core.Content   `json:"contents"`     // Conversation converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "groq", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by flows & agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains a generation and returns its last final response.
// Partial chunks are skipped; the first error aborts collection.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final Response
		found bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final, found = r, true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if !found {
		return Response{}, ErrNoResponse
	}

	return final, nil
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Replies are served from a FIFO script first, then from prompt-keyed canned
// responses, then echoed back.
type MockModel struct {
	info Info

	mu        sync.Mutex
	responses map[string]string
	script    []scripted
	requests  []Request
}

type scripted struct {
	content core.Content
	err     error
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt
// (the text of the last request message).
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue appends an assistant message to the reply script.
func (m *MockModel) Enqueue(c core.Content) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Role == "" {
		c.Role = core.RoleAssistant
	}
	m.script = append(m.script, scripted{content: c})
	return m
}

// EnqueueText appends a plain text reply to the script.
func (m *MockModel) EnqueueText(text string) *MockModel {
	return m.Enqueue(core.NewTextContent(core.RoleAssistant, text))
}

// EnqueueToolCalls appends a reply requesting the given function calls.
func (m *MockModel) EnqueueToolCalls(calls ...core.FunctionCall) *MockModel {
	parts := make([]core.Part, 0, len(calls))
	for _, fc := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}
	return m.Enqueue(core.Content{Role: core.RoleAssistant, Parts: parts})
}

// EnqueueError makes the next scripted generation fail with err.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{err: err})
	return m
}

// Requests returns every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Calls returns the number of Generate invocations.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockModel) next(req Request) (core.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) > 0 {
		s := m.script[0]
		m.script = m.script[1:]
		return s.content, s.err
	}

	if len(req.Contents) == 0 {
		return core.Content{}, fmt.Errorf("no contents provided")
	}

	inputText := req.Contents[len(req.Contents)-1].Text()

	full, ok := m.responses[inputText]
	if !ok {
		full = fmt.Sprintf("Mock response to: %s", inputText)
	}

	return core.NewTextContent(core.RoleAssistant, full), nil
}

// Generate implements Model; emits optional streaming text chunks then the final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		content, err := m.next(req)
		if err != nil {
			errCh <- err
			return
		}

		if req.Stream {
			for _, r := range content.Text() {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.NewTextContent(core.RoleAssistant, string(r)),
				}:
				}
			}
		}

		finish := "stop"
		if content.HasFunctionCalls() {
			finish = "tool_calls"
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Content: content, FinishReason: finish}:
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
