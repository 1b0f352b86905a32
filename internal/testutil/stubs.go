package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/tutormesh/core"
)

// StubResponder answers every question with Reply, or fails with Err, or
// panics with Panic when set.
type StubResponder struct {
	Name  string
	Reply string
	Err   error
	Panic any
	Log   *CallLog

	mu        sync.Mutex
	questions []string
}

// Answer implements agent.Responder.
func (s *StubResponder) Answer(_ context.Context, question string) (string, error) {
	s.mu.Lock()
	s.questions = append(s.questions, question)
	s.mu.Unlock()

	s.Log.Record(s.name())

	if s.Panic != nil {
		panic(s.Panic)
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Reply, nil
}

// Questions returns the questions received so far.
func (s *StubResponder) Questions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.questions...)
}

func (s *StubResponder) name() string {
	if s.Name == "" {
		return "responder"
	}
	return s.Name
}

// StubTool is a tool returning a fixed payload or error.
type StubTool struct {
	ToolName string
	Result   core.Payload
	Err      error
	Log      *CallLog

	mu   sync.Mutex
	args []map[string]any
}

// Name implements tool.Tool.
func (s *StubTool) Name() string { return s.ToolName }

// Description implements tool.Tool.
func (s *StubTool) Description() string { return "stub " + s.ToolName }

// Parameters implements tool.Tool.
func (s *StubTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
		},
	}
}

// Call implements tool.Tool.
func (s *StubTool) Call(_ *core.ToolContext, args map[string]any) (core.Payload, error) {
	s.mu.Lock()
	s.args = append(s.args, args)
	s.mu.Unlock()

	s.Log.Record(s.ToolName)

	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}

// Args returns the argument maps received so far.
func (s *StubTool) Args() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.args...)
}
