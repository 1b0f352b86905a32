// Package flow drives the tool-invoking responder: a small state machine that
// alternates between asking a model what to do next and executing the tool
// calls it requested, until the model answers without requesting tools.
package flow

import (
	"errors"
	"sync"

	"github.com/hupe1980/tutormesh/core"
)

// ErrUnknownTool is returned when a model requests a tool that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Phase is a state of the tool loop.
type Phase int

const (
	// PhaseReasoning asks the model for the next assistant message.
	PhaseReasoning Phase = iota
	// PhaseExecutingTools runs the tool calls of the last assistant message.
	PhaseExecutingTools
	// PhaseDone is terminal.
	PhaseDone
)

// String returns the phase name used in logs.
func (p Phase) String() string {
	switch p {
	case PhaseReasoning:
		return "REASONING"
	case PhaseExecutingTools:
		return "EXECUTING_TOOLS"
	case PhaseDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Transcript is the ordered message list of one tool loop run.
type Transcript struct {
	mu       sync.Mutex
	contents []core.Content
}

// NewTranscript seeds a transcript with the system instruction and the user question.
func NewTranscript(instruction, question string) *Transcript {
	t := &Transcript{}
	if instruction != "" {
		t.contents = append(t.contents, core.NewTextContent(core.RoleSystem, instruction))
	}
	t.contents = append(t.contents, core.NewTextContent(core.RoleUser, question))
	return t
}

// Append adds messages at the end.
func (t *Transcript) Append(cs ...core.Content) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.contents = append(t.contents, cs...)
}

// Contents returns a copy of the messages.
func (t *Transcript) Contents() []core.Content {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]core.Content(nil), t.contents...)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.contents)
}
