package core

import (
	"errors"
	"sync"
)

// ErrFieldAlreadyWritten is returned when a write-once State field is set twice.
var ErrFieldAlreadyWritten = errors.New("state field already written")

// State is the request-scoped record threaded through the supervisor
// pipeline. The question is fixed at construction, each specialist output
// may be written exactly once and the message log only grows.
type State struct {
	mu sync.RWMutex

	id       string
	question string

	retrievalOutput *string
	toolOutput      *string

	messages []Content
}

// NewState creates the state for a single incoming question.
func NewState(question string) *State {
	return &State{
		id:       NewID(),
		question: question,
	}
}

// ID returns the request identifier assigned at construction.
func (s *State) ID() string { return s.id }

// Question returns the user question.
func (s *State) Question() string { return s.question }

// SetRetrievalOutput records the retrieval specialist's answer.
func (s *State) SetRetrievalOutput(v string) error {
	return s.setOnce(&s.retrievalOutput, v)
}

// RetrievalOutput returns the retrieval answer and whether it was written.
func (s *State) RetrievalOutput() (string, bool) {
	return s.get(&s.retrievalOutput)
}

// SetToolOutput records the tool-invoking specialist's answer.
func (s *State) SetToolOutput(v string) error {
	return s.setOnce(&s.toolOutput, v)
}

// ToolOutput returns the tool answer and whether it was written.
func (s *State) ToolOutput() (string, bool) {
	return s.get(&s.toolOutput)
}

// AppendMessage adds a message to the log.
func (s *State) AppendMessage(c Content) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, c)
}

// Messages returns a copy of the message log.
func (s *State) Messages() []Content {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Content, len(s.messages))
	copy(out, s.messages)

	return out
}

func (s *State) setOnce(field **string, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if *field != nil {
		return ErrFieldAlreadyWritten
	}

	*field = &v

	return nil
}

func (s *State) get(field **string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if *field == nil {
		return "", false
	}

	return **field, true
}
