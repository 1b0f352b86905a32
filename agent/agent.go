package agent

import "context"

// Responder answers a single question.
type Responder interface {
	Answer(ctx context.Context, question string) (string, error)
}

// ResponderFunc adapts an ordinary function to Responder.
type ResponderFunc func(ctx context.Context, question string) (string, error)

// Answer implements Responder.
func (f ResponderFunc) Answer(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}
