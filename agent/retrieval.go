package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/tutormesh/logging"
)

// RetrievalUnavailableMessage replaces any retrieval failure.
const RetrievalUnavailableMessage = "Sorry, the service is currently unavailable. Please try again later."

// RetrievalAgent wraps a document-grounded Responder and never fails: every
// error or panic of the wrapped responder is turned into
// RetrievalUnavailableMessage.
type RetrievalAgent struct {
	inner  Responder
	logger logging.Logger
}

// NewRetrievalAgent wraps inner.
func NewRetrievalAgent(inner Responder, logger logging.Logger) *RetrievalAgent {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &RetrievalAgent{inner: inner, logger: logger}
}

// Answer implements Responder. The returned error is always nil.
func (r *RetrievalAgent) Answer(ctx context.Context, question string) (answer string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("agent.retrieval.panic", "recover", fmt.Sprint(rec))
			answer, err = RetrievalUnavailableMessage, nil
		}
	}()

	out, err := r.inner.Answer(ctx, question)
	if err != nil {
		r.logger.Warn("agent.retrieval.unavailable", "error", err.Error())
		return RetrievalUnavailableMessage, nil
	}

	return out, nil
}
