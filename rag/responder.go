package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/internal/util"
	"github.com/hupe1980/tutormesh/logging"
	"github.com/hupe1980/tutormesh/model"
)

// DefaultPromptTemplate restricts the model to the retrieved context.
const DefaultPromptTemplate = `You are a helpful tutor for beginner IT students.

Answer the question below using only the information from the provided context.
Explain things clearly and simply. If the answer is not in the context, say "I have no knowledge to answer your question."

Question:
{{.question}}

Context:
{{.context}}

Answer (simple and clear explanation):`

// Retriever finds passages for a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Passage, error)
}

// ResponderOptions configure a Responder.
type ResponderOptions struct {
	// PromptTemplate receives .question and .context.
	PromptTemplate string
	TopK           int
	Logger         logging.Logger
}

// Responder answers from the retrieved passages only. Failures are returned;
// callers that must not fail wrap it in agent.RetrievalAgent.
type Responder struct {
	retriever Retriever
	model     model.Model
	opts      ResponderOptions
}

// NewResponder creates a Responder.
func NewResponder(retriever Retriever, m model.Model, optFns ...func(o *ResponderOptions)) *Responder {
	opts := ResponderOptions{
		PromptTemplate: DefaultPromptTemplate,
		TopK:           DefaultTopK,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.PromptTemplate == "" {
		opts.PromptTemplate = DefaultPromptTemplate
	}

	return &Responder{retriever: retriever, model: m, opts: opts}
}

// Answer retrieves passages for question and asks the model.
func (r *Responder) Answer(ctx context.Context, question string) (string, error) {
	passages, err := r.retriever.Search(ctx, question, r.opts.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieve passages: %w", err)
	}

	prompt, err := util.RenderTemplate(r.opts.PromptTemplate, map[string]any{
		"question": question,
		"context":  JoinPassages(passages),
	})
	if err != nil {
		return "", err
	}

	start := time.Now()

	resp, err := model.Collect(ctx, r.model, model.Request{
		Contents: []core.Content{core.NewTextContent(core.RoleUser, prompt)},
	})

	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	logging.LogLLMCall(r.opts.Logger, r.model.Info().Name, tokens, time.Since(start), err)

	if err != nil {
		return "", fmt.Errorf("retrieval model call failed: %w", err)
	}

	return resp.Content.Text(), nil
}

// JoinPassages concatenates passage contents separated by blank lines.
func JoinPassages(passages []Passage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n\n")
}
