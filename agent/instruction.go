package agent

import (
	"context"

	"github.com/hupe1980/tutormesh/internal/util"
)

// DefaultToolInstruction is the system message of the tool-invoking responder.
const DefaultToolInstruction = "You are a helpful tutor. Use the encyclopedia tool for facts, web search for general results, and video search for tutorials."

// DefaultFusionTemplate is the prompt sent to the fusion model. It receives
// .question, .materials (retrieval output) and .extra (tool output).
const DefaultFusionTemplate = "You are a helpful tutor. Based on the following materials and extra sources, give a simple and clear answer to the question." +
	" Include helpful links if available, and explain things like you're teaching a beginner." +
	"\n\n" +
	"QUESTION: {{.question}}\n\n" +
	"Materials:\n{{.materials}}\n\n" +
	"Extra Info:\n{{.extra}}\n\n" +
	"Answer:"

// Provider supplies instruction text at runtime.
type Provider interface {
	Instruction(ctx context.Context, data map[string]any) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(ctx context.Context, data map[string]any) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ctx context.Context, data map[string]any) (string, error) {
	return f(ctx, data)
}

// Instruction is either a static text/template prompt or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a template string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// IsZero reports whether neither text nor provider is set.
func (i Instruction) IsZero() bool { return i.provider == nil && i.text == "" }

// Resolve returns the instruction text, rendering the template with data or
// invoking the provider.
func (i Instruction) Resolve(ctx context.Context, data map[string]any) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx, data)
	}
	return util.RenderTemplate(i.text, data)
}
