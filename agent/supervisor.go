package agent

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/tutormesh/core"
	"github.com/hupe1980/tutormesh/logging"
	"github.com/hupe1980/tutormesh/model"
)

// Step names of the supervisor pipeline.
const (
	StepRetrieve  = "retrieve"
	StepTools     = "tools"
	StepSummarize = "summarize"
)

// NotAvailable is substituted for a specialist output that was never written.
const NotAvailable = "Not available"

// NoFinalAnswerMessage is returned when fusion produced no usable text.
const NoFinalAnswerMessage = "Sorry, no final answer was generated."

// SupervisorOptions configure a Supervisor.
type SupervisorOptions struct {
	// FusionInstruction renders the fusion prompt from question, materials and extra.
	FusionInstruction Instruction
	// Parallel runs the retrieval and tool steps concurrently.
	Parallel bool
	Selector *Selector
	Logger   logging.Logger
	// OnStep observes every finished step.
	OnStep func(step string, dur time.Duration, err error)
}

// Supervisor coordinates the retrieval and tool specialists and fuses their
// outputs into one answer with a single model call.
type Supervisor struct {
	retrieval Responder
	tools     Responder
	fusion    model.Model
	opts      SupervisorOptions
}

// NewSupervisor creates a Supervisor. retrieval is wrapped in a RetrievalAgent
// unless it already is one.
func NewSupervisor(retrieval, tools Responder, fusion model.Model, optFns ...func(o *SupervisorOptions)) *Supervisor {
	opts := SupervisorOptions{
		FusionInstruction: NewInstructionFromText(DefaultFusionTemplate),
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Selector == nil {
		opts.Selector = NewSelector()
	}
	if opts.FusionInstruction.IsZero() {
		opts.FusionInstruction = NewInstructionFromText(DefaultFusionTemplate)
	}

	if _, ok := retrieval.(*RetrievalAgent); !ok {
		retrieval = NewRetrievalAgent(retrieval, opts.Logger)
	}

	return &Supervisor{
		retrieval: retrieval,
		tools:     tools,
		fusion:    fusion,
		opts:      opts,
	}
}

// Steps returns the pipeline in execution order.
func (s *Supervisor) Steps() []Step {
	return []Step{
		NewStep(StepRetrieve, s.retrieve),
		NewStep(StepTools, s.runTools),
		NewStep(StepSummarize, s.summarize),
	}
}

// Run executes the pipeline for question and returns the final state.
// Any step failure aborts the request.
func (s *Supervisor) Run(ctx context.Context, question string) (*core.State, error) {
	state := core.NewState(question)
	ctx = core.WithRequestID(ctx, state.ID())
	logger := s.opts.Logger

	logger.Info("supervisor.request.start", "request_id", state.ID(), "parallel", s.opts.Parallel)
	start := time.Now()

	steps := s.Steps()
	specialists, fusion := steps[:2], steps[2]

	if s.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, step := range specialists {
			g.Go(func() error { return s.runStep(gctx, state, step) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, step := range specialists {
			if err := s.runStep(ctx, state, step); err != nil {
				return nil, err
			}
		}
	}

	if err := s.runStep(ctx, state, fusion); err != nil {
		return nil, err
	}

	logger.Info("supervisor.request.complete", "request_id", state.ID(), "duration_ms", time.Since(start).Milliseconds())

	return state, nil
}

// Answer runs the pipeline and applies the response selector.
func (s *Supervisor) Answer(ctx context.Context, question string) (string, error) {
	state, err := s.Run(ctx, question)
	if err != nil {
		return "", err
	}
	return s.opts.Selector.Select(state, s.FusedAnswer(state)), nil
}

// FusedAnswer returns the text of the last assistant message with non-blank
// text, or NoFinalAnswerMessage.
func (s *Supervisor) FusedAnswer(state *core.State) string {
	msgs := state.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != core.RoleAssistant {
			continue
		}
		if text := msgs[i].Text(); strings.TrimSpace(text) != "" {
			return text
		}
	}
	return NoFinalAnswerMessage
}

func (s *Supervisor) runStep(ctx context.Context, state *core.State, step Step) error {
	err := runStep(ctx, state, step, s.opts.OnStep)
	if err != nil {
		s.opts.Logger.Error("supervisor.step.error", "request_id", state.ID(), "step", step.Name(), "error", err.Error())
		return err
	}
	s.opts.Logger.Debug("supervisor.step.complete", "request_id", state.ID(), "step", step.Name())
	return nil
}

func (s *Supervisor) retrieve(ctx context.Context, state *core.State) error {
	out, err := s.retrieval.Answer(ctx, state.Question())
	if err != nil {
		return err
	}
	return state.SetRetrievalOutput(out)
}

func (s *Supervisor) runTools(ctx context.Context, state *core.State) error {
	out, err := s.tools.Answer(ctx, state.Question())
	if err != nil {
		return err
	}
	return state.SetToolOutput(out)
}

func (s *Supervisor) summarize(ctx context.Context, state *core.State) error {
	materials, ok := state.RetrievalOutput()
	if !ok {
		materials = NotAvailable
	}
	extra, ok := state.ToolOutput()
	if !ok {
		extra = NotAvailable
	}

	prompt, err := s.opts.FusionInstruction.Resolve(ctx, map[string]any{
		"question":  state.Question(),
		"materials": materials,
		"extra":     extra,
	})
	if err != nil {
		return err
	}

	resp, err := model.Collect(ctx, s.fusion, model.Request{
		Contents: []core.Content{core.NewTextContent(core.RoleUser, prompt)},
	})
	if err != nil {
		return err
	}

	state.AppendMessage(core.NewTextContent(core.RoleAssistant, resp.Content.Text()))

	return nil
}
