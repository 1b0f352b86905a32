// Package tutormesh wires the tutor pipeline from a config.Config: a
// document-grounded retrieval responder, a tool-invoking responder with
// encyclopedia, web search and video search tools, and the supervisor that
// fuses both into one answer. Most applications only need:
//  1. config.Load to read settings
//  2. New to build a Tutor
//  3. Tutor.Ask per question
//
// Every collaborator can be replaced through Options, which is how tests run
// the full pipeline without network access.
package tutormesh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/philippgille/chromem-go"

	"github.com/hupe1980/tutormesh/agent"
	"github.com/hupe1980/tutormesh/config"
	"github.com/hupe1980/tutormesh/flow"
	"github.com/hupe1980/tutormesh/internal/cache"
	"github.com/hupe1980/tutormesh/logging"
	"github.com/hupe1980/tutormesh/metrics"
	"github.com/hupe1980/tutormesh/model"
	"github.com/hupe1980/tutormesh/rag"
	"github.com/hupe1980/tutormesh/tool"
	"github.com/hupe1980/tutormesh/tool/tavily"
	"github.com/hupe1980/tutormesh/tool/wikipedia"
)

// Options override collaborators otherwise built from the config.
type Options struct {
	// Logger defaults to NoOp.
	Logger logging.Logger
	// Metrics receives step, tool, cache and request observations. Nil disables them.
	Metrics *metrics.Metrics

	// Models per role; nil models are built from config.Models.
	RetrievalModel model.Model
	ReasoningModel model.Model
	FusionModel    model.Model

	// Retrieval replaces the document-grounded responder (and its index).
	Retrieval agent.Responder
	// Embedding replaces the embedding function of the retrieval index.
	Embedding chromem.EmbeddingFunc
	// Tools replaces the encyclopedia, web search and video search tools.
	Tools []tool.Tool
}

// Tutor answers student questions.
type Tutor struct {
	cfg        *config.Config
	opts       Options
	supervisor *agent.Supervisor
	index      *rag.Index
	closers    []func() error
}

// New builds a Tutor. Retrieval problems (missing PDF, embedding backend or
// credentials) do not fail construction: retrieval then answers with the
// unavailability message.
func New(ctx context.Context, cfg *config.Config, optFns ...func(o *Options)) (*Tutor, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	t := &Tutor{cfg: cfg, opts: opts}

	fusion, err := t.model(opts.FusionModel, cfg.Models.Fusion)
	if err != nil {
		return nil, err
	}

	reasoning, err := t.model(opts.ReasoningModel, cfg.Models.Reasoning)
	if err != nil {
		return nil, err
	}

	retrieval := t.retrieval(ctx)

	tools, err := t.tools(ctx)
	if err != nil {
		_ = t.Close()
		return nil, err
	}

	toolAgent := agent.NewToolAgent(reasoning, tools, func(o *flow.ToolLoopOptions) {
		o.MaxRoundTrips = cfg.Supervisor.MaxRoundTrips
		o.Logger = opts.Logger
		o.Executor = flow.NewParallelFunctionExecutor(flow.FunctionExecutorConfig{
			MaxParallel: cfg.Supervisor.MaxParallel,
			OnCall:      opts.Metrics.ObserveToolCall,
		})
	})

	t.supervisor = agent.NewSupervisor(retrieval, toolAgent, fusion, func(o *agent.SupervisorOptions) {
		o.Parallel = cfg.Supervisor.Parallel
		o.Selector = agent.NewSelector(cfg.Supervisor.VideoKeywords...)
		o.Logger = opts.Logger
		o.OnStep = opts.Metrics.ObserveStep
	})

	return t, nil
}

// Ask answers question, bounded by supervisor.request_timeout when set.
func (t *Tutor) Ask(ctx context.Context, question string) (string, error) {
	if d := t.cfg.Supervisor.RequestTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	start := time.Now()
	answer, err := t.supervisor.Answer(ctx, question)
	t.opts.Metrics.ObserveRequest(time.Since(start), err)

	return answer, err
}

// Supervisor returns the underlying coordinator.
func (t *Tutor) Supervisor() *agent.Supervisor { return t.supervisor }

// Index returns the retrieval index, nil when retrieval was overridden or
// could not be opened.
func (t *Tutor) Index() *rag.Index { return t.index }

// Config returns the configuration the tutor was built from.
func (t *Tutor) Config() *config.Config { return t.cfg }

// Close releases external connections such as the Redis cache.
func (t *Tutor) Close() error {
	var errs []error
	for _, c := range t.closers {
		errs = append(errs, c())
	}
	t.closers = nil
	return errors.Join(errs...)
}

func (t *Tutor) model(override model.Model, mc config.ModelConfig) (model.Model, error) {
	if override != nil {
		return override, nil
	}
	return NewModel(mc, t.cfg.ModelAPIKey(mc))
}

func (t *Tutor) retrieval(ctx context.Context) agent.Responder {
	if t.opts.Retrieval != nil {
		return t.opts.Retrieval
	}

	m, err := t.model(t.opts.RetrievalModel, t.cfg.Models.Retrieval)
	if err != nil {
		t.opts.Logger.Warn("tutor.retrieval.unavailable", "error", err.Error())
		return unavailable(err)
	}

	index, err := OpenIndex(t.cfg, t.opts.Embedding, t.opts.Logger)
	if err != nil {
		t.opts.Logger.Warn("tutor.retrieval.unavailable", "error", err.Error())
		return unavailable(err)
	}

	rc := t.cfg.Retrieval
	if err := index.EnsurePDF(ctx, rc.PDFPath, newSplitter(rc)); err != nil {
		t.opts.Logger.Warn("tutor.retrieval.index_failed", "pdf", rc.PDFPath, "error", err.Error())
	}

	t.index = index

	return rag.NewResponder(index, m, func(o *rag.ResponderOptions) {
		o.TopK = rc.TopK
		o.Logger = t.opts.Logger
	})
}

func (t *Tutor) tools(ctx context.Context) ([]tool.Tool, error) {
	tools := t.opts.Tools
	if tools == nil {
		tools = DefaultTools(t.cfg)
	}

	cc := t.cfg.Tools.Cache
	if !cc.Enabled {
		return tools, nil
	}

	var store cache.Store
	switch cc.Backend {
	case "redis":
		rs, err := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:     cc.Redis.Addr,
			Password: cc.Redis.Password,
			DB:       cc.Redis.DB,
			Prefix:   cc.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("tool cache: %w", err)
		}
		t.closers = append(t.closers, rs.Close)
		store = rs
	default:
		store = cache.NewMemoryStore()
	}

	cached := make([]tool.Tool, 0, len(tools))
	for _, tl := range tools {
		cached = append(cached, tool.NewCachedTool(tl, store, func(o *tool.CachedToolOptions) {
			o.TTL = cc.TTL
			o.OnLookup = t.opts.Metrics.ObserveCacheLookup
		}))
	}

	return cached, nil
}

// DefaultTools returns the encyclopedia, web search and video search tools.
func DefaultTools(cfg *config.Config) []tool.Tool {
	wc := cfg.Tools.Wikipedia
	wiki := wikipedia.New(func(o *wikipedia.Options) {
		o.Language = wc.Language
		o.TopK = wc.TopK
		o.MaxChars = wc.MaxChars
		if wc.BaseURL != "" {
			o.BaseURL = wc.BaseURL
		}
	})

	tc := cfg.Tools.Tavily
	search := tavily.New(func(o *tavily.Options) {
		o.APIKey = cfg.APIKeys.Tavily
		o.MaxResults = tc.MaxResults
		if tc.BaseURL != "" {
			o.BaseURL = tc.BaseURL
		}
	})

	return []tool.Tool{
		wiki.Tool(),
		search.WebSearchTool(),
		search.VideoSearchTool(cfg.Tools.Video.Domains...),
	}
}

// OpenIndex opens the retrieval index described by cfg.Retrieval. embed
// overrides the configured embedding backend when non-nil.
func OpenIndex(cfg *config.Config, embed chromem.EmbeddingFunc, logger logging.Logger) (*rag.Index, error) {
	rc := cfg.Retrieval

	if embed == nil {
		var err error
		embed, err = rag.NewEmbeddingFunc(rag.EmbeddingOptions{
			Provider: rc.Embedding.Provider,
			Model:    rc.Embedding.Model,
			BaseURL:  rc.Embedding.BaseURL,
			APIKey:   rc.Embedding.APIKey,
		})
		if err != nil {
			return nil, err
		}
	}

	return rag.NewIndex(embed, func(o *rag.IndexOptions) {
		o.Collection = rc.Collection
		o.PersistDir = rc.DatastoreDir
		o.Logger = logger
	})
}

// BuildIndex ingests the configured PDF into the index and returns the number
// of chunks added. Existing chunks of the same document are overwritten.
func BuildIndex(ctx context.Context, cfg *config.Config, embed chromem.EmbeddingFunc, logger logging.Logger) (int, error) {
	index, err := OpenIndex(cfg, embed, logger)
	if err != nil {
		return 0, err
	}
	return index.IngestPDF(ctx, cfg.Retrieval.PDFPath, newSplitter(cfg.Retrieval))
}

func newSplitter(rc config.RetrievalConfig) *rag.Splitter {
	return rag.NewSplitter(func(o *rag.SplitterOptions) {
		o.ChunkSize = rc.ChunkSize
		o.ChunkOverlap = rc.ChunkOverlap
	})
}

func unavailable(err error) agent.Responder {
	return agent.ResponderFunc(func(context.Context, string) (string, error) {
		return "", err
	})
}
