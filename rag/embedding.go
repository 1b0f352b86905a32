package rag

import (
	"fmt"

	"github.com/philippgille/chromem-go"
)

// EmbeddingOptions select the embedding backend of an Index.
type EmbeddingOptions struct {
	// Provider is one of "openai", "openai_compat" or "ollama".
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// NewEmbeddingFunc returns the chromem embedding function for opts.
func NewEmbeddingFunc(opts EmbeddingOptions) (chromem.EmbeddingFunc, error) {
	switch opts.Provider {
	case "", "openai":
		model := chromem.EmbeddingModelOpenAI3Small
		if opts.Model != "" {
			model = chromem.EmbeddingModelOpenAI(opts.Model)
		}
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai embeddings require an api key")
		}
		return chromem.NewEmbeddingFuncOpenAI(opts.APIKey, model), nil
	case "openai_compat":
		if opts.BaseURL == "" || opts.Model == "" {
			return nil, fmt.Errorf("openai compatible embeddings require base url and model")
		}
		return chromem.NewEmbeddingFuncOpenAICompat(opts.BaseURL, opts.APIKey, opts.Model, nil), nil
	case "ollama":
		model := opts.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return chromem.NewEmbeddingFuncOllama(model, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
	}
}
