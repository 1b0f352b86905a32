package tutormesh

import (
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/tutormesh/config"
	"github.com/hupe1980/tutormesh/model"
	"github.com/hupe1980/tutormesh/model/anthropic"
	"github.com/hupe1980/tutormesh/model/openai"
)

// ErrMissingAPIKey is returned when a model provider has no credentials.
var ErrMissingAPIKey = errors.New("missing api key")

// NewModel builds the chat model described by mc. Supported providers are
// "openai", "groq" (OpenAI-compatible endpoint) and "anthropic".
func NewModel(mc config.ModelConfig, apiKey string) (model.Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w for provider %s (model %s)", ErrMissingAPIKey, mc.Provider, mc.Name)
	}

	switch mc.Provider {
	case "openai", "groq":
		return openai.NewModel(func(o *openai.Options) {
			if mc.Provider == "groq" {
				openai.WithGroq(apiKey)(o)
			}
			o.APIKey = apiKey
			o.Model = mc.Name
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(mc.MaxTokens)
			}
			if mc.BaseURL != "" {
				o.BaseURL = mc.BaseURL
			}
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = apiKey
			o.Model = anthropicsdk.Model(mc.Name)
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxTokens = int64(mc.MaxTokens)
			}
			if mc.BaseURL != "" {
				o.BaseURL = mc.BaseURL
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", mc.Provider)
	}
}
