// internal/llm/llm.go
package llm

import (
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"studynet-advisor/internal/common/config"
)

// NewClient builds a chat model client against any OpenAI-compatible
// endpoint. The returned llms.Model is safe for concurrent use.
func NewClient(cfg config.LLMConfig) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	token := cfg.APIKey
	if token == "" {
		// Local OpenAI-compatible services accept any token.
		token = "none"
	}
	opts = append(opts, openai.WithToken(token))

	return openai.New(opts...)
}
