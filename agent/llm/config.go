package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/contract"
)

// Backend selects the generation backend implementation.
type Backend string

const (
	BackendOllama Backend = "ollama"
	BackendOpenAI Backend = "openai"
)

// Config describes the generation backend. The default backend is a
// local Ollama server; "openai" switches to any OpenAI-compatible
// endpoint (Ollama's /v1, OpenRouter, ...) through the official SDK.
type Config struct {
	Backend       Backend       `split_words:"true" default:"ollama"`
	Model         string        `split_words:"true" default:"qwen2.5:7b"`
	BaseURL       string        `envconfig:"BASE_URL" split_words:"true" default:"http://localhost:11434"`
	APIKey        string        `envconfig:"API_KEY" split_words:"true"`
	Temperature   float64       `split_words:"true" default:"0.7"`
	ContextWindow int           `split_words:"true" default:"8192"`
	Timeout       time.Duration `split_words:"true" default:"120s"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	switch c.Backend {
	case BackendOllama, BackendOpenAI:
	default:
		return fmt.Errorf("%w: unknown backend %q", contractx.ErrValidation, c.Backend)
	}
	return nil
}

// NewGenerator builds the Generator selected by the config.
func (c Config) NewGenerator() (contractx.Generator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Backend {
	case BackendOpenAI:
		return newOpenAIGenerator(c)
	default:
		return NewOllamaGenerator(c)
	}
}
