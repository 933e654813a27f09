package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/contract"
	ollamax "github.com/tanpawarit/Discord-MCP-Conversational-Relay/pkg/ollama"
)

// OllamaGenerator produces replies through the native Ollama REST API,
// carrying temperature and num_ctx into the sampling options.
type OllamaGenerator struct {
	client        *ollamax.Client
	model         string
	temperature   float64
	contextWindow int
}

func NewOllamaGenerator(cfg Config) (*OllamaGenerator, error) {
	client, err := ollamax.NewClient(ollamax.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return &OllamaGenerator{
		client:        client,
		model:         strings.TrimSpace(cfg.Model),
		temperature:   cfg.Temperature,
		contextWindow: cfg.ContextWindow,
	}, nil
}

func (g *OllamaGenerator) Chat(ctx context.Context, messages []contractx.ChatMessage) (string, error) {
	converted := make([]ollamax.Message, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, ollamax.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := g.client.Chat(ctx, ollamax.ChatRequest{
		Model:    g.model,
		Messages: converted,
		Options: ollamax.Options{
			Temperature: g.temperature,
			NumCtx:      g.contextWindow,
		},
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return resp.Message.Content, nil
}

// EnsureModel checks the configured model is installed on the server
// and pulls it when absent.
func (g *OllamaGenerator) EnsureModel(ctx context.Context) error {
	models, err := g.client.List(ctx)
	if err != nil {
		return fmt.Errorf("list local models: %w", err)
	}

	for _, m := range models {
		if strings.Contains(m.Name, g.model) {
			return nil
		}
	}

	log.Info().Str("model", g.model).Msg("model not installed, pulling")
	if err := g.client.Pull(ctx, g.model); err != nil {
		return fmt.Errorf("pull model %s: %w", g.model, err)
	}
	log.Info().Str("model", g.model).Msg("model downloaded")
	return nil
}

var _ contractx.Generator = (*OllamaGenerator)(nil)
