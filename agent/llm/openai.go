package llm

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/contract"
)

// openAIGenerator targets any OpenAI-compatible chat completion
// endpoint through the official SDK. Note the compatible surface has
// no num_ctx: the context window is left to the server here.
type openAIGenerator struct {
	client      *openaisdk.Client
	model       string
	temperature float64
}

func newOpenAIGenerator(cfg Config) (*openAIGenerator, error) {
	opts := []option.RequestOption{}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	client := openaisdk.NewClient(opts...)
	return &openAIGenerator{
		client:      &client,
		model:       strings.TrimSpace(cfg.Model),
		temperature: cfg.Temperature,
	}, nil
}

func (g *openAIGenerator) Chat(ctx context.Context, messages []contractx.ChatMessage) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(g.model),
		Temperature: openaisdk.Float(g.temperature),
	}
	for _, m := range messages {
		switch m.Role {
		case contractx.RoleSystem:
			params.Messages = append(params.Messages, openaisdk.SystemMessage(m.Content))
		case contractx.RoleAssistant:
			params.Messages = append(params.Messages, openaisdk.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openaisdk.UserMessage(m.Content))
		}
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: completion returned no choices", contractx.ErrDecode)
	}
	return completion.Choices[0].Message.Content, nil
}

var _ contractx.Generator = (*openAIGenerator)(nil)
