package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/contract"
	llmx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/llm"
	mcpx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/mcp"
	orchestratorx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/orchestrator"
	promptx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/prompt"
	transportx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/transport"
	configx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/pkg/config"
	_ "github.com/tanpawarit/Discord-MCP-Conversational-Relay/pkg/logger/autoload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("bot terminated")
	}
	log.Info().Msg("bot shut down")
}

func run(ctx context.Context) error {
	llmCfg := configx.MustNew[llmx.Config]("OLLAMA")
	generator, err := llmCfg.NewGenerator()
	if err != nil {
		return err
	}

	log.Info().
		Str("model", llmCfg.Model).
		Str("backend", string(llmCfg.Backend)).
		Msg("initializing bot")

	if ollamaGen, ok := generator.(*llmx.OllamaGenerator); ok {
		if err := ollamaGen.EnsureModel(ctx); err != nil {
			return fmt.Errorf("ensure model available: %w", err)
		}
	}

	mcpCfg := configx.MustNew[transportx.Config]("MCP")
	trans, err := transportx.NewStdio(mcpCfg.ServerCommand)
	if err != nil {
		return err
	}
	if err := trans.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := trans.Stop(); err != nil {
			log.Error().Err(err).Msg("stop tool process")
		}
	}()

	var tools contractx.ToolClient = mcpx.NewClient(trans)

	systemPrompt := promptx.Load(*configx.MustNew[promptx.Config](""))

	bot, err := orchestratorx.New(tools, generator, systemPrompt, *configx.MustNew[orchestratorx.Config](""))
	if err != nil {
		return err
	}

	return bot.Run(ctx)
}
