package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/contract"
	statex "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/state"
)

const previewLen = 50

// Config carries the polling surface. Env names match the original
// deployment surface of the bot.
type Config struct {
	Channels     []string      `envconfig:"MONITORED_CHANNEL_IDS"`
	Trigger      string        `envconfig:"BOT_TRIGGER_PREFIX" default:"!ai"`
	PollInterval time.Duration `envconfig:"BOT_POLL_INTERVAL" default:"3s"`
	FetchLimit   int           `envconfig:"BOT_FETCH_LIMIT" default:"100"`
}

// Orchestrator runs the polling state machine: fetch, dedup, trigger
// filter, merge, generate, reply — strictly sequentially, one channel
// at a time, one tool call outstanding at a time. It is the sole owner
// of the conversation store.
type Orchestrator struct {
	tools     contractx.ToolClient
	generator contractx.Generator
	store     *statex.Store

	channels     []string
	trigger      string
	systemPrompt string
	pollInterval time.Duration
	fetchLimit   int
}

func New(tools contractx.ToolClient, generator contractx.Generator, systemPrompt string, cfg Config) (*Orchestrator, error) {
	if tools == nil {
		return nil, errors.New("tool client is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}

	trigger := strings.TrimSpace(cfg.Trigger)
	if trigger == "" {
		trigger = "!ai"
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	fetchLimit := cfg.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = 100
	}

	channels := make([]string, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		if trimmed := strings.TrimSpace(ch); trimmed != "" {
			channels = append(channels, trimmed)
		}
	}

	return &Orchestrator{
		tools:        tools,
		generator:    generator,
		store:        statex.NewStore(),
		channels:     channels,
		trigger:      trigger,
		systemPrompt: systemPrompt,
		pollInterval: pollInterval,
		fetchLimit:   fetchLimit,
	}, nil
}

// Run polls every monitored channel until ctx is cancelled or the tool
// process dies. With no channels configured it lists the visible
// channels once and returns, so an operator can fill in the config.
func (o *Orchestrator) Run(ctx context.Context) error {
	if len(o.channels) == 0 {
		return o.listChannels(ctx)
	}

	log.Info().
		Int("channels", len(o.channels)).
		Str("trigger", o.trigger).
		Dur("poll_interval", o.pollInterval).
		Msg("starting monitoring loop")

	for {
		for _, channelID := range o.channels {
			if err := o.processChannel(ctx, channelID); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.pollInterval):
		}
	}
}

// processChannel runs one poll iteration for one channel. Only a dead
// tool process (or cancellation) is returned as an error; everything
// else abandons this channel's cycle and lets the loop continue.
func (o *Orchestrator) processChannel(ctx context.Context, channelID string) error {
	messages, err := o.tools.GetMessages(ctx, channelID, o.fetchLimit)
	if err != nil {
		if errors.Is(err, contractx.ErrStreamClosed) || errors.Is(err, context.Canceled) {
			return err
		}
		log.Error().Err(err).Str("channel", channelID).Msg("fetch failed, skipping channel")
		return nil
	}
	if len(messages) == 0 {
		return nil
	}

	last := messages[len(messages)-1]
	if o.store.Seen(channelID, last.ID) {
		return nil
	}

	if !strings.HasPrefix(last.Content, o.trigger) {
		o.store.MarkProcessed(channelID, last.ID)
		return nil
	}

	log.Info().
		Str("channel", channelID).
		Str("author", last.Author).
		Str("content", preview(last.Content)).
		Int("fetched", len(messages)).
		Msg("trigger message received")

	// Strip the trigger before the window is merged, so the transcript
	// carries the question, not the invocation. Ingesting the whole
	// window backfills anything missed between polls.
	messages[len(messages)-1].Content = strings.TrimSpace(strings.TrimPrefix(last.Content, o.trigger))
	o.store.Ingest(channelID, messages)

	convo := o.store.BuildContext(channelID, o.systemPrompt)
	log.Debug().Str("channel", channelID).Int("context_entries", len(convo)).Msg("generating response")

	reply := o.generate(ctx, convo)

	if err := o.tools.SendMessage(ctx, channelID, reply); err != nil {
		if errors.Is(err, contractx.ErrStreamClosed) || errors.Is(err, context.Canceled) {
			return err
		}
		log.Error().Err(err).Str("channel", channelID).Msg("send failed")
		return nil
	}

	log.Info().Str("channel", channelID).Msg("response sent")
	return nil
}

// generate never propagates a backend failure: the conversation gets
// an error string instead of silently stalling.
func (o *Orchestrator) generate(ctx context.Context, convo []contractx.ChatMessage) string {
	reply, err := o.generator.Chat(ctx, convo)
	if err != nil {
		log.Error().Err(err).Msg("generation failed")
		return fmt.Sprintf("Error generating response: %v", err)
	}
	return reply
}

func (o *Orchestrator) listChannels(ctx context.Context) error {
	log.Warn().Msg("no channels configured, listing visible channels")

	channels, err := o.tools.ListChannels(ctx)
	if err != nil {
		return err
	}

	for _, ch := range channels {
		log.Info().Str("id", ch.ID).Str("guild", ch.Guild).Str("name", ch.Name).Msg("visible channel")
	}
	log.Info().Msg("set MONITORED_CHANNEL_IDS and restart to begin monitoring")
	return nil
}

func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	return s[:previewLen] + "..."
}
