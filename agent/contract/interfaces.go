package contract

import "context"

// ToolClient is the surface of the external tool process used by the
// orchestrator. Implementations allow at most one call in flight.
type ToolClient interface {
	GetMessages(ctx context.Context, channelID string, limit int) ([]Message, error)
	SendMessage(ctx context.Context, channelID string, text string) error
	ListChannels(ctx context.Context) ([]Channel, error)
}

// Generator produces a reply for an ordered conversation context.
type Generator interface {
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
}
