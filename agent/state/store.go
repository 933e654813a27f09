package state

import (
	"fmt"

	contractx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/contract"
)

// Store accumulates per-channel conversation history with exactly-once
// ingestion. Channel state is created lazily on first sight and lives
// for the process lifetime; the processed set only ever grows. The
// store is owned by the orchestrator's single control flow and needs
// no locking.
type Store struct {
	history   map[string][]contractx.Message
	processed map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		history:   make(map[string][]contractx.Message),
		processed: make(map[string]struct{}),
	}
}

// compositeKey is the unit of message identity used for deduplication.
func compositeKey(channelID, messageID string) string {
	return channelID + ":" + messageID
}

// Seen reports whether a message has already been ingested or marked.
func (s *Store) Seen(channelID, messageID string) bool {
	_, ok := s.processed[compositeKey(channelID, messageID)]
	return ok
}

// MarkProcessed records a message id without storing it, so a message
// that failed the trigger filter is never reconsidered but also never
// pollutes the transcript.
func (s *Store) MarkProcessed(channelID, messageID string) {
	s.processed[compositeKey(channelID, messageID)] = struct{}{}
}

// Ingest appends each message in arrival order iff its composite key
// is new, marking it processed in the same step. Overlapping fetch
// windows therefore merge without duplicates. Returns the number of
// messages appended.
func (s *Store) Ingest(channelID string, messages []contractx.Message) int {
	appended := 0
	for _, msg := range messages {
		key := compositeKey(channelID, msg.ID)
		if _, ok := s.processed[key]; ok {
			continue
		}
		s.history[channelID] = append(s.history[channelID], msg)
		s.processed[key] = struct{}{}
		appended++
	}
	return appended
}

// History returns the stored messages for a channel in arrival order.
func (s *Store) History(channelID string) []contractx.Message {
	return s.history[channelID]
}

// BuildContext renders the system entry followed by the channel's
// entire history as attributed lines. Nothing is truncated or
// summarized: the full accumulated transcript goes to the backend on
// every call, exactly as the conversation design intends.
func (s *Store) BuildContext(channelID string, systemPrompt string) []contractx.ChatMessage {
	history := s.history[channelID]

	context := make([]contractx.ChatMessage, 0, len(history)+1)
	context = append(context, contractx.ChatMessage{
		Role:    contractx.RoleSystem,
		Content: systemPrompt,
	})
	for _, msg := range history {
		context = append(context, contractx.ChatMessage{
			Role:    contractx.RoleUser,
			Content: fmt.Sprintf("[%s]: %s", msg.Author, msg.Content),
		})
	}
	return context
}
