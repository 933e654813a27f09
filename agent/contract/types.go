package contract

// Role values for generation context entries.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one Discord message as reported by the tool process.
// Identity is the (channel, id) pair; ids are not globally unique.
type Message struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Content string `json:"content"`
	Channel string `json:"channel,omitempty"`
}

// Channel describes a Discord channel visible to the tool process.
type Channel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Guild string `json:"guild"`
}

// ChatMessage is one entry of the context sent to the generation backend.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
