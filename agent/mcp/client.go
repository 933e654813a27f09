package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/contract"
)

// Tool names exposed by the Discord tool process.
const (
	toolReadMessages = "read_discord_messages"
	toolSendMessage  = "send_discord_message"
	toolListChannels = "list_discord_channels"
)

// Transport provides the line framing the client correlates over.
type Transport interface {
	WriteLine(frame []byte) error
	ReadLine() ([]byte, error)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolResult is the outer shape of a tools/call result. The payload of
// read/list operations is a JSON document nested in Content[0].Text.
type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (r toolResult) text() string {
	if len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

// Client correlates JSON-RPC requests with responses over a line
// transport. Request ids increase monotonically from 1 and are never
// reused. A mutex enforces the one-outstanding-call invariant: the
// next line read is the response to the request just written, and the
// response id is checked against the request id to catch a tool
// process that interleaves unsolicited output on the protocol stream.
type Client struct {
	mu        sync.Mutex
	transport Transport
	nextID    int64
}

func NewClient(t Transport) *Client {
	return &Client{transport: t}
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.nextID++
	id := c.nextID

	payload, err := json.Marshal(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if err := c.transport.WriteLine(payload); err != nil {
		return nil, err
	}

	line, err := c.transport.ReadLine()
	if err != nil {
		return nil, err
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrDecode, err)
	}
	if resp.ID != id {
		return nil, fmt.Errorf("%w: response id %d does not match request id %d", contractx.ErrDecode, resp.ID, id)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s (code %d)", contractx.ErrRPC, resp.Error.Message, resp.Error.Code)
	}
	return resp.Result, nil
}

func (c *Client) callTool(ctx context.Context, name string, args map[string]any) (toolResult, error) {
	raw, err := c.call(ctx, "tools/call", map[string]any{"name": name, "arguments": args})
	if err != nil {
		return toolResult{}, err
	}

	var res toolResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return toolResult{}, fmt.Errorf("%w: tool result for %s: %v", contractx.ErrDecode, name, err)
	}
	return res, nil
}

// GetMessages fetches up to limit recent messages for a channel. A
// garbled inner payload degrades to an empty window so a single bad
// fetch cannot kill the polling loop.
func (c *Client) GetMessages(ctx context.Context, channelID string, limit int) ([]contractx.Message, error) {
	res, err := c.callTool(ctx, toolReadMessages, map[string]any{
		"channel_id": channelID,
		"limit":      limit,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Messages []contractx.Message `json:"messages"`
	}
	if err := json.Unmarshal([]byte(res.text()), &payload); err != nil {
		log.Warn().Err(err).Str("channel", channelID).Msg("malformed message payload, treating as empty")
		return nil, nil
	}
	return payload.Messages, nil
}

// SendMessage posts text to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID string, text string) error {
	_, err := c.callTool(ctx, toolSendMessage, map[string]any{
		"channel_id": channelID,
		"message":    text,
	})
	return err
}

// ListChannels returns every channel visible to the tool process.
func (c *Client) ListChannels(ctx context.Context) ([]contractx.Channel, error) {
	res, err := c.callTool(ctx, toolListChannels, map[string]any{})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Channels []contractx.Channel `json:"channels"`
	}
	if err := json.Unmarshal([]byte(res.text()), &payload); err != nil {
		log.Warn().Err(err).Msg("malformed channel payload, treating as empty")
		return nil, nil
	}
	return payload.Channels, nil
}

var _ contractx.ToolClient = (*Client)(nil)
