package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	contractx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/agent/contract"
)

// fakeTransport answers each written request with respond(req), or a
// canned line when rawReply is set.
type fakeTransport struct {
	respond  func(req request) string
	rawReply string
	readErr  error

	requests []request
}

func (f *fakeTransport) WriteLine(frame []byte) error {
	var req request
	if err := json.Unmarshal(frame, &req); err != nil {
		return fmt.Errorf("test transport: bad frame: %w", err)
	}
	f.requests = append(f.requests, req)
	return nil
}

func (f *fakeTransport) ReadLine() ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.rawReply != "" {
		return []byte(f.rawReply), nil
	}
	last := f.requests[len(f.requests)-1]
	return []byte(f.respond(last)), nil
}

func resultLine(id int64, result string) string {
	return fmt.Sprintf(`{"id":%d,"result":%s}`, id, result)
}

func toolLine(id int64, inner string) string {
	content, _ := json.Marshal(inner)
	return fmt.Sprintf(`{"id":%d,"result":{"content":[{"type":"text","text":%s}]}}`, id, content)
}

func TestCallAssignsMonotonicIDs(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{respond: func(req request) string {
		return resultLine(req.ID, `{}`)
	}}
	client := NewClient(transport)

	for i := 0; i < 3; i++ {
		if _, err := client.call(context.Background(), "ping", nil); err != nil {
			t.Fatalf("call() error = %v", err)
		}
	}

	for i, req := range transport.requests {
		if req.ID != int64(i+1) {
			t.Fatalf("request[%d].ID = %d, want %d", i, req.ID, i+1)
		}
		if req.JSONRPC != "2.0" {
			t.Fatalf("request[%d].JSONRPC = %q, want 2.0", i, req.JSONRPC)
		}
	}
}

func TestCallServerError(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{respond: func(req request) string {
		return fmt.Sprintf(`{"id":%d,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
	}}
	client := NewClient(transport)

	_, err := client.call(context.Background(), "nope", nil)
	if !errors.Is(err, contractx.ErrRPC) {
		t.Fatalf("call() error = %v, want ErrRPC", err)
	}
}

func TestCallResponseIDMismatch(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{rawReply: `{"id":99,"result":{}}`}
	client := NewClient(transport)

	_, err := client.call(context.Background(), "ping", nil)
	if !errors.Is(err, contractx.ErrDecode) {
		t.Fatalf("call() error = %v, want ErrDecode for id mismatch", err)
	}
}

func TestCallInvalidJSON(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{rawReply: `not json`}
	client := NewClient(transport)

	_, err := client.call(context.Background(), "ping", nil)
	if !errors.Is(err, contractx.ErrDecode) {
		t.Fatalf("call() error = %v, want ErrDecode", err)
	}
}

func TestCallPropagatesTransportFailure(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{readErr: fmt.Errorf("%w: eof", contractx.ErrStreamClosed)}
	client := NewClient(transport)

	_, err := client.call(context.Background(), "ping", nil)
	if !errors.Is(err, contractx.ErrStreamClosed) {
		t.Fatalf("call() error = %v, want ErrStreamClosed", err)
	}
}

func TestGetMessagesDecodesInnerPayload(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{respond: func(req request) string {
		return toolLine(req.ID, `{"messages":[{"id":"2","author":"bob","content":"!ai what time is it"}]}`)
	}}
	client := NewClient(transport)

	messages, err := client.GetMessages(context.Background(), "ch-1", 100)
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("GetMessages() len = %d, want 1", len(messages))
	}
	if messages[0].Author != "bob" {
		t.Fatalf("messages[0].Author = %q, want bob", messages[0].Author)
	}

	req := transport.requests[0]
	if req.Method != "tools/call" {
		t.Fatalf("request.Method = %q, want tools/call", req.Method)
	}
	params, ok := req.Params.(map[string]any)
	if !ok {
		t.Fatalf("request.Params has unexpected type %T", req.Params)
	}
	if params["name"] != "read_discord_messages" {
		t.Fatalf("params.name = %v, want read_discord_messages", params["name"])
	}
	args, ok := params["arguments"].(map[string]any)
	if !ok {
		t.Fatalf("params.arguments has unexpected type %T", params["arguments"])
	}
	if args["channel_id"] != "ch-1" {
		t.Fatalf("arguments.channel_id = %v, want ch-1", args["channel_id"])
	}
	if args["limit"] != float64(100) {
		t.Fatalf("arguments.limit = %v, want 100", args["limit"])
	}
}

func TestGetMessagesMalformedInnerPayload(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{respond: func(req request) string {
		return toolLine(req.ID, `{broken`)
	}}
	client := NewClient(transport)

	messages, err := client.GetMessages(context.Background(), "ch-1", 100)
	if err != nil {
		t.Fatalf("GetMessages() error = %v, want nil for malformed payload", err)
	}
	if len(messages) != 0 {
		t.Fatalf("GetMessages() len = %d, want empty", len(messages))
	}
}

func TestSendMessageArguments(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{respond: func(req request) string {
		return resultLine(req.ID, `{"content":[]}`)
	}}
	client := NewClient(transport)

	if err := client.SendMessage(context.Background(), "ch-1", "hello"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	params := transport.requests[0].Params.(map[string]any)
	if params["name"] != "send_discord_message" {
		t.Fatalf("params.name = %v, want send_discord_message", params["name"])
	}
	args := params["arguments"].(map[string]any)
	if args["message"] != "hello" {
		t.Fatalf("arguments.message = %v, want hello", args["message"])
	}
}

func TestListChannels(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{respond: func(req request) string {
		return toolLine(req.ID, `{"channels":[{"id":"1","name":"general","guild":"dev"}]}`)
	}}
	client := NewClient(transport)

	channels, err := client.ListChannels(context.Background())
	if err != nil {
		t.Fatalf("ListChannels() error = %v", err)
	}
	if len(channels) != 1 {
		t.Fatalf("ListChannels() len = %d, want 1", len(channels))
	}
	if channels[0].Name != "general" || channels[0].Guild != "dev" {
		t.Fatalf("channels[0] = %+v, want general/dev", channels[0])
	}
}

func TestCallCancelledContext(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{respond: func(req request) string {
		return resultLine(req.ID, `{}`)
	}}
	client := NewClient(transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.call(ctx, "ping", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("call() error = %v, want context.Canceled", err)
	}
	if len(transport.requests) != 0 {
		t.Fatal("no request must be written after cancellation")
	}
}
