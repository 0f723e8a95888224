package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studyagent/internal/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("test-token", slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.base = server.URL
	return client
}

func TestSendMessageChunksLongText(t *testing.T) {
	t.Parallel()

	var sent []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		sent = append(sent, payload["text"].(string))
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": len(sent)},
		})
	})

	long := strings.Repeat("paragraph one\n\n", 400) // well past one chunk
	id, err := client.SendMessage(context.Background(), 42, long)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sent) < 2 {
		t.Fatalf("chunks = %d, want at least 2", len(sent))
	}
	if id != int64(len(sent)) {
		t.Fatalf("returned id %d, want id of last chunk %d", id, len(sent))
	}
	for i, chunk := range sent {
		if len(chunk) > messageLimit {
			t.Fatalf("chunk %d is %d bytes, over the limit", i, len(chunk))
		}
	}
}

func TestCallSurfacesAPIError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "chat not found"})
	})

	_, err := client.SendMessage(context.Background(), 42, "hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v, want API description surfaced", err)
	}
}

func TestSendKeyboardMarkup(t *testing.T) {
	t.Parallel()

	var markup replyMarkup
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			ReplyMarkup replyMarkup `json:"reply_markup"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		markup = payload.ReplyMarkup
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 5},
		})
	})

	id, err := client.SendKeyboard(context.Background(), 42, "pick", [][]ports.Button{
		{{Label: "A", Data: "cb:a"}, {Label: "B", Data: "cb:b"}},
		{{Label: "Done", Data: "done"}},
	})
	if err != nil {
		t.Fatalf("send keyboard: %v", err)
	}
	if id != 5 {
		t.Fatalf("id = %d", id)
	}
	if len(markup.InlineKeyboard) != 2 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("markup = %+v", markup)
	}
	if markup.InlineKeyboard[0][1].CallbackData != "cb:b" {
		t.Fatalf("callback data = %q", markup.InlineKeyboard[0][1].CallbackData)
	}
}

func TestDeleteMessageIgnoresFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "message to delete not found"})
	})

	if err := client.DeleteMessage(context.Background(), 42, 9); err != nil {
		t.Fatalf("delete must swallow failures, got %v", err)
	}
}

func TestSplitMessageShortTextUntouched(t *testing.T) {
	t.Parallel()

	chunks := splitMessage("short", messageLimit)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestSplitMessagePrefersParagraphs(t *testing.T) {
	t.Parallel()

	a := strings.Repeat("a", 30)
	b := strings.Repeat("b", 30)
	chunks := splitMessage(a+"\n\n"+b, 40)
	if len(chunks) != 2 || chunks[0] != a || chunks[1] != b {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestSplitMessageCutsOversizedParagraph(t *testing.T) {
	t.Parallel()

	chunks := splitMessage(strings.Repeat("x", 95), 40)
	var total int
	for _, chunk := range chunks {
		if len(chunk) > 40 {
			t.Fatalf("chunk over limit: %d", len(chunk))
		}
		total += len(chunk)
	}
	if total != 95 {
		t.Fatalf("lost content: %d of 95", total)
	}
}
