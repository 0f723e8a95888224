package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studyagent/internal/ports"
)

func TestPollConvertsUpdates(t *testing.T) {
	t.Parallel()

	var offsets []float64
	var cancel context.CancelFunc
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/getUpdates") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		offsets = append(offsets, payload["offset"].(float64))

		if len(offsets) > 1 {
			// Second poll carries the advanced offset; stop the loop here.
			cancel()
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": []any{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{
					"update_id": 10,
					"message": map[string]any{
						"message_id": 1,
						"text":       "hello",
						"from":       map[string]any{"id": 7},
						"chat":       map[string]any{"id": 700},
					},
				},
				{
					"update_id": 11,
					"callback_query": map[string]any{
						"id":   "cb1",
						"data": "view-idea:3",
						"from": map[string]any{"id": 7},
						"message": map[string]any{
							"message_id": 2,
							"chat":       map[string]any{"id": 700},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient("token", slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.base = server.URL

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	cancel = stop

	var events []ports.Event
	err := client.Poll(ctx, 1, func(ev ports.Event) {
		events = append(events, ev)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("poll returned %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].UserID != 7 || events[0].Text != "hello" || events[0].IsCallback() {
		t.Fatalf("message event = %+v", events[0])
	}
	if events[1].CallbackData != "view-idea:3" || !events[1].IsCallback() {
		t.Fatalf("callback event = %+v", events[1])
	}
	if len(offsets) < 2 || offsets[1] != 12 {
		t.Fatalf("offsets = %v, want advance past last update", offsets)
	}
}
