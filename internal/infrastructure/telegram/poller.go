package telegram

import (
	"context"
	"errors"
	"time"

	"studyagent/internal/ports"
)

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64  `json:"message_id"`
		Text      string `json:"text"`
		From      *struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
	CallbackQuery *struct {
		ID   string `json:"id"`
		Data string `json:"data"`
		From struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Message *struct {
			MessageID int64 `json:"message_id"`
			Chat      struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

// Poll runs the long-poll loop until the context is cancelled, handing
// each inbound update to handle as a channel-agnostic event.
func (c *Client) Poll(ctx context.Context, timeoutSeconds int, handle func(ports.Event)) error {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}

	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var updates []update
		err := c.call(ctx, "getUpdates", map[string]any{
			"offset":          offset,
			"timeout":         timeoutSeconds,
			"allowed_updates": []string{"message", "callback_query"},
		}, &updates)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.logger.Warn("poll failed", "error", err)
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if event, ok := toEvent(u); ok {
				handle(event)
			}
		}
	}
}

func toEvent(u update) (ports.Event, bool) {
	if u.Message != nil && u.Message.From != nil {
		return ports.Event{
			UserID:    u.Message.From.ID,
			ChatID:    u.Message.Chat.ID,
			MessageID: u.Message.MessageID,
			Text:      u.Message.Text,
		}, true
	}

	if u.CallbackQuery != nil && u.CallbackQuery.Message != nil {
		return ports.Event{
			UserID:       u.CallbackQuery.From.ID,
			ChatID:       u.CallbackQuery.Message.Chat.ID,
			MessageID:    u.CallbackQuery.Message.MessageID,
			CallbackID:   u.CallbackQuery.ID,
			CallbackData: u.CallbackQuery.Data,
		}, true
	}

	return ports.Event{}, false
}
