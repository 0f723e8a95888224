package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"studyagent/internal/ports"
)

const messageLimit = 4000

// Client talks to the Telegram Bot API over plain HTTP.
type Client struct {
	token  string
	base   string
	http   *http.Client
	logger *slog.Logger
}

var _ ports.Channel = (*Client)(nil)

// NewClient registers the bot token.
func NewClient(token string, logger *slog.Logger) *Client {
	return &Client{
		token:  token,
		base:   "https://api.telegram.org",
		http:   &http.Client{Timeout: 90 * time.Second},
		logger: logger,
	}
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sentMessage struct {
	MessageID int64 `json:"message_id"`
}

// SendMessage delivers text, splitting anything past the Bot API size
// limit into chunks on blank-line boundaries. Returns the id of the last
// delivered chunk.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	var lastID int64
	for _, chunk := range splitMessage(text, messageLimit) {
		var sent sentMessage
		err := c.call(ctx, "sendMessage", map[string]any{
			"chat_id": chatID,
			"text":    chunk,
		}, &sent)
		if err != nil {
			return 0, err
		}
		lastID = sent.MessageID
	}
	return lastID, nil
}

// SendKeyboard delivers text with an inline keyboard attached.
func (c *Client) SendKeyboard(ctx context.Context, chatID int64, text string, keyboard [][]ports.Button) (int64, error) {
	var sent sentMessage
	err := c.call(ctx, "sendMessage", map[string]any{
		"chat_id":      chatID,
		"text":         text,
		"reply_markup": toMarkup(keyboard),
	}, &sent)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// EditMessage replaces a previously sent message's text.
func (c *Client) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	return c.call(ctx, "editMessageText", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}, nil)
}

// EditKeyboard replaces both text and keyboard of a sent message; the
// linking flows use it to re-render toggle state after every press.
func (c *Client) EditKeyboard(ctx context.Context, chatID, messageID int64, text string, keyboard [][]ports.Button) error {
	return c.call(ctx, "editMessageText", map[string]any{
		"chat_id":      chatID,
		"message_id":   messageID,
		"text":         text,
		"reply_markup": toMarkup(keyboard),
	}, nil)
}

// DeleteMessage removes a sent message, ignoring "already gone" failures.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	err := c.call(ctx, "deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}, nil)
	if err != nil {
		c.logger.Debug("delete message failed", "chat", chatID, "message", messageID, "error", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press, optionally with a toast.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

func toMarkup(keyboard [][]ports.Button) replyMarkup {
	markup := replyMarkup{InlineKeyboard: make([][]inlineButton, 0, len(keyboard))}
	for _, row := range keyboard {
		buttons := make([]inlineButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, inlineButton{Text: b.Label, CallbackData: b.Data})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}

// splitMessage cuts text into chunks no longer than limit, preferring
// blank-line boundaries so paragraphs stay whole.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, paragraph := range strings.Split(text, "\n\n") {
		for len(paragraph) > limit {
			// A single oversized paragraph still has to be cut somewhere.
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, paragraph[:limit])
			paragraph = paragraph[limit:]
		}

		if current.Len()+len(paragraph)+2 > limit && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, payload map[string]any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.base, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse %s response: %w", method, err)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram %s error: %s", method, parsed.Description)
	}

	if result != nil && len(parsed.Result) > 0 {
		if err := json.Unmarshal(parsed.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}
