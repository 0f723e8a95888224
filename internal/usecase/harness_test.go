package usecase

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"studyagent/internal/domain"
	"studyagent/internal/infrastructure/storage"
	"studyagent/internal/ports"
	"studyagent/internal/session"
)

type fakeFetcher struct {
	records map[string]domain.ContentRecord
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (domain.ContentRecord, error) {
	if f.err != nil {
		return domain.ContentRecord{}, f.err
	}
	if rec, ok := f.records[url]; ok {
		return rec, nil
	}
	return domain.ContentRecord{}, domain.ErrUnsupportedSource
}

type fakeGenerator struct {
	mu               sync.Mutex
	digest           string
	draft            string
	revised          string
	available        bool
	detail           string
	draftErr         error
	summarizeChoices []domain.ModelChoice
	draftCalls       int
	reviseCalls      int
	lastFeedback     string
}

func (g *fakeGenerator) Summarize(ctx context.Context, rec domain.ContentRecord, choice domain.ModelChoice) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.summarizeChoices = append(g.summarizeChoices, choice)
	return g.digest, nil
}

func (g *fakeGenerator) DraftDocument(ctx context.Context, name, description string, choice domain.ModelChoice) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.draftCalls++
	if g.draftErr != nil {
		return "", g.draftErr
	}
	return g.draft, nil
}

func (g *fakeGenerator) ReviseDocument(ctx context.Context, current, feedback string, choice domain.ModelChoice) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reviseCalls++
	g.lastFeedback = feedback
	return g.revised, nil
}

func (g *fakeGenerator) CheckAvailability(ctx context.Context, choice domain.ModelChoice) (bool, string) {
	return g.available, g.detail
}

type sentItem struct {
	chatID   int64
	text     string
	keyboard [][]ports.Button
}

type fakeChannel struct {
	mu     sync.Mutex
	sent   []sentItem
	nextID int64
}

func (c *fakeChannel) record(chatID int64, text string, keyboard [][]ports.Button) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.sent = append(c.sent, sentItem{chatID: chatID, text: text, keyboard: keyboard})
	return c.nextID
}

func (c *fakeChannel) SendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	return c.record(chatID, text, nil), nil
}

func (c *fakeChannel) SendKeyboard(ctx context.Context, chatID int64, text string, keyboard [][]ports.Button) (int64, error) {
	return c.record(chatID, text, keyboard), nil
}

func (c *fakeChannel) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	c.record(chatID, text, nil)
	return nil
}

func (c *fakeChannel) EditKeyboard(ctx context.Context, chatID, messageID int64, text string, keyboard [][]ports.Button) error {
	c.record(chatID, text, keyboard)
	return nil
}

func (c *fakeChannel) DeleteMessage(ctx context.Context, chatID, messageID int64) error { return nil }

func (c *fakeChannel) AnswerCallback(ctx context.Context, callbackID, text string) error { return nil }

// lastText returns the most recent delivered text.
func (c *fakeChannel) lastText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1].text
}

// contains reports whether any delivered text holds the substring.
func (c *fakeChannel) contains(sub string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.sent {
		if strings.Contains(item.text, sub) {
			return true
		}
	}
	return false
}

// buttonData finds the payload of the most recently sent button whose
// data starts with the prefix.
func (c *fakeChannel) buttonData(prefix string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.sent) - 1; i >= 0; i-- {
		for _, row := range c.sent[i].keyboard {
			for _, button := range row {
				if strings.HasPrefix(button.Data, prefix) {
					return button.Data
				}
			}
		}
	}
	return ""
}

type harness struct {
	bot     *Bot
	repo    *storage.Repository
	channel *fakeChannel
	gen     *fakeGenerator
	fetcher *fakeFetcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := storage.NewRepository(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	channel := &fakeChannel{}
	gen := &fakeGenerator{
		digest:    "generated digest",
		draft:     "# Draft\n\ngenerated document",
		revised:   "# Draft\n\nrevised document",
		available: true,
	}
	fetcher := &fakeFetcher{records: map[string]domain.ContentRecord{}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bot := New(
		repo, fetcher, gen, channel,
		session.NewStore(time.Minute), session.NewTokens(time.Minute),
		domain.ModelChoice{Provider: domain.ProviderOllama, Model: "gemma3:12b"},
		logger,
	)

	return &harness{bot: bot, repo: repo, channel: channel, gen: gen, fetcher: fetcher}
}

func (h *harness) addArticleRecord(url string) {
	h.fetcher.records[url] = domain.ContentRecord{
		URL:           url,
		Source:        domain.SourceHabr,
		Title:         "Some article",
		Author:        "author",
		PublishedDate: "2026-01-15",
		Content:       "article body",
		ContentLength: 12,
	}
}

func textEvent(userID int64, text string) ports.Event {
	return ports.Event{UserID: userID, ChatID: userID * 100, Text: text}
}

func callbackEvent(userID int64, data string) ports.Event {
	return ports.Event{
		UserID:       userID,
		ChatID:       userID * 100,
		MessageID:    1,
		CallbackID:   "cb",
		CallbackData: data,
	}
}
