package ports

import (
	"context"

	"studyagent/internal/domain"
)

// ContentFetcher scrapes a supported URL into a structured record.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (domain.ContentRecord, error)
}

// Generator runs model calls: digests for captures, drafts and revisions
// for idea documents, plus the availability probe gating model selection.
type Generator interface {
	Summarize(ctx context.Context, rec domain.ContentRecord, choice domain.ModelChoice) (string, error)
	DraftDocument(ctx context.Context, name, description string, choice domain.ModelChoice) (string, error)
	ReviseDocument(ctx context.Context, current, feedback string, choice domain.ModelChoice) (string, error)
	CheckAvailability(ctx context.Context, choice domain.ModelChoice) (bool, string)
}

// Store is the persistence contract. Business-rule misses (ownership
// mismatch, duplicate link, missing row) come back as false/nil/empty
// with a nil error; only unexpected storage failures return an error.
type Store interface {
	Init(ctx context.Context) error

	ArticleExists(ctx context.Context, url string) (bool, error)
	CachedDigest(ctx context.Context, url string) (string, bool, error)
	ArticleByURL(ctx context.Context, url string) (*domain.Article, error)
	ArticleByID(ctx context.Context, id int64) (*domain.Article, error)
	SaveArticle(ctx context.Context, rec domain.ContentRecord, digest, model string, ownerID int64) (int64, error)
	UpdateArticleDigest(ctx context.Context, url, digest, model string) (bool, error)
	DeleteArticle(ctx context.Context, id int64) (bool, error)
	ArticlesForOwner(ctx context.Context, ownerID int64) ([]domain.Article, error)

	CreateIdea(ctx context.Context, name, description string, ownerID int64) (int64, error)
	IdeasForOwner(ctx context.Context, ownerID int64) ([]domain.Idea, error)
	Idea(ctx context.Context, id, ownerID int64) (*domain.Idea, error)
	UpdateIdea(ctx context.Context, id, ownerID int64, name, description *string) (bool, error)
	DeleteIdea(ctx context.Context, id, ownerID int64) (bool, error)

	LinkArticleToIdea(ctx context.Context, articleID, ideaID, ownerID int64) (bool, error)
	UnlinkArticleFromIdea(ctx context.Context, articleID, ideaID, ownerID int64) (bool, error)
	ArticlesForIdea(ctx context.Context, ideaID, ownerID int64) ([]domain.LinkedArticle, error)
	IdeasForArticle(ctx context.Context, articleID, ownerID int64) ([]domain.Idea, error)

	IdeaDocument(ctx context.Context, ideaID, ownerID int64) (string, bool, error)
	SetIdeaDocument(ctx context.Context, ideaID, ownerID int64, text string) (bool, error)
}

// Button is one inline-keyboard cell: a label shown to the user and an
// opaque callback payload routed back through the channel.
type Button struct {
	Label string
	Data  string
}

// Event is a channel-agnostic inbound interaction. Text events carry
// message text; button presses carry CallbackID plus CallbackData.
type Event struct {
	UserID       int64
	ChatID       int64
	MessageID    int64
	Text         string
	CallbackID   string
	CallbackData string
}

// IsCallback reports whether the event is a button press.
func (e Event) IsCallback() bool {
	return e.CallbackID != ""
}

// Channel delivers outbound messages and keyboards to the conversation
// transport. SendMessage returns the delivered message id so flows can
// edit or delete status messages later.
type Channel interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int64, error)
	SendKeyboard(ctx context.Context, chatID int64, text string, keyboard [][]Button) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string) error
	EditKeyboard(ctx context.Context, chatID, messageID int64, text string, keyboard [][]Button) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
