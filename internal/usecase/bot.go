// Package usecase implements the conversational flows: link capture with
// duplicate resolution, model selection, the idea lifecycle, article-idea
// linking and the document drafting loop. Each inbound event is classified
// here and handed to the flow whose pending state, if any, matches.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"studyagent/internal/domain"
	"studyagent/internal/ports"
	"studyagent/internal/session"
)

// Bot drives all flows over an abstract conversation channel.
type Bot struct {
	store    ports.Store
	fetcher  ports.ContentFetcher
	gen      ports.Generator
	channel  ports.Channel
	sessions *session.Store
	tokens   *session.Tokens
	defaults domain.ModelChoice
	logger   *slog.Logger

	prefMu sync.Mutex
	prefs  map[prefKey]domain.ModelChoice
}

// New wires the flows to their collaborators.
func New(
	store ports.Store,
	fetcher ports.ContentFetcher,
	gen ports.Generator,
	channel ports.Channel,
	sessions *session.Store,
	tokens *session.Tokens,
	defaults domain.ModelChoice,
	logger *slog.Logger,
) *Bot {
	return &Bot{
		store:    store,
		fetcher:  fetcher,
		gen:      gen,
		channel:  channel,
		sessions: sessions,
		tokens:   tokens,
		defaults: defaults,
		logger:   logger,
		prefs:    map[prefKey]domain.ModelChoice{},
	}
}

var urlExpr = regexp.MustCompile(`https?://\S+`)

// HandleEvent classifies one inbound event and runs it to completion.
func (b *Bot) HandleEvent(ctx context.Context, ev ports.Event) {
	if ev.IsCallback() {
		b.handleCallback(ctx, ev)
		return
	}
	b.handleText(ctx, ev)
}

func (b *Bot) handleText(ctx context.Context, ev ports.Event) {
	text := strings.TrimSpace(ev.Text)

	if cmd, ok := parseCommand(text); ok && cmd != "skip" {
		// Any command cancels a pending one-shot model name capture.
		b.sessions.Clear(ev.UserID, session.KindModelSelect)
		b.handleCommand(ctx, ev, cmd)
		return
	}

	if state, ok := b.sessions.Get(ev.UserID, session.KindModelSelect); ok {
		b.captureModelName(ctx, ev, state.(modelSelectState), text)
		return
	}
	if state, ok := b.sessions.Get(ev.UserID, session.KindIdeaCreate); ok {
		b.continueIdeaCreate(ctx, ev, state.(ideaCreateState), text)
		return
	}
	if state, ok := b.sessions.Get(ev.UserID, session.KindIdeaEdit); ok {
		b.continueIdeaEdit(ctx, ev, state.(ideaEditState), text)
		return
	}
	if state, ok := b.sessions.Get(ev.UserID, session.KindDraft); ok {
		if ds := state.(draftState); ds.Step == draftAwaitingFeedback {
			b.continueDraftFeedback(ctx, ev, ds, ev.Text)
			return
		}
	}

	if url := urlExpr.FindString(text); url != "" {
		b.handleURL(ctx, ev, url)
		return
	}

	b.send(ctx, ev.ChatID, msgUnknown)
}

func (b *Bot) handleCommand(ctx context.Context, ev ports.Event, cmd string) {
	switch cmd {
	case "start":
		b.send(ctx, ev.ChatID, msgStart)
	case "help":
		b.send(ctx, ev.ChatID, msgHelp)
	case "choose_model":
		b.startModelSelection(ctx, ev)
	case "new_idea":
		b.startIdeaCreate(ctx, ev)
	case "list_ideas":
		b.listIdeas(ctx, ev)
	case "list_articles":
		b.listArticles(ctx, ev)
	default:
		b.send(ctx, ev.ChatID, msgUnknown)
	}
}

func (b *Bot) handleCallback(ctx context.Context, ev ports.Event) {
	if err := b.channel.AnswerCallback(ctx, ev.CallbackID, ""); err != nil {
		b.logger.Debug("answer callback failed", "error", err)
	}

	action, args, _ := strings.Cut(ev.CallbackData, ":")
	switch action {
	case "cache":
		b.resolveDuplicateChoice(ctx, ev, args)
	case "model-provider":
		b.captureProviderChoice(ctx, ev, args)
	case "toggle-link", "toggle-reassign", "toggle-assign-list":
		b.toggleLinkCandidate(ctx, ev, args)
	case "link-done":
		b.finishCaptureLinking(ctx, ev)
	case "link-skip":
		b.skipCaptureLinking(ctx, ev)
	case "reassign":
		b.startReassign(ctx, ev, args)
	case "reassign-done":
		b.finishReassign(ctx, ev)
	case "reassign-cancel", "assign-list-cancel":
		b.cancelLinking(ctx, ev)
	case "assign-list":
		b.startAssignFromList(ctx, ev, args)
	case "assign-list-done":
		b.finishAssignFromList(ctx, ev)
	case "view-idea":
		b.viewIdea(ctx, ev, args)
	case "idea-articles":
		b.listIdeaArticles(ctx, ev, args)
	case "show-summary":
		b.showArticleSummary(ctx, ev, args)
	case "unlink":
		b.unlinkArticle(ctx, ev, args)
	case "edit-idea":
		b.startIdeaEdit(ctx, ev, args)
	case "delete-idea":
		b.startIdeaDelete(ctx, ev, args)
	case "confirm-delete":
		b.confirmIdeaDelete(ctx, ev, args)
	case "cancel-delete":
		b.cancelIdeaDelete(ctx, ev)
	case "gen-doc", "regen-doc":
		b.startDraftByArg(ctx, ev, args)
	case "approve-doc":
		b.approveDraft(ctx, ev, args)
	case "revise-doc":
		b.requestDraftFeedback(ctx, ev, args)
	default:
		b.logger.Debug("unknown callback", "data", ev.CallbackData)
	}
}

// send delivers plain text and logs delivery failures instead of
// propagating them; a lost chat message never aborts a flow.
func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if _, err := b.channel.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Warn("send failed", "chat", chatID, "error", err)
	}
}

func (b *Bot) sendKeyboard(ctx context.Context, chatID int64, text string, keyboard [][]ports.Button) (int64, bool) {
	id, err := b.channel.SendKeyboard(ctx, chatID, text, keyboard)
	if err != nil {
		b.logger.Warn("send keyboard failed", "chat", chatID, "error", err)
		return 0, false
	}
	return id, true
}

// reportError converts a taxonomy error into a user-facing message;
// anything unrecognized is treated as a storage fault and logged.
func (b *Bot) reportError(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedSource):
		b.send(ctx, chatID, msgUnsupportedSource)
	case errors.Is(err, domain.ErrFetchFailed):
		b.send(ctx, chatID, "I could not fetch the page: "+err.Error())
	case errors.Is(err, domain.ErrGenerationFailed):
		b.send(ctx, chatID, "The model call failed: "+err.Error())
	default:
		b.logger.Error("storage fault", "error", err)
		b.send(ctx, chatID, msgStorageFault)
	}
}

// readableArticle loads an article the user may see: their own or an
// ownerless one. Anything else reads as absent.
func (b *Bot) readableArticle(ctx context.Context, articleID, userID int64) (*domain.Article, error) {
	article, err := b.store.ArticleByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article == nil || (article.OwnerID != 0 && article.OwnerID != userID) {
		return nil, nil
	}
	return article, nil
}

func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.TrimPrefix(strings.Fields(text)[0], "/")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), cmd != ""
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

func parseIDPair(s string) (int64, int64, bool) {
	first, rest, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	a, okA := parseID(first)
	b, okB := parseID(rest)
	return a, b, okA && okB
}
