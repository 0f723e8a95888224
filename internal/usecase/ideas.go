package usecase

import (
	"context"
	"fmt"
	"strings"

	"studyagent/internal/ports"
	"studyagent/internal/session"
)

type ideaStep int

const (
	stepName ideaStep = iota
	stepDescription
)

type ideaCreateState struct {
	Step ideaStep
	Name string
}

type ideaEditState struct {
	IdeaID int64
	Step   ideaStep
	Name   *string
}

type ideaDeleteState struct {
	IdeaID int64
}

const skipSentinel = "/skip"

func (b *Bot) startIdeaCreate(ctx context.Context, ev ports.Event) {
	b.sessions.Put(ev.UserID, session.KindIdeaCreate, ideaCreateState{Step: stepName})
	b.send(ctx, ev.ChatID, msgIdeaNamePrompt)
}

func (b *Bot) continueIdeaCreate(ctx context.Context, ev ports.Event, state ideaCreateState, text string) {
	switch state.Step {
	case stepName:
		if text == "" || text == skipSentinel {
			// The name step loops in place until a usable name arrives.
			b.sessions.Put(ev.UserID, session.KindIdeaCreate, state)
			b.send(ctx, ev.ChatID, msgIdeaNameEmpty)
			return
		}
		b.sessions.Put(ev.UserID, session.KindIdeaCreate, ideaCreateState{Step: stepDescription, Name: text})
		b.send(ctx, ev.ChatID, msgIdeaDescriptionPrompt)

	case stepDescription:
		b.sessions.Clear(ev.UserID, session.KindIdeaCreate)
		description := text
		if description == skipSentinel {
			description = ""
		}

		ideaID, err := b.store.CreateIdea(ctx, state.Name, description, ev.UserID)
		if err != nil {
			b.reportError(ctx, ev.ChatID, err)
			return
		}
		b.send(ctx, ev.ChatID, fmt.Sprintf("Idea %q created.", state.Name))

		// Drafting is a side effect of creation, never a blocker for it.
		if description != "" {
			b.startDraft(ctx, ev, ideaID)
		}
	}
}

func (b *Bot) startIdeaEdit(ctx context.Context, ev ports.Event, args string) {
	ideaID, ok := parseID(args)
	if !ok {
		return
	}

	idea, err := b.store.Idea(ctx, ideaID, ev.UserID)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if idea == nil {
		b.send(ctx, ev.ChatID, "Idea not found.")
		return
	}

	b.sessions.Put(ev.UserID, session.KindIdeaEdit, ideaEditState{IdeaID: ideaID, Step: stepName})
	b.send(ctx, ev.ChatID, msgIdeaEditNamePrompt)
}

func (b *Bot) continueIdeaEdit(ctx context.Context, ev ports.Event, state ideaEditState, text string) {
	switch state.Step {
	case stepName:
		next := ideaEditState{IdeaID: state.IdeaID, Step: stepDescription}
		if text != "" && text != skipSentinel {
			name := text
			next.Name = &name
		}
		b.sessions.Put(ev.UserID, session.KindIdeaEdit, next)
		b.send(ctx, ev.ChatID, msgIdeaEditDescriptionPrompt)

	case stepDescription:
		b.sessions.Clear(ev.UserID, session.KindIdeaEdit)

		var description *string
		if text != "" && text != skipSentinel {
			description = &text
		}
		if state.Name == nil && description == nil {
			b.send(ctx, ev.ChatID, msgIdeaNothingChanged)
			return
		}

		updated, err := b.store.UpdateIdea(ctx, state.IdeaID, ev.UserID, state.Name, description)
		if err != nil {
			b.reportError(ctx, ev.ChatID, err)
			return
		}
		if !updated {
			b.send(ctx, ev.ChatID, "Idea not found.")
			return
		}
		b.send(ctx, ev.ChatID, "Idea updated.")

		if description != nil {
			b.startDraft(ctx, ev, state.IdeaID)
		}
	}
}

func (b *Bot) startIdeaDelete(ctx context.Context, ev ports.Event, args string) {
	ideaID, ok := parseID(args)
	if !ok {
		return
	}

	idea, err := b.store.Idea(ctx, ideaID, ev.UserID)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if idea == nil {
		b.send(ctx, ev.ChatID, "Idea not found.")
		return
	}

	b.sessions.Put(ev.UserID, session.KindIdeaDelete, ideaDeleteState{IdeaID: ideaID})
	b.sendKeyboard(ctx, ev.ChatID,
		fmt.Sprintf("Delete idea %q and all its article links?", idea.Name),
		[][]ports.Button{{
			{Label: "Delete", Data: fmt.Sprintf("confirm-delete:%d", ideaID)},
			{Label: "Cancel", Data: fmt.Sprintf("cancel-delete:%d", ideaID)},
		}},
	)
}

func (b *Bot) confirmIdeaDelete(ctx context.Context, ev ports.Event, args string) {
	ideaID, ok := parseID(args)
	if !ok {
		return
	}

	state, pending := b.sessions.Get(ev.UserID, session.KindIdeaDelete)
	if !pending || state.(ideaDeleteState).IdeaID != ideaID {
		b.send(ctx, ev.ChatID, msgExpiredSession)
		return
	}
	b.sessions.Clear(ev.UserID, session.KindIdeaDelete)

	deleted, err := b.store.DeleteIdea(ctx, ideaID, ev.UserID)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if !deleted {
		b.send(ctx, ev.ChatID, "Idea not found.")
		return
	}
	b.send(ctx, ev.ChatID, "Idea deleted.")
}

func (b *Bot) cancelIdeaDelete(ctx context.Context, ev ports.Event) {
	b.sessions.Clear(ev.UserID, session.KindIdeaDelete)
	b.send(ctx, ev.ChatID, "Deletion cancelled.")
}

func (b *Bot) listIdeas(ctx context.Context, ev ports.Event) {
	ideas, err := b.store.IdeasForOwner(ctx, ev.UserID)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if len(ideas) == 0 {
		b.send(ctx, ev.ChatID, msgNoIdeasYet)
		return
	}

	keyboard := make([][]ports.Button, 0, len(ideas))
	for _, idea := range ideas {
		keyboard = append(keyboard, []ports.Button{{
			Label: buttonLabel(idea.Name),
			Data:  fmt.Sprintf("view-idea:%d", idea.ID),
		}})
	}
	b.sendKeyboard(ctx, ev.ChatID, "Your ideas:", keyboard)
}

func (b *Bot) viewIdea(ctx context.Context, ev ports.Event, args string) {
	ideaID, ok := parseID(args)
	if !ok {
		return
	}

	idea, err := b.store.Idea(ctx, ideaID, ev.UserID)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if idea == nil {
		b.send(ctx, ev.ChatID, "Idea not found.")
		return
	}

	docAction := ports.Button{Label: "Generate document", Data: fmt.Sprintf("gen-doc:%d", ideaID)}
	if idea.Document != "" {
		docAction = ports.Button{Label: "Regenerate document", Data: fmt.Sprintf("regen-doc:%d", ideaID)}
	}
	keyboard := [][]ports.Button{
		{{Label: "Articles", Data: fmt.Sprintf("idea-articles:%d", ideaID)}},
		{
			{Label: "Edit", Data: fmt.Sprintf("edit-idea:%d", ideaID)},
			{Label: "Delete", Data: fmt.Sprintf("delete-idea:%d", ideaID)},
		},
		{docAction},
	}
	b.sendKeyboard(ctx, ev.ChatID, ideaText(*idea), keyboard)
}

func (b *Bot) listIdeaArticles(ctx context.Context, ev ports.Event, args string) {
	ideaID, ok := parseID(args)
	if !ok {
		return
	}

	articles, err := b.store.ArticlesForIdea(ctx, ideaID, ev.UserID)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if len(articles) == 0 {
		b.send(ctx, ev.ChatID, "No articles in this idea yet.")
		return
	}

	var text strings.Builder
	text.WriteString("Articles in this idea:\n")
	keyboard := make([][]ports.Button, 0, len(articles))
	for i, article := range articles {
		fmt.Fprintf(&text, "\n%d. %s\n%s\n", i+1, article.Title, article.URL)
		keyboard = append(keyboard, []ports.Button{
			{Label: fmt.Sprintf("%d. Digest", i+1), Data: fmt.Sprintf("show-summary:%d:%d", article.ID, ideaID)},
			{Label: "Move", Data: fmt.Sprintf("reassign:%d:%d", article.ID, ideaID)},
			{Label: "Unlink", Data: fmt.Sprintf("unlink:%d:%d", article.ID, ideaID)},
		})
	}
	b.sendKeyboard(ctx, ev.ChatID, text.String(), keyboard)
}

func (b *Bot) showArticleSummary(ctx context.Context, ev ports.Event, args string) {
	articleID, _, ok := parseIDPair(args)
	if !ok {
		return
	}

	article, err := b.readableArticle(ctx, articleID, ev.UserID)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if article == nil {
		b.send(ctx, ev.ChatID, "Article not found.")
		return
	}

	text := digestText(*article)
	if ideas, err := b.store.IdeasForArticle(ctx, articleID, ev.UserID); err == nil && len(ideas) > 0 {
		names := make([]string, 0, len(ideas))
		for _, idea := range ideas {
			names = append(names, idea.Name)
		}
		text += "\n\nFiled under: " + strings.Join(names, ", ")
	}
	b.send(ctx, ev.ChatID, text)
}

func (b *Bot) unlinkArticle(ctx context.Context, ev ports.Event, args string) {
	articleID, ideaID, ok := parseIDPair(args)
	if !ok {
		return
	}

	unlinked, err := b.store.UnlinkArticleFromIdea(ctx, articleID, ideaID, ev.UserID)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if !unlinked {
		b.send(ctx, ev.ChatID, "Article not found.")
		return
	}
	b.send(ctx, ev.ChatID, "Unlinked.")
}

func (b *Bot) listArticles(ctx context.Context, ev ports.Event) {
	articles, err := b.store.ArticlesForOwner(ctx, ev.UserID)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if len(articles) == 0 {
		b.send(ctx, ev.ChatID, msgNoArticlesYet)
		return
	}

	keyboard := make([][]ports.Button, 0, len(articles))
	for _, article := range articles {
		keyboard = append(keyboard, []ports.Button{{
			Label: buttonLabel(article.Title),
			Data:  fmt.Sprintf("assign-list:%d", article.ID),
		}})
	}
	b.sendKeyboard(ctx, ev.ChatID, "Your captures, newest first. Tap one to file it under ideas:", keyboard)
}

// buttonLabel trims long titles so they fit an inline button.
func buttonLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= 40 {
		return s
	}
	return string(runes[:39]) + "…"
}
