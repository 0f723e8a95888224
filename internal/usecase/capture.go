package usecase

import (
	"context"
	"errors"
	"strings"

	"studyagent/internal/domain"
	"studyagent/internal/ports"
)

// handleURL is the capture entry point: a known URL goes through the
// duplicate-resolution choice, a new one through fetch and summarize.
func (b *Bot) handleURL(ctx context.Context, ev ports.Event, url string) {
	exists, err := b.store.ArticleExists(ctx, url)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if exists {
		b.offerDuplicateChoice(ctx, ev, url)
		return
	}
	b.captureNew(ctx, ev, url)
}

func (b *Bot) offerDuplicateChoice(ctx context.Context, ev ports.Event, url string) {
	token := b.tokens.Issue(url)
	b.sendKeyboard(ctx, ev.ChatID, msgDuplicatePrompt, [][]ports.Button{
		{
			{Label: "Show saved digest", Data: "cache:show:" + token},
			{Label: "Regenerate", Data: "cache:regenerate:" + token},
		},
	})
}

func (b *Bot) captureNew(ctx context.Context, ev ports.Event, url string) {
	statusID, _ := b.channel.SendMessage(ctx, ev.ChatID, processingMessage(url))

	rec, err := b.fetcher.Fetch(ctx, url)
	if err != nil {
		b.channel.DeleteMessage(ctx, ev.ChatID, statusID)
		b.reportError(ctx, ev.ChatID, err)
		return
	}

	choice := b.choiceFor(ev.UserID, domain.PurposeDigest)
	digest, err := b.gen.Summarize(ctx, rec, choice)
	if err != nil {
		b.channel.DeleteMessage(ctx, ev.ChatID, statusID)
		b.reportError(ctx, ev.ChatID, err)
		return
	}

	articleID, err := b.store.SaveArticle(ctx, rec, digest, choice.Model, ev.UserID)
	if err != nil {
		b.channel.DeleteMessage(ctx, ev.ChatID, statusID)
		if errors.Is(err, domain.ErrDuplicate) {
			// Lost a race with another submission of the same URL.
			b.offerDuplicateChoice(ctx, ev, url)
			return
		}
		b.reportError(ctx, ev.ChatID, err)
		return
	}

	b.channel.DeleteMessage(ctx, ev.ChatID, statusID)
	b.send(ctx, ev.ChatID, digestText(articleFromRecord(rec, digest, choice.Model, ev.UserID)))
	b.offerCaptureLinking(ctx, ev, articleID)
}

// resolveDuplicateChoice handles the cache:<action>:<token> press.
func (b *Bot) resolveDuplicateChoice(ctx context.Context, ev ports.Event, args string) {
	action, token, ok := strings.Cut(args, ":")
	if !ok {
		return
	}

	url, found := b.tokens.Resolve(token)
	if !found {
		b.send(ctx, ev.ChatID, msgExpiredSession)
		return
	}
	b.tokens.Discard(token)

	switch action {
	case "show":
		digest, ok, err := b.store.CachedDigest(ctx, url)
		if err != nil {
			b.reportError(ctx, ev.ChatID, err)
			return
		}
		if !ok || digest == "" {
			b.send(ctx, ev.ChatID, msgExpiredSession)
			return
		}
		b.send(ctx, ev.ChatID, digest+"\n\n"+url)
	case "regenerate":
		b.regenerateDigest(ctx, ev, url)
	}
}

// regenerateDigest re-runs fetch and summarize for an already stored URL,
// replacing the digest in place. If the row vanished in the meantime the
// capture is inserted fresh.
func (b *Bot) regenerateDigest(ctx context.Context, ev ports.Event, url string) {
	statusID, _ := b.channel.SendMessage(ctx, ev.ChatID, processingMessage(url))

	rec, err := b.fetcher.Fetch(ctx, url)
	if err != nil {
		b.channel.DeleteMessage(ctx, ev.ChatID, statusID)
		b.reportError(ctx, ev.ChatID, err)
		return
	}

	choice := b.choiceFor(ev.UserID, domain.PurposeDigest)
	digest, err := b.gen.Summarize(ctx, rec, choice)
	if err != nil {
		b.channel.DeleteMessage(ctx, ev.ChatID, statusID)
		b.reportError(ctx, ev.ChatID, err)
		return
	}

	updated, err := b.store.UpdateArticleDigest(ctx, url, digest, choice.Model)
	if err != nil {
		b.channel.DeleteMessage(ctx, ev.ChatID, statusID)
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if !updated {
		if _, err := b.store.SaveArticle(ctx, rec, digest, choice.Model, ev.UserID); err != nil && !errors.Is(err, domain.ErrDuplicate) {
			b.channel.DeleteMessage(ctx, ev.ChatID, statusID)
			b.reportError(ctx, ev.ChatID, err)
			return
		}
	}

	b.channel.DeleteMessage(ctx, ev.ChatID, statusID)
	b.send(ctx, ev.ChatID, digestText(articleFromRecord(rec, digest, choice.Model, ev.UserID)))
}

func articleFromRecord(rec domain.ContentRecord, digest, model string, ownerID int64) domain.Article {
	return domain.Article{
		URL:           rec.URL,
		Source:        rec.Source,
		Title:         rec.Title,
		Author:        rec.Author,
		PublishedDate: rec.PublishedDate,
		RepoStars:     rec.RepoStars,
		RepoLanguage:  rec.RepoLanguage,
		RepoDesc:      rec.RepoDesc,
		Digest:        digest,
		ModelUsed:     model,
		OwnerID:       ownerID,
	}
}
