package usecase

import (
	"context"
	"fmt"
	"strings"

	"studyagent/internal/domain"
	"studyagent/internal/ports"
	"studyagent/internal/session"
)

type draftStep int

const (
	draftReady draftStep = iota
	draftAwaitingFeedback
)

// draftState is the pending-draft holding area: the current unapproved
// text plus whether the next message is feedback.
type draftState struct {
	IdeaID int64
	Step   draftStep
	Draft  string
}

func (b *Bot) startDraftByArg(ctx context.Context, ev ports.Event, args string) {
	ideaID, ok := parseID(args)
	if !ok {
		return
	}
	b.startDraft(ctx, ev, ideaID)
}

// startDraft generates a document for the idea and enters the
// approve/revise loop. A failed generation leaves the idea untouched
// and returns the conversation to its default mode.
func (b *Bot) startDraft(ctx context.Context, ev ports.Event, ideaID int64) {
	idea, err := b.store.Idea(ctx, ideaID, ev.UserID)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if idea == nil {
		b.send(ctx, ev.ChatID, "Idea not found.")
		return
	}

	statusID, _ := b.channel.SendMessage(ctx, ev.ChatID, "Drafting the document, this can take a minute...")

	choice := b.choiceFor(ev.UserID, domain.PurposeDocument)
	draft, err := b.gen.DraftDocument(ctx, idea.Name, idea.Description, choice)
	b.channel.DeleteMessage(ctx, ev.ChatID, statusID)
	if err != nil {
		b.sessions.Clear(ev.UserID, session.KindDraft)
		b.reportError(ctx, ev.ChatID, err)
		return
	}

	state := draftState{IdeaID: ideaID, Step: draftReady, Draft: draft}
	b.sessions.Put(ev.UserID, session.KindDraft, state)
	b.presentDraft(ctx, ev, state)
}

func (b *Bot) presentDraft(ctx context.Context, ev ports.Event, state draftState) {
	b.send(ctx, ev.ChatID, state.Draft)
	b.sendKeyboard(ctx, ev.ChatID, "What should I do with this draft?", [][]ports.Button{
		{
			{Label: "Approve", Data: fmt.Sprintf("approve-doc:%d", state.IdeaID)},
			{Label: "Give feedback", Data: fmt.Sprintf("revise-doc:%d", state.IdeaID)},
		},
		{{Label: "Regenerate", Data: fmt.Sprintf("regen-doc:%d", state.IdeaID)}},
	})
}

func (b *Bot) approveDraft(ctx context.Context, ev ports.Event, args string) {
	ideaID, ok := parseID(args)
	if !ok {
		return
	}

	state, ok := b.takeDraftState(ctx, ev, ideaID)
	if !ok {
		return
	}
	b.sessions.Clear(ev.UserID, session.KindDraft)

	saved, err := b.store.SetIdeaDocument(ctx, ideaID, ev.UserID, state.Draft)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if !saved {
		b.send(ctx, ev.ChatID, "Idea not found.")
		return
	}
	b.send(ctx, ev.ChatID, "Document saved to the idea.")
}

func (b *Bot) requestDraftFeedback(ctx context.Context, ev ports.Event, args string) {
	ideaID, ok := parseID(args)
	if !ok {
		return
	}

	state, ok := b.takeDraftState(ctx, ev, ideaID)
	if !ok {
		return
	}
	state.Step = draftAwaitingFeedback
	b.sessions.Put(ev.UserID, session.KindDraft, state)
	b.send(ctx, ev.ChatID, msgFeedbackPrompt)
}

// continueDraftFeedback consumes the next message after "give feedback".
// A message starting with the heading marker replaces the draft verbatim
// without a model call; anything else is revision feedback.
func (b *Bot) continueDraftFeedback(ctx context.Context, ev ports.Event, state draftState, text string) {
	if strings.HasPrefix(strings.TrimSpace(text), "#") {
		state.Draft = text
		state.Step = draftReady
		b.sessions.Put(ev.UserID, session.KindDraft, state)
		b.presentDraft(ctx, ev, state)
		return
	}

	statusID, _ := b.channel.SendMessage(ctx, ev.ChatID, "Revising the draft...")

	choice := b.choiceFor(ev.UserID, domain.PurposeDocument)
	revised, err := b.gen.ReviseDocument(ctx, state.Draft, text, choice)
	b.channel.DeleteMessage(ctx, ev.ChatID, statusID)

	state.Step = draftReady
	if err != nil {
		// Revision failure keeps the current draft on offer.
		b.sessions.Put(ev.UserID, session.KindDraft, state)
		b.reportError(ctx, ev.ChatID, err)
		b.presentDraft(ctx, ev, state)
		return
	}

	state.Draft = revised
	b.sessions.Put(ev.UserID, session.KindDraft, state)
	b.presentDraft(ctx, ev, state)
}

// takeDraftState fetches the pending draft if it belongs to the idea the
// button referenced; anything else reads as an expired session.
func (b *Bot) takeDraftState(ctx context.Context, ev ports.Event, ideaID int64) (draftState, bool) {
	raw, pending := b.sessions.Get(ev.UserID, session.KindDraft)
	if !pending {
		b.send(ctx, ev.ChatID, msgExpiredSession)
		return draftState{}, false
	}
	state := raw.(draftState)
	if state.IdeaID != ideaID {
		b.send(ctx, ev.ChatID, msgExpiredSession)
		return draftState{}, false
	}
	return state, true
}
