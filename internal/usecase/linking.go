package usecase

import (
	"context"
	"fmt"

	"studyagent/internal/ports"
	"studyagent/internal/session"
)

type linkMode int

const (
	linkCapture linkMode = iota
	linkReassign
	linkAssignList
)

// linkState is the shared shape of the three multi-select flows: a
// subject article, an optional source idea (reassignment only) and the
// toggled destination set. Candidates are re-read from the store on
// every render instead of being cached here.
type linkState struct {
	Mode         linkMode
	ArticleID    int64
	SourceIdeaID int64
	Selected     map[int64]bool
	ChatID       int64
	MessageID    int64
}

func (m linkMode) prompt() string {
	switch m {
	case linkReassign:
		return "Move the article to other ideas. Done removes the current link:"
	case linkAssignList:
		return "Link this capture to ideas:"
	default:
		return "File this capture under your ideas. Skipping discards it:"
	}
}

func (m linkMode) toggleAction() string {
	switch m {
	case linkReassign:
		return "toggle-reassign"
	case linkAssignList:
		return "toggle-assign-list"
	default:
		return "toggle-link"
	}
}

func (m linkMode) terminalRow() []ports.Button {
	switch m {
	case linkReassign:
		return []ports.Button{
			{Label: "Done", Data: "reassign-done"},
			{Label: "Cancel", Data: "reassign-cancel"},
		}
	case linkAssignList:
		return []ports.Button{
			{Label: "Done", Data: "assign-list-done"},
			{Label: "Cancel", Data: "assign-list-cancel"},
		}
	default:
		return []ports.Button{
			{Label: "Done", Data: "link-done"},
			{Label: "Skip", Data: "link-skip"},
		}
	}
}

// offerCaptureLinking starts the post-capture flow for a fresh article.
// With no ideas to offer, the capture is kept and the user pointed at
// /new_idea instead of being forced into an empty selection.
func (b *Bot) offerCaptureLinking(ctx context.Context, ev ports.Event, articleID int64) {
	state := linkState{Mode: linkCapture, ArticleID: articleID, Selected: map[int64]bool{}}
	b.beginLinking(ctx, ev, state)
}

func (b *Bot) startReassign(ctx context.Context, ev ports.Event, args string) {
	articleID, sourceIdeaID, ok := parseIDPair(args)
	if !ok {
		return
	}
	state := linkState{
		Mode:         linkReassign,
		ArticleID:    articleID,
		SourceIdeaID: sourceIdeaID,
		Selected:     map[int64]bool{},
	}
	b.beginLinking(ctx, ev, state)
}

func (b *Bot) startAssignFromList(ctx context.Context, ev ports.Event, args string) {
	articleID, ok := parseID(args)
	if !ok {
		return
	}
	state := linkState{Mode: linkAssignList, ArticleID: articleID, Selected: map[int64]bool{}}
	b.beginLinking(ctx, ev, state)
}

func (b *Bot) beginLinking(ctx context.Context, ev ports.Event, state linkState) {
	keyboard, count, err := b.linkKeyboard(ctx, ev.UserID, state)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if count == 0 {
		switch state.Mode {
		case linkCapture:
			b.send(ctx, ev.ChatID, msgKeepWithoutIdeas)
		case linkReassign:
			b.send(ctx, ev.ChatID, "You have no other ideas to move this article to.")
		default:
			b.send(ctx, ev.ChatID, msgNoIdeasYet)
		}
		return
	}

	messageID, sent := b.sendKeyboard(ctx, ev.ChatID, state.Mode.prompt(), keyboard)
	if !sent {
		return
	}
	state.ChatID = ev.ChatID
	state.MessageID = messageID
	b.sessions.Put(ev.UserID, session.KindLink, state)
}

// toggleLinkCandidate flips one idea in the selected set and re-renders
// the whole keyboard so the display always matches current membership.
func (b *Bot) toggleLinkCandidate(ctx context.Context, ev ports.Event, args string) {
	ideaID, ok := parseID(args)
	if !ok {
		return
	}

	raw, pending := b.sessions.Get(ev.UserID, session.KindLink)
	if !pending {
		b.send(ctx, ev.ChatID, msgExpiredSession)
		return
	}
	state := raw.(linkState)

	if state.Selected[ideaID] {
		delete(state.Selected, ideaID)
	} else {
		state.Selected[ideaID] = true
	}
	b.sessions.Put(ev.UserID, session.KindLink, state)

	keyboard, _, err := b.linkKeyboard(ctx, ev.UserID, state)
	if err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	if err := b.channel.EditKeyboard(ctx, state.ChatID, state.MessageID, state.Mode.prompt(), keyboard); err != nil {
		b.logger.Debug("keyboard re-render failed", "error", err)
	}
}

func (b *Bot) finishCaptureLinking(ctx context.Context, ev ports.Event) {
	state, ok := b.takeLinkState(ctx, ev, linkCapture)
	if !ok {
		return
	}

	// A capture with no destination is discarded, not retained orphaned.
	if len(state.Selected) == 0 {
		b.purgeCapture(ctx, ev, state.ArticleID)
		return
	}

	linked := b.linkSelected(ctx, ev, state)
	b.send(ctx, ev.ChatID, fmt.Sprintf("Filed under %d idea(s).", linked))
}

func (b *Bot) skipCaptureLinking(ctx context.Context, ev ports.Event) {
	state, ok := b.takeLinkState(ctx, ev, linkCapture)
	if !ok {
		return
	}
	b.purgeCapture(ctx, ev, state.ArticleID)
}

func (b *Bot) finishReassign(ctx context.Context, ev ports.Event) {
	state, ok := b.takeLinkState(ctx, ev, linkReassign)
	if !ok {
		return
	}

	if len(state.Selected) == 0 {
		b.send(ctx, ev.ChatID, "Nothing selected, the article stays where it is.")
		return
	}

	linked := b.linkSelected(ctx, ev, state)
	if _, err := b.store.UnlinkArticleFromIdea(ctx, state.ArticleID, state.SourceIdeaID, ev.UserID); err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	b.send(ctx, ev.ChatID, fmt.Sprintf("Moved to %d idea(s).", linked))
}

func (b *Bot) finishAssignFromList(ctx context.Context, ev ports.Event) {
	state, ok := b.takeLinkState(ctx, ev, linkAssignList)
	if !ok {
		return
	}

	if len(state.Selected) == 0 {
		b.send(ctx, ev.ChatID, "Nothing selected, nothing changed.")
		return
	}
	linked := b.linkSelected(ctx, ev, state)
	b.send(ctx, ev.ChatID, fmt.Sprintf("Linked to %d idea(s).", linked))
}

func (b *Bot) cancelLinking(ctx context.Context, ev ports.Event) {
	b.sessions.Clear(ev.UserID, session.KindLink)
	b.send(ctx, ev.ChatID, "Cancelled, nothing changed.")
}

// takeLinkState pops the pending link session if it matches the expected
// mode; a stale or missing session reads as expired.
func (b *Bot) takeLinkState(ctx context.Context, ev ports.Event, mode linkMode) (linkState, bool) {
	raw, pending := b.sessions.Get(ev.UserID, session.KindLink)
	if !pending {
		b.send(ctx, ev.ChatID, msgExpiredSession)
		return linkState{}, false
	}
	state := raw.(linkState)
	if state.Mode != mode {
		b.send(ctx, ev.ChatID, msgExpiredSession)
		return linkState{}, false
	}
	b.sessions.Clear(ev.UserID, session.KindLink)
	return state, true
}

// linkSelected commits the toggled set; already-linked pairs are
// absorbed silently per the duplicate-link policy.
func (b *Bot) linkSelected(ctx context.Context, ev ports.Event, state linkState) int {
	var linked int
	for ideaID := range state.Selected {
		ok, err := b.store.LinkArticleToIdea(ctx, state.ArticleID, ideaID, ev.UserID)
		if err != nil {
			b.logger.Error("link failed", "article", state.ArticleID, "idea", ideaID, "error", err)
			continue
		}
		if ok {
			linked++
		}
	}
	return linked
}

func (b *Bot) purgeCapture(ctx context.Context, ev ports.Event, articleID int64) {
	if _, err := b.store.DeleteArticle(ctx, articleID); err != nil {
		b.reportError(ctx, ev.ChatID, err)
		return
	}
	b.send(ctx, ev.ChatID, msgArticleDiscarded)
}

// linkKeyboard renders the candidate list with selection markers plus
// the mode's terminal row. Returns the number of candidates offered.
func (b *Bot) linkKeyboard(ctx context.Context, userID int64, state linkState) ([][]ports.Button, int, error) {
	ideas, err := b.store.IdeasForOwner(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	var keyboard [][]ports.Button
	var count int
	for _, idea := range ideas {
		if state.Mode == linkReassign && idea.ID == state.SourceIdeaID {
			continue
		}
		label := buttonLabel(idea.Name)
		if state.Selected[idea.ID] {
			label = "✅ " + label
		}
		keyboard = append(keyboard, []ports.Button{{
			Label: label,
			Data:  fmt.Sprintf("%s:%d", state.Mode.toggleAction(), idea.ID),
		}})
		count++
	}
	keyboard = append(keyboard, state.Mode.terminalRow())
	return keyboard, count, nil
}
