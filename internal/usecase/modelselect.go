package usecase

import (
	"context"
	"fmt"
	"strings"

	"studyagent/internal/domain"
	"studyagent/internal/ports"
	"studyagent/internal/session"
)

type prefKey struct {
	userID  int64
	purpose domain.Purpose
}

// modelSelectState is the pending half of a model selection: the user
// picked a provider and the next message is captured as the model name.
type modelSelectState struct {
	Purpose  domain.Purpose
	Provider domain.Provider
}

// choiceFor returns the user's active model pair for a purpose, falling
// back to the configured default.
func (b *Bot) choiceFor(userID int64, purpose domain.Purpose) domain.ModelChoice {
	b.prefMu.Lock()
	defer b.prefMu.Unlock()

	if choice, ok := b.prefs[prefKey{userID: userID, purpose: purpose}]; ok {
		return choice
	}
	return b.defaults
}

func (b *Bot) setChoice(userID int64, purpose domain.Purpose, choice domain.ModelChoice) {
	b.prefMu.Lock()
	defer b.prefMu.Unlock()
	b.prefs[prefKey{userID: userID, purpose: purpose}] = choice
}

// startModelSelection shows the provider grid for both purposes.
func (b *Bot) startModelSelection(ctx context.Context, ev ports.Event) {
	digest := b.choiceFor(ev.UserID, domain.PurposeDigest)
	document := b.choiceFor(ev.UserID, domain.PurposeDocument)
	text := fmt.Sprintf(
		"Pick a provider, then type the model name.\n\nActive digest model: %s/%s\nActive document model: %s/%s",
		digest.Provider, digest.Model, document.Provider, document.Model,
	)

	var keyboard [][]ports.Button
	for _, purpose := range []domain.Purpose{domain.PurposeDigest, domain.PurposeDocument} {
		row := make([]ports.Button, 0, len(domain.Providers))
		for _, provider := range domain.Providers {
			row = append(row, ports.Button{
				Label: fmt.Sprintf("%s: %s", purpose, provider),
				Data:  fmt.Sprintf("model-provider:%s:%s", purpose, provider),
			})
		}
		keyboard = append(keyboard, row)
	}
	b.sendKeyboard(ctx, ev.ChatID, text, keyboard)
}

// captureProviderChoice handles model-provider:<purpose>:<provider> and
// arms the one-shot model name capture.
func (b *Bot) captureProviderChoice(ctx context.Context, ev ports.Event, args string) {
	rawPurpose, rawProvider, ok := strings.Cut(args, ":")
	if !ok {
		return
	}

	purpose := domain.Purpose(rawPurpose)
	if purpose != domain.PurposeDigest && purpose != domain.PurposeDocument {
		return
	}
	provider := domain.Provider(rawProvider)
	if !provider.Valid() {
		return
	}

	// Last write wins: a second provider pick replaces the pending one.
	b.sessions.Put(ev.UserID, session.KindModelSelect, modelSelectState{
		Purpose:  purpose,
		Provider: provider,
	})
	b.send(ctx, ev.ChatID, modelPromptText(purpose, provider))
}

// captureModelName consumes the next free-text message after a provider
// pick. Input that does not look like a model identifier cancels the
// selection; the availability probe gates acceptance.
func (b *Bot) captureModelName(ctx context.Context, ev ports.Event, state modelSelectState, text string) {
	b.sessions.Clear(ev.UserID, session.KindModelSelect)

	if text == "" || strings.HasPrefix(text, "/") || strings.ContainsAny(text, " \t\n") {
		b.send(ctx, ev.ChatID, msgModelCancelled)
		return
	}

	choice := domain.ModelChoice{Provider: state.Provider, Model: text}
	ok, detail := b.gen.CheckAvailability(ctx, choice)
	if !ok {
		b.send(ctx, ev.ChatID, fmt.Sprintf(
			"The model is not available: %s\nYour previous choice is still active.", detail,
		))
		return
	}

	b.setChoice(ev.UserID, state.Purpose, choice)
	b.send(ctx, ev.ChatID, fmt.Sprintf(
		"Done. %s generation now uses %s/%s.", state.Purpose, choice.Provider, choice.Model,
	))
}
