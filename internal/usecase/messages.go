package usecase

import (
	"fmt"
	"strings"

	"studyagent/internal/domain"
)

const msgStart = `Hi! I capture links and turn them into short digests.

Send me a link to a habr.com article, a github.com repository or an
infostart.ru post and I will read it, summarize it and file it under
your ideas.

Commands:
/new_idea - create an idea (a topic folder for articles)
/list_ideas - browse your ideas
/list_articles - browse everything you captured
/choose_model - pick the model used for digests and documents
/help - show this message again`

const msgHelp = `What I can do:

1. Send a supported link and I fetch it, generate a digest and offer
   to file it under one of your ideas.
2. /new_idea starts an idea: give it a name, then a description
   (or /skip). With a description I also draft a document for it.
3. /list_ideas shows your ideas; from there you can view linked
   articles, edit, delete or regenerate the idea document.
4. /list_articles shows captures and lets you file them under ideas.
5. /choose_model switches the provider and model per task.

Supported sources: habr.com, github.com, infostart.ru.`

const msgUnknown = "Send me a link to capture, or use /help to see what I can do."

const msgUnsupportedSource = "I cannot read this site. Supported sources: habr.com, github.com, infostart.ru."

const msgExpiredSession = "This session has expired. Please send the link again."

const msgStorageFault = "Something went wrong on my side. Please try again."

const msgDuplicatePrompt = "I already have this link. Show the saved digest or regenerate it?"

const msgModelNamePromptFmt = "Type the model name for %s generation (for example: %s). Sending a command cancels the selection."

const msgModelCancelled = "Model selection cancelled. Your previous choice is still active."

const msgIdeaNamePrompt = "What should the idea be called?"

const msgIdeaNameEmpty = "The name cannot be empty. What should the idea be called?"

const msgIdeaDescriptionPrompt = "Add a description for the idea, or /skip to leave it empty."

const msgIdeaEditNamePrompt = "Send the new name, or /skip to keep the current one."

const msgIdeaEditDescriptionPrompt = "Send the new description, or /skip to keep the current one."

const msgIdeaNothingChanged = "Nothing changed."

const msgNoIdeasYet = "You have no ideas yet. Create one with /new_idea."

const msgNoArticlesYet = "You have not captured anything yet. Send me a link to start."

const msgArticleDiscarded = "Capture discarded: an article has to belong to at least one idea."

const msgKeepWithoutIdeas = "Saved. You have no ideas yet; create one with /new_idea and file this capture later via /list_articles."

const msgFeedbackPrompt = "Send your feedback on the draft. Start the message with # to replace the draft with your text verbatim."

// processingMessage tells the user what kind of source is being read.
func processingMessage(url string) string {
	switch {
	case strings.Contains(url, "github.com"):
		return "Inspecting the repository, this can take a minute..."
	case strings.Contains(url, "infostart.ru"):
		return "Reading the post, this can take a minute..."
	default:
		return "Reading the article, this can take a minute..."
	}
}

// digestText renders a captured article with its digest for the chat.
func digestText(a domain.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", a.Title)

	if a.Source == domain.SourceGitHub {
		if a.RepoDesc != "" {
			fmt.Fprintf(&b, "%s\n", a.RepoDesc)
		}
		var facts []string
		if a.RepoStars != "" {
			facts = append(facts, "stars: "+a.RepoStars)
		}
		if a.RepoLanguage != "" {
			facts = append(facts, "language: "+a.RepoLanguage)
		}
		if len(facts) > 0 {
			fmt.Fprintf(&b, "%s\n", strings.Join(facts, ", "))
		}
	} else {
		if a.Author != "" {
			fmt.Fprintf(&b, "Author: %s\n", a.Author)
		}
		if a.PublishedDate != "" {
			fmt.Fprintf(&b, "Published: %s\n", a.PublishedDate)
		}
	}

	fmt.Fprintf(&b, "\n%s\n\n%s", a.Digest, a.URL)
	return b.String()
}

// ideaText renders one idea for the detail view.
func ideaText(idea domain.Idea) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Idea: %s\n", idea.Name)
	if idea.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", idea.Description)
	}
	if idea.Document != "" {
		b.WriteString("\nA generated document is attached.")
	}
	return b.String()
}

// modelPromptText asks for a free-form model name after a provider pick.
func modelPromptText(purpose domain.Purpose, provider domain.Provider) string {
	return fmt.Sprintf(msgModelNamePromptFmt, string(purpose), provider.ExampleModel())
}
