package llm

import (
	"fmt"

	"studyagent/internal/domain"
)

const articleSystemPrompt = `You are an article filter for a busy developer.

Your job: help decide whether the article is worth reading.

Rules:
- Plain text, no formatting
- No lists, headings, or emoji
- At most 5-7 sentences
- Convey the substance and the tone of the piece (is the author bragging, complaining, teaching, sharing experience?)
- Finish with the author's single main takeaway`

const repoSystemPrompt = `You are an open-source project analyst.

Your job: give a short repository briefing.

Rules:
- Be concise, no emoji
- Three points: Purpose, Technology, Maturity
- Judge maturity by stars and README completeness`

const documentSystemPrompt = `You write structured topic documents in Markdown.

Rules:
- Start with a level-1 heading carrying the topic name
- Sections: Overview, Key Questions, Directions to Explore, Notes
- Stay grounded in the provided description; do not invent facts`

func digestPrompt(rec domain.ContentRecord) (string, string) {
	if rec.Source == domain.SourceGitHub {
		user := fmt.Sprintf(`Give a repository briefing in three points:
- Purpose (what it does, for whom)
- Technology (languages, frameworks, dependencies)
- Maturity (judged by stars, documentation, activity)

REPOSITORY: %s
AUTHOR: %s
DESCRIPTION: %s
STARS: %s
LANGUAGE: %s

README:
%s`, orNA(rec.Title), orNA(rec.Author), orNA(rec.RepoDesc), orZero(rec.RepoStars), orNA(rec.RepoLanguage), rec.Content)
		return repoSystemPrompt, user
	}

	user := fmt.Sprintf(`Retell the gist of the article in 2-3 sentences: who the author is, what they did, what came of it. Then one sentence with the main takeaway.

TITLE: %s
AUTHOR: %s
DATE: %s

ARTICLE TEXT:
%s`, orNA(rec.Title), orNA(rec.Author), orNA(rec.PublishedDate), rec.Content)
	return articleSystemPrompt, user
}

func draftPrompt(name, description string) (string, string) {
	user := fmt.Sprintf(`Write a structured document for the topic below.

TOPIC: %s

DESCRIPTION:
%s`, name, description)
	return documentSystemPrompt, user
}

func revisePrompt(current, feedback string) (string, string) {
	user := fmt.Sprintf(`Revise the document below according to the feedback. Return the full revised document, nothing else.

FEEDBACK:
%s

CURRENT DOCUMENT:
%s`, feedback, current)
	return documentSystemPrompt, user
}

func orNA(value string) string {
	if value == "" {
		return "n/a"
	}
	return value
}

func orZero(value string) string {
	if value == "" {
		return "0"
	}
	return value
}
