package llm

import (
	"strings"
	"testing"

	"studyagent/internal/domain"
)

func TestDigestPromptSwitchesOnSource(t *testing.T) {
	t.Parallel()

	article := domain.ContentRecord{
		Source:  domain.SourceHabr,
		Title:   "Writing a parser",
		Author:  "ivan",
		Content: "text",
	}
	system, user := digestPrompt(article)
	if !strings.Contains(system, "article filter") {
		t.Fatalf("article system prompt: %q", system)
	}
	if !strings.Contains(user, "Writing a parser") || !strings.Contains(user, "ivan") {
		t.Fatalf("article user prompt missing fields: %q", user)
	}

	repo := domain.ContentRecord{
		Source:    domain.SourceGitHub,
		Title:     "owner/repo",
		RepoStars: "120",
		Content:   "readme",
	}
	system, user = digestPrompt(repo)
	if !strings.Contains(system, "open-source project analyst") {
		t.Fatalf("repo system prompt: %q", system)
	}
	if !strings.Contains(user, "STARS: 120") {
		t.Fatalf("repo user prompt missing stars: %q", user)
	}
}

func TestDigestPromptFillsAbsentFields(t *testing.T) {
	t.Parallel()

	_, user := digestPrompt(domain.ContentRecord{Source: domain.SourceHabr, Content: "x"})
	if !strings.Contains(user, "TITLE: n/a") || !strings.Contains(user, "AUTHOR: n/a") {
		t.Fatalf("absent fields not defaulted: %q", user)
	}
}

func TestRevisePromptCarriesBothTexts(t *testing.T) {
	t.Parallel()

	_, user := revisePrompt("# Current doc", "make it shorter")
	if !strings.Contains(user, "# Current doc") || !strings.Contains(user, "make it shorter") {
		t.Fatalf("revise prompt: %q", user)
	}
}
