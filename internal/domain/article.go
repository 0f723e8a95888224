package domain

import "time"

// SourceKind identifies the site family a capture came from.
type SourceKind string

const (
	SourceHabr      SourceKind = "habr"
	SourceGitHub    SourceKind = "github"
	SourceInfostart SourceKind = "infostart"
)

// ContentRecord is the scraper output for a single URL, before any
// summarization or persistence happens.
type ContentRecord struct {
	URL           string
	Source        SourceKind
	Title         string
	Author        string
	PublishedDate string
	RepoStars     string
	RepoLanguage  string
	RepoDesc      string
	Content       string
	ContentLength int
}

// Article is a persisted capture: scraped content plus its generated digest.
type Article struct {
	ID            int64
	URL           string
	Source        SourceKind
	Title         string
	Author        string
	PublishedDate string
	RepoStars     string
	RepoLanguage  string
	RepoDesc      string
	Content       string
	Digest        string
	ModelUsed     string
	OwnerID       int64 // 0 means ownerless (pre-ownership rows)
	CreatedAt     time.Time
}

// LinkedArticle is an article row joined with its link metadata when
// listed inside an idea.
type LinkedArticle struct {
	Article
	AddedAt time.Time
	Useful  *bool
}
