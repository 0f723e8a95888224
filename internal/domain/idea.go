package domain

import "time"

// Idea is a user-owned topic folder grouping captured articles.
type Idea struct {
	ID          int64
	Name        string
	Description string
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Document    string // generated structured write-up, empty until approved
}

// IdeaArticleLink is one row of the many-to-many association.
type IdeaArticleLink struct {
	ID              int64
	IdeaID          int64
	ArticleID       int64
	RelevanceScore  *float64
	RelevanceReason string
	Confirmed       bool
	Useful          *bool
	AddedAt         time.Time
}
