package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	sqlite "modernc.org/sqlite"

	"studyagent/internal/domain"
	"studyagent/internal/ports"
)

const sqliteConstraint = 19 // primary result code SQLITE_CONSTRAINT

var schema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT UNIQUE NOT NULL,
		source TEXT NOT NULL,
		title TEXT NOT NULL,
		author TEXT,
		published_date TEXT,
		repo_stars TEXT,
		repo_language TEXT,
		repo_description TEXT,
		content TEXT NOT NULL,
		digest TEXT,
		model_used TEXT,
		owner_id INTEGER,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_url ON articles(url)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_owner_id ON articles(owner_id)`,
	`CREATE TABLE IF NOT EXISTS ideas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		owner_id INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		document TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ideas_owner_id ON ideas(owner_id)`,
	`CREATE TABLE IF NOT EXISTS idea_articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		idea_id INTEGER NOT NULL,
		article_id INTEGER NOT NULL,
		relevance_score REAL,
		relevance_reason TEXT,
		confirmed INTEGER NOT NULL DEFAULT 1,
		useful INTEGER,
		added_at TEXT NOT NULL,
		FOREIGN KEY (idea_id) REFERENCES ideas(id) ON DELETE CASCADE,
		FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE,
		UNIQUE (idea_id, article_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_idea_articles_idea_id ON idea_articles(idea_id)`,
	`CREATE INDEX IF NOT EXISTS idx_idea_articles_article_id ON idea_articles(article_id)`,
}

// Repository persists articles, ideas, and their links into SQLite.
type Repository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.Store = (*Repository)(nil)

// NewRepository wires a sql.DB implementation.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// Init creates tables and indexes; safe to call on every start.
func (r *Repository) Init(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func isConstraintErr(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		return serr.Code()&0xff == sqliteConstraint
	}
	return false
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ArticleExists reports whether a row already holds the URL.
func (r *Repository) ArticleExists(ctx context.Context, url string) (bool, error) {
	query, args, err := r.sb.Select("1").From("articles").Where(sq.Eq{"url": url}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// CachedDigest returns the stored digest for a URL, if any.
func (r *Repository) CachedDigest(ctx context.Context, url string) (string, bool, error) {
	query, args, err := r.sb.Select("digest").From("articles").Where(sq.Eq{"url": url}).ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build digest query: %w", err)
	}

	var digest sql.NullString
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query digest: %w", err)
	}
	return digest.String, digest.Valid, nil
}

var articleColumns = []string{
	"id", "url", "source", "title", "author", "published_date",
	"repo_stars", "repo_language", "repo_description",
	"content", "digest", "model_used", "owner_id", "created_at",
}

func scanArticle(scan func(dest ...any) error) (domain.Article, error) {
	var (
		a                                    domain.Article
		author, published, stars, lang, desc sql.NullString
		digest, model                        sql.NullString
		owner                                sql.NullInt64
		created                              string
	)
	err := scan(&a.ID, &a.URL, &a.Source, &a.Title, &author, &published,
		&stars, &lang, &desc, &a.Content, &digest, &model, &owner, &created)
	if err != nil {
		return domain.Article{}, err
	}

	a.Author = author.String
	a.PublishedDate = published.String
	a.RepoStars = stars.String
	a.RepoLanguage = lang.String
	a.RepoDesc = desc.String
	a.Digest = digest.String
	a.ModelUsed = model.String
	a.OwnerID = owner.Int64
	a.CreatedAt = parseTime(created)
	return a, nil
}

// ArticleByURL fetches the full article row for a URL, nil if absent.
func (r *Repository) ArticleByURL(ctx context.Context, url string) (*domain.Article, error) {
	return r.articleWhere(ctx, sq.Eq{"url": url})
}

// ArticleByID fetches the full article row by id, nil if absent.
func (r *Repository) ArticleByID(ctx context.Context, id int64) (*domain.Article, error) {
	return r.articleWhere(ctx, sq.Eq{"id": id})
}

func (r *Repository) articleWhere(ctx context.Context, cond sq.Eq) (*domain.Article, error) {
	query, args, err := r.sb.Select(articleColumns...).From("articles").Where(cond).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build article query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	article, err := scanArticle(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	return &article, nil
}

// SaveArticle always inserts; a second insert of the same URL surfaces
// as domain.ErrDuplicate so the caller can route into the duplicate flow.
func (r *Repository) SaveArticle(ctx context.Context, rec domain.ContentRecord, digest, model string, ownerID int64) (int64, error) {
	var owner any
	if ownerID != 0 {
		owner = ownerID
	}

	var published, stars, lang, desc any
	switch rec.Source {
	case domain.SourceGitHub:
		stars, lang, desc = rec.RepoStars, rec.RepoLanguage, rec.RepoDesc
	default:
		if rec.PublishedDate != "" {
			published = rec.PublishedDate
		}
	}

	query, args, err := r.sb.Insert("articles").
		Columns("url", "source", "title", "author", "published_date",
			"repo_stars", "repo_language", "repo_description",
			"content", "digest", "model_used", "owner_id", "created_at").
		Values(rec.URL, string(rec.Source), rec.Title, rec.Author, published,
			stars, lang, desc, rec.Content, digest, model, owner, now()).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintErr(err) {
			return 0, domain.ErrDuplicate
		}
		return 0, fmt.Errorf("insert article: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// UpdateArticleDigest replaces digest and model for a regenerated capture.
func (r *Repository) UpdateArticleDigest(ctx context.Context, url, digest, model string) (bool, error) {
	query, args, err := r.sb.Update("articles").
		Set("digest", digest).
		Set("model_used", model).
		Set("created_at", now()).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update digest: %w", err)
	}
	return rowsChanged(res)
}

// DeleteArticle removes a capture; link rows cascade.
func (r *Repository) DeleteArticle(ctx context.Context, id int64) (bool, error) {
	query, args, err := r.sb.Delete("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete article: %w", err)
	}
	return rowsChanged(res)
}

// ArticlesForOwner lists a user's captures, newest first.
func (r *Repository) ArticlesForOwner(ctx context.Context, ownerID int64) ([]domain.Article, error) {
	query, args, err := r.sb.Select(articleColumns...).From("articles").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

func rowsChanged(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
