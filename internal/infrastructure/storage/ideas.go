package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"studyagent/internal/domain"
)

var ideaColumns = []string{"id", "name", "description", "owner_id", "created_at", "updated_at", "document"}

func scanIdea(scan func(dest ...any) error) (domain.Idea, error) {
	var (
		idea                  domain.Idea
		description, document sql.NullString
		created, updated      string
	)
	err := scan(&idea.ID, &idea.Name, &description, &idea.OwnerID, &created, &updated, &document)
	if err != nil {
		return domain.Idea{}, err
	}

	idea.Description = description.String
	idea.Document = document.String
	idea.CreatedAt = parseTime(created)
	idea.UpdatedAt = parseTime(updated)
	return idea, nil
}

// CreateIdea inserts a topic folder for the owner. Name validation is the
// flow's job; the store accepts what it is given.
func (r *Repository) CreateIdea(ctx context.Context, name, description string, ownerID int64) (int64, error) {
	var desc any
	if description != "" {
		desc = description
	}

	ts := now()
	query, args, err := r.sb.Insert("ideas").
		Columns("name", "description", "owner_id", "created_at", "updated_at").
		Values(name, desc, ownerID, ts, ts).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert idea: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// IdeasForOwner lists a user's ideas, newest first.
func (r *Repository) IdeasForOwner(ctx context.Context, ownerID int64) ([]domain.Idea, error) {
	query, args, err := r.sb.Select(ideaColumns...).From("ideas").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ideas: %w", err)
	}
	defer rows.Close()

	var ideas []domain.Idea
	for rows.Next() {
		idea, err := scanIdea(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return ideas, nil
}

// Idea fetches one idea with an ownership check; nil when absent or owned
// by someone else, so other users' data never leaks as "forbidden".
func (r *Repository) Idea(ctx context.Context, id, ownerID int64) (*domain.Idea, error) {
	query, args, err := r.sb.Select(ideaColumns...).From("ideas").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build idea query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	idea, err := scanIdea(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan idea: %w", err)
	}
	return &idea, nil
}

// UpdateIdea applies a partial update; with neither field supplied it is a
// no-op returning false. updated_at refreshes whenever anything changes.
func (r *Repository) UpdateIdea(ctx context.Context, id, ownerID int64, name, description *string) (bool, error) {
	if name == nil && description == nil {
		return false, nil
	}

	builder := r.sb.Update("ideas")
	if name != nil {
		builder = builder.Set("name", *name)
	}
	if description != nil {
		builder = builder.Set("description", *description)
	}
	builder = builder.Set("updated_at", now()).Where(sq.Eq{"id": id, "owner_id": ownerID})

	query, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update idea: %w", err)
	}
	return rowsChanged(res)
}

// DeleteIdea removes an owned idea; link rows cascade.
func (r *Repository) DeleteIdea(ctx context.Context, id, ownerID int64) (bool, error) {
	query, args, err := r.sb.Delete("ideas").Where(sq.Eq{"id": id, "owner_id": ownerID}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete idea: %w", err)
	}
	return rowsChanged(res)
}

// LinkArticleToIdea associates an article with an owned idea. Returns
// false without error when the idea is not owned, the article belongs to
// another user, or the pair is already linked.
func (r *Repository) LinkArticleToIdea(ctx context.Context, articleID, ideaID, ownerID int64) (bool, error) {
	owned, err := r.ownsIdea(ctx, ideaID, ownerID)
	if err != nil || !owned {
		return false, err
	}

	// The article must belong to the caller or be ownerless (legacy rows
	// captured before ownership existed).
	query, args, err := r.sb.Select("1").From("articles").
		Where(sq.And{
			sq.Eq{"id": articleID},
			sq.Or{sq.Eq{"owner_id": ownerID}, sq.Eq{"owner_id": nil}},
		}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build article check: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check article owner: %w", err)
	}

	query, args, err = r.sb.Insert("idea_articles").
		Columns("idea_id", "article_id", "confirmed", "added_at").
		Values(ideaID, articleID, 1, now()).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build link insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isConstraintErr(err) {
			// Pair already linked; absorbed as a no-op.
			return false, nil
		}
		return false, fmt.Errorf("insert link: %w", err)
	}
	return true, nil
}

// UnlinkArticleFromIdea removes the association, ownership-checked on the
// idea side.
func (r *Repository) UnlinkArticleFromIdea(ctx context.Context, articleID, ideaID, ownerID int64) (bool, error) {
	owned, err := r.ownsIdea(ctx, ideaID, ownerID)
	if err != nil || !owned {
		return false, err
	}

	query, args, err := r.sb.Delete("idea_articles").
		Where(sq.Eq{"idea_id": ideaID, "article_id": articleID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build unlink: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}
	return rowsChanged(res)
}

// ArticlesForIdea lists linked articles newest-link-first; an ownership
// miss yields a silent empty list.
func (r *Repository) ArticlesForIdea(ctx context.Context, ideaID, ownerID int64) ([]domain.LinkedArticle, error) {
	owned, err := r.ownsIdea(ctx, ideaID, ownerID)
	if err != nil || !owned {
		return nil, err
	}

	query, args, err := r.sb.Select(
		"a.id", "a.url", "a.source", "a.title", "a.author", "a.published_date",
		"a.repo_stars", "a.repo_language", "a.repo_description",
		"a.content", "a.digest", "a.model_used", "a.owner_id", "a.created_at",
		"ia.added_at", "ia.useful").
		From("articles a").
		Join("idea_articles ia ON a.id = ia.article_id").
		Where(sq.Eq{"ia.idea_id": ideaID}).
		OrderBy("ia.added_at DESC", "ia.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build join query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query idea articles: %w", err)
	}
	defer rows.Close()

	var linked []domain.LinkedArticle
	for rows.Next() {
		var (
			item   domain.LinkedArticle
			added  string
			useful sql.NullBool
		)
		article, err := scanArticleLink(rows, &added, &useful)
		if err != nil {
			return nil, fmt.Errorf("scan linked article: %w", err)
		}
		item.Article = article
		item.AddedAt = parseTime(added)
		if useful.Valid {
			v := useful.Bool
			item.Useful = &v
		}
		linked = append(linked, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return linked, nil
}

func scanArticleLink(rows *sql.Rows, added *string, useful *sql.NullBool) (domain.Article, error) {
	var (
		a                                    domain.Article
		author, published, stars, lang, desc sql.NullString
		digest, model                        sql.NullString
		owner                                sql.NullInt64
		created                              string
	)
	err := rows.Scan(&a.ID, &a.URL, &a.Source, &a.Title, &author, &published,
		&stars, &lang, &desc, &a.Content, &digest, &model, &owner, &created,
		added, useful)
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

// IdeasForArticle lists the owner's ideas holding the article.
func (r *Repository) IdeasForArticle(ctx context.Context, articleID, ownerID int64) ([]domain.Idea, error) {
	query, args, err := r.sb.Select(
		"i.id", "i.name", "i.description", "i.owner_id", "i.created_at", "i.updated_at", "i.document").
		From("ideas i").
		Join("idea_articles ia ON i.id = ia.idea_id").
		Where(sq.Eq{"ia.article_id": articleID, "i.owner_id": ownerID}).
		OrderBy("ia.added_at DESC", "ia.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build join query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query article ideas: %w", err)
	}
	defer rows.Close()

	var ideas []domain.Idea
	for rows.Next() {
		idea, err := scanIdea(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return ideas, nil
}

// IdeaDocument returns the approved document text for an owned idea.
func (r *Repository) IdeaDocument(ctx context.Context, ideaID, ownerID int64) (string, bool, error) {
	query, args, err := r.sb.Select("document").From("ideas").
		Where(sq.Eq{"id": ideaID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build document query: %w", err)
	}

	var document sql.NullString
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query document: %w", err)
	}
	return document.String, document.Valid && document.String != "", nil
}

// SetIdeaDocument stores the approved document for an owned idea.
func (r *Repository) SetIdeaDocument(ctx context.Context, ideaID, ownerID int64, text string) (bool, error) {
	query, args, err := r.sb.Update("ideas").
		Set("document", text).
		Set("updated_at", now()).
		Where(sq.Eq{"id": ideaID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build document update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update document: %w", err)
	}
	return rowsChanged(res)
}

func (r *Repository) ownsIdea(ctx context.Context, ideaID, ownerID int64) (bool, error) {
	query, args, err := r.sb.Select("1").From("ideas").
		Where(sq.Eq{"id": ideaID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build ownership check: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check idea owner: %w", err)
	}
	return true, nil
}
