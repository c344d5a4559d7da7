package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/visibility"
)

// PostRepo serves blogs and news from one table distinguished by kind.
type PostRepo struct{ DB *sql.DB }

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{DB: db} }

const postCols = "b.id,b.kind,b.slug,b.title,b.body,b.audience,b.is_published,b.publication_date," +
	"b.created_at,b.updated_at"

func scanPost(s interface{ Scan(dest ...any) error }) (model.Post, error) {
	var p model.Post
	err := s.Scan(&p.ID, &p.Kind, &p.Slug, &p.Title, &p.Body, &p.Audience, &p.IsPublished,
		&p.PublicationDate, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// Create inserts an unpublished post.
func (r *PostRepo) Create(ctx context.Context, p model.Post) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO posts (kind, slug, title, body, audience, is_published) VALUES (?,?,?,?,?,0)",
		p.Kind, p.Slug, p.Title, p.Body, p.Audience)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetBySlug fetches one post.
func (r *PostRepo) GetBySlug(ctx context.Context, slug string) (model.Post, error) {
	return scanPost(r.DB.QueryRowContext(ctx,
		"SELECT "+postCols+" FROM posts b WHERE b.slug=? LIMIT 1", slug))
}

// List pages posts of one kind visible to the caller, newest first.
func (r *PostRepo) List(ctx context.Context, caller visibility.Caller, kind string, now time.Time) ([]model.Post, error) {
	visCond, visArgs := visibility.PostWhere(caller, "b", now)
	q := "SELECT " + postCols + " FROM posts b WHERE b.kind=? AND " + visCond +
		" ORDER BY b.publication_date DESC, b.id DESC"
	args := append([]any{kind}, visArgs...)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetPublished flips is_published, stamping publication_date on first
// publish.
func (r *PostRepo) SetPublished(ctx context.Context, id uint64, published bool, now time.Time) error {
	var err error
	if published {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE posts SET is_published=1, publication_date=COALESCE(publication_date, ?) WHERE id=?",
			now, id)
	} else {
		_, err = r.DB.ExecContext(ctx, "UPDATE posts SET is_published=0 WHERE id=?", id)
	}
	return err
}

// Delete hard-deletes a post.
func (r *PostRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM posts WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
