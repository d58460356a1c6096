package posts

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/platform/db"
)

// Repository defines persistence operations for posts.
type Repository interface {
	Create(ctx context.Context, post Post) error
	ListByBlog(ctx context.Context, blogID uuid.UUID, limit, offset int) ([]Post, error)
	CountByBlog(ctx context.Context, blogID uuid.UUID) (int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	q db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{q: pool}
}

// Create inserts a post row.
func (r *PGRepository) Create(ctx context.Context, post Post) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO posts (id, blog_id, kind, title, content, created_at, deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, false)`,
		post.ID, post.BlogID, string(post.Kind), post.Title, post.Content, post.CreatedAt)
	return err
}

// ListByBlog returns live posts for the blog, newest first.
func (r *PGRepository) ListByBlog(ctx context.Context, blogID uuid.UUID, limit, offset int) ([]Post, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, blog_id, kind, title, content, created_at
		 FROM posts WHERE blog_id = $1 AND NOT deleted
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		blogID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		var (
			post Post
			kind string
		)
		if err := rows.Scan(&post.ID, &post.BlogID, &kind, &post.Title, &post.Content, &post.CreatedAt); err != nil {
			return nil, err
		}
		post.Kind = Kind(kind)
		out = append(out, post)
	}
	return out, rows.Err()
}

// CountByBlog counts live posts on the blog.
func (r *PGRepository) CountByBlog(ctx context.Context, blogID uuid.UUID) (int, error) {
	var total int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM posts WHERE blog_id = $1 AND NOT deleted`, blogID).Scan(&total)
	return total, err
}

var _ Repository = (*PGRepository)(nil)
