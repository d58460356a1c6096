package media

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/platform/db"
)

// Repository defines persistence operations for media metadata.
type Repository interface {
	Create(ctx context.Context, obj Object) error
	FindByExtension(ctx context.Context, urlExtension string) (*Object, error)
	MediaExists(ctx context.Context, urlExtension string) (bool, error)
	DeleteOrphans(ctx context.Context, cutoff time.Time) ([]string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	q db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{q: pool}
}

// Create inserts a media row.
func (r *PGRepository) Create(ctx context.Context, obj Object) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO media (id, url_extension, path, content_type, size, uploader_id, post_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		obj.ID, obj.URLExtension, obj.Path, obj.ContentType, obj.Size, obj.UploaderID, obj.PostID, obj.CreatedAt)
	return err
}

// FindByExtension fetches a media row by its public URL extension.
func (r *PGRepository) FindByExtension(ctx context.Context, urlExtension string) (*Object, error) {
	var obj Object
	err := r.q.QueryRow(ctx,
		`SELECT id, url_extension, path, content_type, size, uploader_id, post_id, created_at
		 FROM media WHERE url_extension = $1`,
		urlExtension).
		Scan(&obj.ID, &obj.URLExtension, &obj.Path, &obj.ContentType, &obj.Size, &obj.UploaderID, &obj.PostID, &obj.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &obj, nil
}

// MediaExists reports whether an upload with the extension exists. Picture
// posts call this before publishing.
func (r *PGRepository) MediaExists(ctx context.Context, urlExtension string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM media WHERE url_extension = $1)`, urlExtension).Scan(&exists)
	return exists, err
}

// DeleteOrphans removes rows older than cutoff that no live picture post
// references, returning the storage paths of the deleted rows so the caller
// can remove the files.
func (r *PGRepository) DeleteOrphans(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.q.Query(ctx,
		`DELETE FROM media m
		 WHERE m.created_at < $1
		   AND m.post_id IS NULL
		   AND NOT EXISTS (
			 SELECT 1 FROM posts p
			 WHERE p.kind = 'picture' AND NOT p.deleted AND p.content = m.url_extension
		   )
		 RETURNING m.path`,
		cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
