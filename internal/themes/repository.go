package themes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/platform/db"
)

// Repository defines persistence operations for themes.
type Repository interface {
	Create(ctx context.Context, theme Theme) error
	FindByID(ctx context.Context, id uuid.UUID) (*Theme, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	ListByStatus(ctx context.Context, status Status) ([]Theme, error)
	ThemeUsable(ctx context.Context, id uuid.UUID) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	q db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{q: pool}
}

// Create inserts a theme row.
func (r *PGRepository) Create(ctx context.Context, theme Theme) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO themes (id, name, creator_id, path, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		theme.ID, theme.Name, theme.CreatorID, theme.Path, string(theme.Status), theme.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateTheme
		}
		return err
	}
	return nil
}

// FindByID fetches a theme.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*Theme, error) {
	var (
		theme  Theme
		status string
	)
	err := r.q.QueryRow(ctx,
		`SELECT id, name, creator_id, path, status, created_at FROM themes WHERE id = $1`, id).
		Scan(&theme.ID, &theme.Name, &theme.CreatorID, &theme.Path, &status, &theme.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	theme.Status = Status(status)
	return &theme, nil
}

// SetStatus updates the review status.
func (r *PGRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	_, err := r.q.Exec(ctx, `UPDATE themes SET status = $2 WHERE id = $1`, id, string(status))
	return err
}

// ListByStatus returns themes in the given status with creator usernames,
// newest first.
func (r *PGRepository) ListByStatus(ctx context.Context, status Status) ([]Theme, error) {
	rows, err := r.q.Query(ctx,
		`SELECT t.id, t.name, t.creator_id, u.username, t.path, t.status, t.created_at
		 FROM themes t JOIN users u ON u.id = t.creator_id
		 WHERE t.status = $1 ORDER BY t.created_at DESC`,
		string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Theme
	for rows.Next() {
		var (
			theme Theme
			st    string
		)
		if err := rows.Scan(&theme.ID, &theme.Name, &theme.CreatorID, &theme.Creator, &theme.Path, &st, &theme.CreatedAt); err != nil {
			return nil, err
		}
		theme.Status = Status(st)
		out = append(out, theme)
	}
	return out, rows.Err()
}

// ThemeUsable reports whether the theme exists and is merged. Blogs call
// this before switching themes.
func (r *PGRepository) ThemeUsable(ctx context.Context, id uuid.UUID) (bool, error) {
	var usable bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM themes WHERE id = $1 AND status = 'merged')`, id).Scan(&usable)
	return usable, err
}

var _ Repository = (*PGRepository)(nil)
