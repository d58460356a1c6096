package blogs

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/authz"
	"github.com/inkwell-blog/inkwell/internal/perms"
	"github.com/inkwell-blog/inkwell/internal/platform/db"
)

// Repository defines persistence operations for blogs.
type Repository interface {
	Create(ctx context.Context, blog Blog) error
	FindByDomain(ctx context.Context, domain string) (*Blog, error)
	DomainForOwner(ctx context.Context, ownerID uuid.UUID) (string, error)
	SetTheme(ctx context.Context, blogID, themeID uuid.UUID) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	q db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{q: pool}
}

// Create inserts a blog row. Both the domain name and the owner carry unique
// constraints; violations map to the matching sentinel.
func (r *PGRepository) Create(ctx context.Context, blog Blog) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO blogs (id, domain_name, title, owner_id, permissions, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		blog.ID, blog.DomainName, blog.Title, blog.OwnerID, int64(blog.Permissions), blog.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			if strings.Contains(err.Error(), "blogs_owner") {
				return ErrAlreadyOwned
			}
			return ErrDomainTaken
		}
		return err
	}
	return nil
}

// FindByDomain fetches a blog by its domain name.
func (r *PGRepository) FindByDomain(ctx context.Context, domain string) (*Blog, error) {
	var (
		blog Blog
		mask int64
	)
	err := r.q.QueryRow(ctx,
		`SELECT id, domain_name, title, owner_id, permissions, theme_id, created_at FROM blogs WHERE domain_name = $1`,
		domain).
		Scan(&blog.ID, &blog.DomainName, &blog.Title, &blog.OwnerID, &mask, &blog.ThemeID, &blog.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	blog.Permissions = perms.Mask(mask)
	return &blog, nil
}

// DomainForOwner returns the domain owned by a user.
func (r *PGRepository) DomainForOwner(ctx context.Context, ownerID uuid.UUID) (string, error) {
	var domain string
	err := r.q.QueryRow(ctx, `SELECT domain_name FROM blogs WHERE owner_id = $1`, ownerID).Scan(&domain)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return domain, nil
}

// SetTheme updates the blog's active theme.
func (r *PGRepository) SetTheme(ctx context.Context, blogID, themeID uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `UPDATE blogs SET theme_id = $2 WHERE id = $1`, blogID, themeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LookupBlog implements authz.BlogStore: the authorization engine only needs
// identity, ownership, and the default bitmask.
func (r *PGRepository) LookupBlog(ctx context.Context, domain string) (authz.Blog, error) {
	var (
		info authz.Blog
		mask int64
	)
	err := r.q.QueryRow(ctx,
		`SELECT b.id, u.username, b.permissions FROM blogs b JOIN users u ON u.id = b.owner_id WHERE b.domain_name = $1`,
		domain).
		Scan(&info.ID, &info.OwnerUsername, &mask)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.Blog{}, ErrNotFound
		}
		return authz.Blog{}, err
	}
	info.DefaultPerms = perms.Mask(mask)
	return info, nil
}

var (
	_ Repository      = (*PGRepository)(nil)
	_ authz.BlogStore = (*PGRepository)(nil)
)
