package roles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/authz"
	"github.com/inkwell-blog/inkwell/internal/blogs"
	"github.com/inkwell-blog/inkwell/internal/perms"
	"github.com/inkwell-blog/inkwell/internal/platform/db"
	"github.com/inkwell-blog/inkwell/internal/users"
)

// TxRepository is the query surface available both on the pool and inside a
// transaction. It also satisfies authz.BlogStore and authz.RoleStore so the
// authorization engine can run against the same transaction as a mutation.
type TxRepository interface {
	LookupBlog(ctx context.Context, domain string) (authz.Blog, error)
	UserHoldsPermission(ctx context.Context, blogID uuid.UUID, username string, bit perms.Mask) (bool, error)
	LookupUserID(ctx context.Context, username string) (uuid.UUID, error)

	FindRole(ctx context.Context, blogID uuid.UUID, name string) (*Role, error)
	CreateRole(ctx context.Context, role Role) error
	SetRolePermissions(ctx context.Context, roleID uuid.UUID, mask perms.Mask) error
	DeleteRole(ctx context.Context, blogID uuid.UUID, name string) error
	Assign(ctx context.Context, roleID, userID uuid.UUID) error
	Revoke(ctx context.Context, blogID uuid.UUID, name, username string) error

	RoleNames(ctx context.Context, blogID uuid.UUID) ([]string, error)
	UsersWithRole(ctx context.Context, blogID uuid.UUID, name string) ([]string, error)
	RolesForUser(ctx context.Context, blogID uuid.UUID, username string) ([]string, error)
	UsersWithPermission(ctx context.Context, blogID uuid.UUID, bit perms.Mask) ([]string, error)
	RolesCreatedBy(ctx context.Context, creatorID uuid.UUID) ([]CreatedRole, error)
}

// Repository adds the unit-of-work entry point on top of TxRepository.
type Repository interface {
	TxRepository
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	q    db.Querier
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{q: pool, pool: pool}
}

// WithTx runs fn with a transaction-scoped repository. The transaction rolls
// back when fn errors, so an authorization failure inside fn leaves the
// store untouched.
func (r *PGRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{q: tx, pool: r.pool})
	})
}

// LookupBlog implements authz.BlogStore on the roles side of the schema.
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
			return authz.Blog{}, blogs.ErrNotFound
		}
		return authz.Blog{}, err
	}
	info.DefaultPerms = perms.Mask(mask)
	return info, nil
}

// UserHoldsPermission reports whether the user holds any role on the blog
// whose bitmask carries the given bit. The bit test runs in SQL so the check
// stays a single index-backed query regardless of how many roles exist.
func (r *PGRepository) UserHoldsPermission(ctx context.Context, blogID uuid.UUID, username string, bit perms.Mask) (bool, error) {
	var held bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM roles r
			JOIN role_users ru ON ru.role_id = r.id
			JOIN users u ON u.id = ru.user_id
			WHERE r.blog_id = $1 AND u.username = $2 AND (r.permissions & $3) = $3
		)`,
		blogID, username, int64(bit)).Scan(&held)
	if err != nil {
		return false, err
	}
	return held, nil
}

// LookupUserID resolves a username to its ID.
func (r *PGRepository) LookupUserID(ctx context.Context, username string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.q.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, username).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, users.ErrNotFound
		}
		return uuid.Nil, err
	}
	return id, nil
}

// FindRole fetches a role by (blog, name). Callers pass the name already
// lowercased; the store writes names lowercased.
func (r *PGRepository) FindRole(ctx context.Context, blogID uuid.UUID, name string) (*Role, error) {
	var (
		role Role
		mask int64
	)
	err := r.q.QueryRow(ctx,
		`SELECT id, blog_id, name, permissions, creator_id, created_at FROM roles WHERE blog_id = $1 AND name = $2`,
		blogID, name).
		Scan(&role.ID, &role.BlogID, &role.Name, &mask, &role.CreatorID, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	role.Permissions = perms.Mask(mask)
	return &role, nil
}

// CreateRole inserts a role row. A concurrent create racing on the same
// (blog, name) loses at the unique index and surfaces as ErrDuplicateRole.
func (r *PGRepository) CreateRole(ctx context.Context, role Role) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO roles (id, blog_id, name, permissions, creator_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		role.ID, role.BlogID, role.Name, int64(role.Permissions), role.CreatorID, role.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateRole
		}
		return err
	}
	return nil
}

// SetRolePermissions replaces the bitmask wholesale.
func (r *PGRepository) SetRolePermissions(ctx context.Context, roleID uuid.UUID, mask perms.Mask) error {
	_, err := r.q.Exec(ctx, `UPDATE roles SET permissions = $2 WHERE id = $1`, roleID, int64(mask))
	return err
}

// DeleteRole removes a role; assignments go with it via the FK cascade.
// Deleting a missing role is a no-op.
func (r *PGRepository) DeleteRole(ctx context.Context, blogID uuid.UUID, name string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM roles WHERE blog_id = $1 AND name = $2`, blogID, name)
	return err
}

// Assign links a user to a role. Re-assigning is a no-op.
func (r *PGRepository) Assign(ctx context.Context, roleID, userID uuid.UUID) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO role_users (role_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		roleID, userID)
	return err
}

// Revoke removes an assignment. Missing user, role, or assignment all fall
// through to zero rows deleted.
func (r *PGRepository) Revoke(ctx context.Context, blogID uuid.UUID, name, username string) error {
	_, err := r.q.Exec(ctx,
		`DELETE FROM role_users
		 WHERE role_id = (SELECT id FROM roles WHERE blog_id = $1 AND name = $2)
		   AND user_id = (SELECT id FROM users WHERE username = $3)`,
		blogID, name, username)
	return err
}

// RoleNames lists role names on a blog.
func (r *PGRepository) RoleNames(ctx context.Context, blogID uuid.UUID) ([]string, error) {
	return r.stringList(ctx,
		`SELECT name FROM roles WHERE blog_id = $1 ORDER BY name`, blogID)
}

// UsersWithRole lists usernames holding the named role on a blog.
func (r *PGRepository) UsersWithRole(ctx context.Context, blogID uuid.UUID, name string) ([]string, error) {
	return r.stringList(ctx,
		`SELECT u.username FROM users u
		 JOIN role_users ru ON ru.user_id = u.id
		 WHERE ru.role_id = (SELECT id FROM roles WHERE blog_id = $1 AND name = $2)
		 ORDER BY u.username`,
		blogID, name)
}

// RolesForUser lists the role names a user holds on this blog. The
// assignment table has no blog column, so the join through roles is what
// scopes the result; dropping that filter is the cross-blog leak.
func (r *PGRepository) RolesForUser(ctx context.Context, blogID uuid.UUID, username string) ([]string, error) {
	return r.stringList(ctx,
		`SELECT r.name FROM roles r
		 JOIN role_users ru ON ru.role_id = r.id
		 JOIN users u ON u.id = ru.user_id
		 WHERE r.blog_id = $1 AND u.username = $2
		 ORDER BY r.name`,
		blogID, username)
}

// UsersWithPermission lists usernames holding any role on the blog whose
// bitmask carries the bit. Derived at query time with a SQL bitwise AND.
func (r *PGRepository) UsersWithPermission(ctx context.Context, blogID uuid.UUID, bit perms.Mask) ([]string, error) {
	return r.stringList(ctx,
		`SELECT DISTINCT u.username FROM users u
		 JOIN role_users ru ON ru.user_id = u.id
		 JOIN roles r ON r.id = ru.role_id
		 WHERE r.blog_id = $1 AND (r.permissions & $2) = $2
		 ORDER BY u.username`,
		blogID, int64(bit))
}

// RolesCreatedBy lists the roles a user created across all blogs.
func (r *PGRepository) RolesCreatedBy(ctx context.Context, creatorID uuid.UUID) ([]CreatedRole, error) {
	rows, err := r.q.Query(ctx,
		`SELECT r.name, b.domain_name FROM roles r
		 JOIN blogs b ON b.id = r.blog_id
		 WHERE r.creator_id = $1
		 ORDER BY b.domain_name, r.name`,
		creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var created []CreatedRole
	for rows.Next() {
		var c CreatedRole
		if err := rows.Scan(&c.Name, &c.Domain); err != nil {
			return nil, err
		}
		created = append(created, c)
	}
	return created, rows.Err()
}

func (r *PGRepository) stringList(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var (
	_ Repository      = (*PGRepository)(nil)
	_ authz.BlogStore = (*PGRepository)(nil)
	_ authz.RoleStore = (*PGRepository)(nil)
)
