package roles

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/inkwell-blog/inkwell/internal/authz"
	"github.com/inkwell-blog/inkwell/internal/blogs"
	"github.com/inkwell-blog/inkwell/internal/perms"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

var fold = cases.Fold()

const maxNameLength = 40

// Service implements role management. Every mutation runs inside a single
// transaction: the change_permissions check and the write either commit
// together or not at all, so a revoked grant can never slip a mutation
// through after the check.
type Service struct {
	repo    Repository
	audit   *shared.AuditLogger
	logger  *slog.Logger
	denials authz.DenialRecorder
}

// NewService constructs the role service. audit may be nil in tests.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// WithDenialRecorder forwards authorization denials from per-transaction
// engines to rec.
func (s *Service) WithDenialRecorder(rec authz.DenialRecorder) *Service {
	s.denials = rec
	return s
}

func (s *Service) engine(tx TxRepository) *authz.Engine {
	e := authz.NewEngine(tx, tx, s.logger)
	if s.denials != nil {
		e = e.WithDenialRecorder(s.denials)
	}
	return e
}

// gate resolves the blog and verifies the actor may change permissions on
// it. Returns blogs.ErrNotFound or authz.ErrUnauthorized.
func (s *Service) gate(ctx context.Context, tx TxRepository, domain, actor string) (authz.Blog, error) {
	blog, err := tx.LookupBlog(ctx, domain)
	if err != nil {
		return authz.Blog{}, err
	}
	if !s.engine(tx).CanChangePermissions(ctx, domain, actor) {
		return authz.Blog{}, authz.ErrUnauthorized
	}
	return blog, nil
}

// Create adds a role to the blog. Unknown permission names are skipped, so
// a role created with only unknown names ends up with an empty bitmask.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, actor, domain, name string, permissions []string) error {
	if strings.TrimSpace(name) == "" || len(name) > maxNameLength {
		return ErrInvalidName
	}
	folded := fold.String(name)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		blog, err := s.gate(ctx, tx, domain, actor)
		if err != nil {
			return err
		}
		return tx.CreateRole(ctx, Role{
			ID:          uuid.New(),
			BlogID:      blog.ID,
			Name:        folded,
			Permissions: perms.Encode(permissions),
			CreatorID:   actorID,
			CreatedAt:   time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "role.create", domain, folded, map[string]any{"permissions": permissions})
	return nil
}

// SetPermissions replaces the role's bitmask with the encoded names.
func (s *Service) SetPermissions(ctx context.Context, actorID uuid.UUID, actor, domain, name string, permissions []string) error {
	return s.updateMask(ctx, actorID, actor, domain, name, "role.update", func(perms.Mask) perms.Mask {
		return perms.Encode(permissions)
	})
}

// AddPermissions sets the encoded bits on top of the role's current mask.
func (s *Service) AddPermissions(ctx context.Context, actorID uuid.UUID, actor, domain, name string, permissions []string) error {
	return s.updateMask(ctx, actorID, actor, domain, name, "role.add_permissions", func(current perms.Mask) perms.Mask {
		return current | perms.Encode(permissions)
	})
}

// RemovePermissions clears the encoded bits from the role's current mask.
// Removing a permission the role never had is a no-op.
func (s *Service) RemovePermissions(ctx context.Context, actorID uuid.UUID, actor, domain, name string, permissions []string) error {
	return s.updateMask(ctx, actorID, actor, domain, name, "role.remove_permissions", func(current perms.Mask) perms.Mask {
		return current &^ perms.Encode(permissions)
	})
}

func (s *Service) updateMask(ctx context.Context, actorID uuid.UUID, actor, domain, name, action string, apply func(perms.Mask) perms.Mask) error {
	folded := fold.String(name)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		blog, err := s.gate(ctx, tx, domain, actor)
		if err != nil {
			return err
		}
		role, err := tx.FindRole(ctx, blog.ID, folded)
		if err != nil {
			return err
		}
		return tx.SetRolePermissions(ctx, role.ID, apply(role.Permissions))
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, action, domain, folded, nil)
	return nil
}

// Delete removes the role and, through the cascade, its assignments.
// Deleting a role that does not exist succeeds silently.
func (s *Service) Delete(ctx context.Context, actorID uuid.UUID, actor, domain, name string) error {
	folded := fold.String(name)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		blog, err := s.gate(ctx, tx, domain, actor)
		if err != nil {
			return err
		}
		return tx.DeleteRole(ctx, blog.ID, folded)
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "role.delete", domain, folded, nil)
	return nil
}

// Give assigns the role to the user. Assigning a role the user already
// holds succeeds without change.
func (s *Service) Give(ctx context.Context, actorID uuid.UUID, actor, domain, name, username string) error {
	folded := fold.String(name)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		blog, err := s.gate(ctx, tx, domain, actor)
		if err != nil {
			return err
		}
		userID, err := tx.LookupUserID(ctx, username)
		if err != nil {
			return err
		}
		role, err := tx.FindRole(ctx, blog.ID, folded)
		if err != nil {
			return err
		}
		return tx.Assign(ctx, role.ID, userID)
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "role.give", domain, folded, map[string]any{"user": username})
	return nil
}

// Take removes the role from the user. Missing role, missing user, and a
// user who never held the role all succeed silently.
func (s *Service) Take(ctx context.Context, actorID uuid.UUID, actor, domain, name, username string) error {
	folded := fold.String(name)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		blog, err := s.gate(ctx, tx, domain, actor)
		if err != nil {
			return err
		}
		return tx.Revoke(ctx, blog.ID, folded, username)
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "role.take", domain, folded, map[string]any{"user": username})
	return nil
}

// Permissions lists the permission names a role grants. A missing blog
// reads the same as a missing role.
func (s *Service) Permissions(ctx context.Context, domain, name string) ([]string, error) {
	blog, err := s.repo.LookupBlog(ctx, domain)
	if err != nil {
		if errors.Is(err, blogs.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	role, err := s.repo.FindRole(ctx, blog.ID, fold.String(name))
	if err != nil {
		return nil, err
	}
	return perms.List(role.Permissions), nil
}

// RoleNames lists the role names on a blog. A missing blog lists empty.
func (s *Service) RoleNames(ctx context.Context, domain string) ([]string, error) {
	blog, err := s.repo.LookupBlog(ctx, domain)
	if err != nil {
		if errors.Is(err, blogs.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	return emptyNotNil(s.repo.RoleNames(ctx, blog.ID))
}

// UsersWithRole lists usernames holding the named role.
func (s *Service) UsersWithRole(ctx context.Context, domain, name string) ([]string, error) {
	blog, err := s.repo.LookupBlog(ctx, domain)
	if err != nil {
		if errors.Is(err, blogs.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	return emptyNotNil(s.repo.UsersWithRole(ctx, blog.ID, fold.String(name)))
}

// RolesForUser lists the role names a user holds on the blog. Roles the
// user holds on other blogs never appear here.
func (s *Service) RolesForUser(ctx context.Context, domain, username string) ([]string, error) {
	blog, err := s.repo.LookupBlog(ctx, domain)
	if err != nil {
		if errors.Is(err, blogs.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	return emptyNotNil(s.repo.RolesForUser(ctx, blog.ID, username))
}

// UsersWithPermission lists usernames that hold the permission through any
// role on the blog. Unknown permission names list empty rather than erroring.
func (s *Service) UsersWithPermission(ctx context.Context, domain, permission string) ([]string, error) {
	bit, ok := perms.Lookup(permission)
	if !ok {
		return []string{}, nil
	}
	blog, err := s.repo.LookupBlog(ctx, domain)
	if err != nil {
		if errors.Is(err, blogs.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	return emptyNotNil(s.repo.UsersWithPermission(ctx, blog.ID, bit))
}

// CreatedBy lists the roles the user created across all blogs.
func (s *Service) CreatedBy(ctx context.Context, creatorID uuid.UUID) ([]CreatedRole, error) {
	created, err := s.repo.RolesCreatedBy(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = []CreatedRole{}
	}
	return created, nil
}

func emptyNotNil(list []string, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func (s *Service) record(ctx context.Context, actorID uuid.UUID, action, domain, name string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID.String(),
		Action:   action,
		Entity:   "role",
		EntityID: domain + "/" + name,
		Meta:     meta,
		At:       time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
