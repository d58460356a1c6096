// Package authz decides what a user (or anonymous visitor) may do on a blog.
//
// Decisions combine three sources, strictly in this order: blog ownership,
// the blog's default permission bitmask, and the union of the user's role
// permissions on that blog. Ownership always wins; roles from other blogs
// never count.
package authz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/perms"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// ErrUnauthorized indicates the acting user is not allowed to perform the
// attempted mutation. Handlers map it to 401.
var ErrUnauthorized = errors.New("authz: unauthorized action")

// Blog carries the slice of blog state the engine needs.
type Blog struct {
	ID            uuid.UUID
	OwnerUsername string
	DefaultPerms  perms.Mask
}

// BlogStore resolves a domain name to blog authorization state. Absence is
// signalled with an error wrapping shared.ErrNotFound.
type BlogStore interface {
	LookupBlog(ctx context.Context, domain string) (Blog, error)
}

// RoleStore answers whether a user holds any role on the blog whose bitmask
// carries the given bit. Implementations must evaluate the bit test against
// roles of that blog only.
type RoleStore interface {
	UserHoldsPermission(ctx context.Context, blogID uuid.UUID, username string, bit perms.Mask) (bool, error)
}

// DenialRecorder counts denied decisions, keyed by decision name.
type DenialRecorder interface {
	AuthzDenied(decision string)
}

// Engine computes authorization decisions. It is a pure read path: it never
// mutates state and never returns an error to callers — lookup failures
// deny.
type Engine struct {
	blogs   BlogStore
	roles   RoleStore
	logger  *slog.Logger
	denials DenialRecorder
}

// NewEngine constructs an Engine over the given stores.
func NewEngine(blogs BlogStore, roles RoleStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{blogs: blogs, roles: roles, logger: logger}
}

// WithDenialRecorder attaches a metrics sink for denied decisions.
func (e *Engine) WithDenialRecorder(rec DenialRecorder) *Engine {
	e.denials = rec
	return e
}

// CanRead reports whether username (empty = anonymous) may read the blog.
func (e *Engine) CanRead(ctx context.Context, domain, username string) bool {
	return e.allowed(ctx, "read", domain, username, perms.Read)
}

// CanWrite reports whether username may post to the blog.
func (e *Engine) CanWrite(ctx context.Context, domain, username string) bool {
	return e.allowed(ctx, "write", domain, username, perms.Write)
}

// CanChangePermissions reports whether username may manage roles on the blog.
func (e *Engine) CanChangePermissions(ctx context.Context, domain, username string) bool {
	return e.allowed(ctx, "change_permissions", domain, username, perms.ChangePermissions)
}

// CanChangeTheme reports whether username may change the blog's theme.
func (e *Engine) CanChangeTheme(ctx context.Context, domain, username string) bool {
	return e.allowed(ctx, "change_theme", domain, username, perms.ChangeTheme)
}

func (e *Engine) allowed(ctx context.Context, decision, domain, username string, bit perms.Mask) bool {
	blog, err := e.blogs.LookupBlog(ctx, domain)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			e.logger.Error("authz blog lookup", slog.String("domain", domain), slog.Any("error", err))
		}
		return e.deny(decision)
	}

	// Anonymous callers can only be let in by the blog's own defaults.
	if username == "" {
		if blog.DefaultPerms&bit != 0 {
			return true
		}
		return e.deny(decision)
	}

	// Ownership is checked before any bitmask: an owner holding a
	// zero-permission role must still pass.
	if blog.OwnerUsername == username {
		return true
	}

	if blog.DefaultPerms&bit != 0 {
		return true
	}

	held, err := e.roles.UserHoldsPermission(ctx, blog.ID, username, bit)
	if err != nil {
		e.logger.Error("authz role lookup",
			slog.String("domain", domain),
			slog.String("username", username),
			slog.Any("error", err))
		return e.deny(decision)
	}
	if held {
		return true
	}
	return e.deny(decision)
}

func (e *Engine) deny(decision string) bool {
	if e.denials != nil {
		e.denials.AuthzDenied(decision)
	}
	return false
}
