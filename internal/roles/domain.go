// Package roles manages blog-scoped roles: named permission bundles that can
// be assigned to users. Every mutation is gated by the change_permissions
// decision of the authorization engine, checked inside the same transaction
// as the write.
package roles

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/perms"
)

// Role is a named, blog-scoped bundle of permissions. Names are stored
// lowercase; (blog, name) is unique.
type Role struct {
	ID          uuid.UUID
	BlogID      uuid.UUID
	Name        string
	Permissions perms.Mask
	CreatorID   uuid.UUID
	CreatedAt   time.Time
}

// CreatedRole summarises a role for the "roles I created" listing.
type CreatedRole struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

var (
	// ErrRoleNotFound indicates the role does not exist on the target blog.
	ErrRoleNotFound = errors.New("roles: role not found")
	// ErrDuplicateRole indicates a (blog, name) collision on create.
	ErrDuplicateRole = errors.New("roles: duplicate role")
	// ErrInvalidName indicates the role name is empty, blank, or too long.
	ErrInvalidName = errors.New("roles: invalid role name")
)
