package blogs

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/perms"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Blog is a user-owned content site identified by a unique domain-like name.
// Permissions holds the default bitmask applied to any visitor, including
// anonymous ones, when no role grants access. Zero means private.
type Blog struct {
	ID          uuid.UUID
	DomainName  string
	Title       string
	OwnerID     uuid.UUID
	Permissions perms.Mask
	ThemeID     uuid.NullUUID
	CreatedAt   time.Time
}

var (
	// ErrNotFound indicates the requested blog does not exist.
	ErrNotFound = fmt.Errorf("blogs: %w", shared.ErrNotFound)
	// ErrDomainTaken indicates the domain name is already in use.
	ErrDomainTaken = errors.New("blogs: domain name in use")
	// ErrAlreadyOwned indicates the user already owns a blog. A user may own
	// at most one blog in the current model.
	ErrAlreadyOwned = errors.New("blogs: user already owns a blog")
)
