// Package themes manages the shared catalogue of blog themes. A theme is
// submitted with a repository path, reviewed out of band, and becomes
// selectable by blogs once its status is merged.
package themes

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Status tracks where a theme is in review.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusMerged  Status = "merged"
)

// Valid reports whether the status is one the store accepts.
func (s Status) Valid() bool {
	return s == StatusUnknown || s == StatusMerged
}

// Theme is a submitted blog theme.
type Theme struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatorID uuid.UUID `json:"-"`
	Creator   string    `json:"creator,omitempty"`
	Path      string    `json:"path"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrNotFound indicates the theme does not exist.
	ErrNotFound = fmt.Errorf("themes: %w", shared.ErrNotFound)
	// ErrDuplicateTheme indicates the creator already has a theme by that name.
	ErrDuplicateTheme = errors.New("themes: duplicate theme")
	// ErrNotCreator indicates someone other than the creator tried to change
	// the theme's status.
	ErrNotCreator = errors.New("themes: not the theme creator")
	// ErrUnknownStatus indicates a status outside unknown/merged.
	ErrUnknownStatus = errors.New("themes: unknown status")
)
