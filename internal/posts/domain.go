// Package posts implements blog post publishing and listing.
package posts

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes text posts from picture posts.
type Kind string

const (
	KindText    Kind = "text"
	KindPicture Kind = "picture"
)

// Valid reports whether the kind is one the store accepts.
func (k Kind) Valid() bool {
	return k == KindText || k == KindPicture
}

// Post is a single entry on a blog. Picture posts carry the media URL
// extension in Content.
type Post struct {
	ID        uuid.UUID `json:"id"`
	BlogID    uuid.UUID `json:"-"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Deleted   bool      `json:"-"`
}

// ErrUnknownKind indicates a post kind outside text/picture.
var ErrUnknownKind = errors.New("posts: unknown post kind")
