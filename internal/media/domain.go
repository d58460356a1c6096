// Package media stores uploaded images and serves them back by a uuid URL
// extension.
package media

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Object describes one uploaded file.
type Object struct {
	ID           uuid.UUID
	URLExtension string
	Path         string
	ContentType  string
	Size         int64
	UploaderID   uuid.UUID
	PostID       uuid.NullUUID
	CreatedAt    time.Time
}

var (
	// ErrNotFound indicates no upload matches the URL extension.
	ErrNotFound = fmt.Errorf("media: %w", shared.ErrNotFound)
	// ErrUnsupportedType indicates the upload is not an accepted image type.
	ErrUnsupportedType = errors.New("media: unsupported file type")
	// ErrTooLarge indicates the upload exceeds the size cap.
	ErrTooLarge = errors.New("media: file too large")
	// ErrInvalidPath indicates a storage path escaping the base directory.
	ErrInvalidPath = errors.New("media: invalid storage path")
)
