package users

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// User represents a registered account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = fmt.Errorf("users: %w", shared.ErrNotFound)
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("users: username taken")
	// ErrEmailTaken indicates the email address is already registered.
	ErrEmailTaken = errors.New("users: email taken")
)
