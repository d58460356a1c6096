package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotLoggedIn indicates the caller has no authenticated session.
	ErrNotLoggedIn = errors.New("not logged in")
)

// UserSafeMessage maps internal errors to text safe to show a caller.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid credentials"
	case errors.Is(err, ErrNotLoggedIn):
		return "login required"
	default:
		return "something went wrong"
	}
}
