package httpx

import (
	"errors"
	"net/http"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// RespondError maps cross-cutting errors to HTTP responses. Domain handlers
// with a richer taxonomy (roles, blogs) map their own sentinels before
// falling back here.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrNotLoggedIn):
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
