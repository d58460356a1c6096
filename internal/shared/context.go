package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// CurrentUsername returns the logged-in username for the request, or the
// empty string for anonymous callers. The authorization engine treats the
// empty string as "anonymous".
func CurrentUsername(ctx context.Context) string {
	sess := SessionFromContext(ctx)
	if sess == nil || !sess.Authenticated() {
		return ""
	}
	return sess.Username()
}

// CurrentUserID returns the logged-in user ID, empty for anonymous callers.
func CurrentUserID(ctx context.Context) string {
	sess := SessionFromContext(ctx)
	if sess == nil || !sess.Authenticated() {
		return ""
	}
	return sess.UserID()
}
