package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Middleware wires blog authorization decisions into HTTP routes. Routes
// using it must carry a {domain} URL parameter.
type Middleware struct {
	Engine *Engine
	Logger *slog.Logger
}

// RequireRead denies the request unless the caller can read the blog.
func (m Middleware) RequireRead() func(http.Handler) http.Handler {
	return m.require("read", (*Engine).CanRead)
}

// RequireWrite denies the request unless the caller can post to the blog.
func (m Middleware) RequireWrite() func(http.Handler) http.Handler {
	return m.require("write", (*Engine).CanWrite)
}

func (m Middleware) require(name string, check func(*Engine, context.Context, string, string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			domain := chi.URLParam(r, "domain")
			username := shared.CurrentUsername(r.Context())
			if !check(m.Engine, r.Context(), domain, username) {
				if m.Logger != nil {
					m.Logger.Warn("authorization denied",
						slog.String("decision", name),
						slog.String("domain", domain),
						slog.String("username", username))
				}
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "user may not "+name+" this blog")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
