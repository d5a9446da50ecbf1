package server

import (
	"net/http"

	"github.com/upliftai/uplift/config"
	"github.com/upliftai/uplift/pkg/auth"
	"github.com/upliftai/uplift/pkg/models"
)

const versionHeader = "X-Uplift-Version"

// SendVersion is a middleware that adds the current version to the response
func SendVersion(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if w.Header().Get(versionHeader) == "" {
			w.Header().Add(
				versionHeader,
				config.VersionString,
			)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

// RequireAdmin rejects requests whose token does not carry the admin claim.
// When auth is not required (development), the check is skipped.
func RequireAdmin(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Auth.Required && !auth.IsAdminFromContext(r.Context()) {
				renderError(w, models.NewForbiddenError("admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
