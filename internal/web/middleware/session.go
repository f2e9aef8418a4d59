package middleware

import (
	"net/http"

	"trackany/internal/auth"
	"trackany/internal/session"
)

// RequireSession rejects authenticated requests whose token identity does
// not match the process-wide session. The companion serves one signed-in
// account at a time; its cache would leak across users otherwise.
func RequireSession(sess *session.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			current, signedIn := sess.UserID()
			if !signedIn || current != uid {
				http.Error(w, "session mismatch", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
