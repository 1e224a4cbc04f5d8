package middleware

import (
	"net/http"
)

// RequireModerator allows access only to users whose access token carries
// the is_moderator claim. Moderation rights are an attribute of the user,
// checked here at the HTTP boundary, not inside the services.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !claims.IsModerator {
			writeJSONError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
