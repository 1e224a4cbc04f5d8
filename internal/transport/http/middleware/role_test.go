package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	jwtinfra "github.com/nulljobs-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
)

func TestRequireModerator(t *testing.T) {
	cases := []struct {
		name   string
		claims *jwtinfra.AccessClaims
		want   int
	}{
		{"moderator passes", &jwtinfra.AccessClaims{UserID: "u1", IsModerator: true}, http.StatusOK},
		{"non-moderator forbidden", &jwtinfra.AccessClaims{UserID: "u2"}, http.StatusForbidden},
		{"no claims unauthorized", nil, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequireModerator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.claims != nil {
				req = req.WithContext(context.WithValue(req.Context(), ClaimsKey, tc.claims))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
