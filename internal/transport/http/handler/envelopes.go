package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nulljobs-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"msg,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ChallengeEnvelope wraps responses that hand the client a guest/challenge
// token: the OTP itself travels out-of-band by email, the token identifies
// which challenge is being completed.
type ChallengeEnvelope struct {
	Message string `json:"msg"`
	URL     string `json:"url,omitempty"`
	Token   string `json:"token"`
}

// AuthEnvelope wraps login and verification responses.
type AuthEnvelope struct {
	Message string            `json:"msg,omitempty"`
	Token   *domain.TokenPair `json:"token,omitempty"`
	// GuestToken is set instead of Token when the user still has to complete
	// an OTP challenge.
	GuestToken string       `json:"guest_token,omitempty"`
	Verified   *bool        `json:"verify,omitempty"`
	User       *domain.User `json:"user,omitempty"`
}

// ResetEnvelope wraps the second-stage password-reset capability.
type ResetEnvelope struct {
	Message string `json:"msg"`
	UID     string `json:"uid"`
	Token   string `json:"token"`
}

// PaginatedUsersEnvelope wraps moderator user-list responses.
type PaginatedUsersEnvelope struct {
	Data       []domain.User `json:"data"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors onto HTTP statuses. Tampered tokens
// are 401; expired tokens and OTP mismatches are 400; store and mailer
// failures fall through to 500.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrTokenExpired), errors.Is(err, domain.ErrOTPMismatch), errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func boolPtr(b bool) *bool { return &b }
