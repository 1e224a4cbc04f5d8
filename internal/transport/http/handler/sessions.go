package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nulljobs-api/internal/application/session"
	"github.com/nulljobs-api/internal/pkg/validate"
)

// SessionHandler handles login, logout, refresh and Google login.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Login is 3-way: verified users get a token pair, unverified users with the
// right password get a fresh challenge instead of a rejection, and bad
// credentials are rejected without revealing whether the account exists.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	if !result.Verified {
		writeJSON(w, http.StatusOK, AuthEnvelope{
			Message:    "User not verified",
			GuestToken: result.GuestToken,
			Verified:   boolPtr(false),
		})
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Message:  "Login Success",
		Token:    result.Tokens,
		Verified: boolPtr(true),
		User:     result.User,
	})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token required")
		return
	}
	if err := h.svc.Logout(r.Context(), req.RefreshToken); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "LogOut Successfully"})
}

func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token required")
		return
	}
	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Token: pair})
}

// GoogleLogin exchanges a verified Google ID token for a session pair,
// creating the account on first login.
func (h *SessionHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "id_token required")
		return
	}
	pair, u, err := h.svc.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Message: "Success", Token: pair, User: u})
}
