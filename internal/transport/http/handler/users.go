package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nulljobs-api/internal/application/user"
	"github.com/nulljobs-api/internal/application/verification"
	"github.com/nulljobs-api/internal/domain"
	"github.com/nulljobs-api/internal/pkg/validate"
	"github.com/nulljobs-api/internal/transport/http/middleware"
)

// UserHandler handles registration, profile and moderator listing.
type UserHandler struct {
	svc      user.Service
	verifier verification.Service
}

func NewUserHandler(svc user.Service, verifier verification.Service) *UserHandler {
	return &UserHandler{svc: svc, verifier: verifier}
}

// Register creates an unverified account and immediately starts the verify
// challenge. The client gets the guest token back; the OTP goes by email.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	token, err := h.verifier.StartChallenge(r.Context(), u, verification.PurposeVerify)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChallengeEnvelope{
		Message: "OTP Sent Successfully. Please Check your Email",
		URL:     "otp/verify/",
		Token:   token,
	})
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.svc.Get(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Deactivate soft-deletes the caller's own account.
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Deactivate(r.Context(), claims.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Account Deactivated Successfully"})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cursor := r.URL.Query().Get("cursor")
	users, next, err := h.svc.List(r.Context(), limit, cursor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PaginatedUsersEnvelope{Data: users, NextCursor: next})
}
