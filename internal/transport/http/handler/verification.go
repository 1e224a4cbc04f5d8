package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nulljobs-api/internal/application/session"
	"github.com/nulljobs-api/internal/application/verification"
	"github.com/nulljobs-api/internal/pkg/validate"
	"github.com/nulljobs-api/internal/transport/http/middleware"
)

// VerificationHandler drives the three OTP challenge flows: register-verify,
// password-reset and password-change. The guest token travels as a query
// parameter; the OTP arrives in the request body.
type VerificationHandler struct {
	svc      verification.Service
	sessions session.Service
}

func NewVerificationHandler(svc verification.Service, sessions session.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc, sessions: sessions}
}

type otpRequest struct {
	OTP string `json:"otp" validate:"required"`
}

// VerifyOTP completes a register-verify challenge and logs the user in.
func (h *VerificationHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, err := h.svc.CompleteVerify(r.Context(), r.URL.Query().Get("token"), req.OTP)
	if err != nil {
		httpError(w, err)
		return
	}
	pair, err := h.sessions.IssueSession(u)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{Message: "OTP Verified Successfully!", Token: pair})
}

// RequestReset starts a password-reset challenge for the given email.
func (h *VerificationHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	token, err := h.svc.StartChallengeByEmail(r.Context(), req.Email, verification.PurposeResetPassword)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChallengeEnvelope{
		Message: "OTP Sent Successfully. Please Check your Email",
		Token:   token,
	})
}

// VerifyReset checks the reset OTP and returns the second-stage capability.
func (h *VerificationHandler) VerifyReset(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	uid, capability, err := h.svc.CompleteReset(r.Context(), r.URL.Query().Get("token"), req.OTP)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetEnvelope{Message: "Verified Successfully!", UID: uid, Token: capability})
}

// ConfirmReset consumes the reset capability and sets the new password.
func (h *VerificationHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	uid := r.URL.Query().Get("uid")
	token := r.URL.Query().Get("token")
	if err := h.svc.SetPassword(r.Context(), uid, token, req.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password Reset Successfully"})
}

// RequestChange starts the authenticated change-password challenge.
func (h *VerificationHandler) RequestChange(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.RequestPasswordChange(r.Context(), claims.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP Sent Successfully. Please Check your Email"})
}

// ConfirmChange checks the OTP and installs the new password.
func (h *VerificationHandler) ConfirmChange(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		OTP         string `json:"otp" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.svc.ConfirmPasswordChange(r.Context(), claims.UserID, req.OTP, req.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password Changed Successfully"})
}
