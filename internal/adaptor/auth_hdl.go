package adaptor

import (
	"net/http"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/dto/request"
	"gym-backoffice/internal/usecase"
	"gym-backoffice/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service  usecase.AuthService
	sessions usecase.SessionService
	identity usecase.IdentityService
	log      *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, sessions usecase.SessionService, identity usecase.IdentityService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		identity: identity,
		log:      log,
	}
}

// ==================== MEMBER OTP ====================

// RequestOTP handles POST /api/user/login
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req request.OTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.RequestOTP(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "request OTP")
		return
	}

	utils.ResponseSuccess(w, otpMessage(resp.OTPSent), resp)
}

// ResendOTP handles POST /api/user/resend-otp
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req request.ResendOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.ResendOTP(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "resend OTP")
		return
	}

	utils.ResponseSuccess(w, otpMessage(resp.OTPSent), resp)
}

// VerifyOTP handles POST /api/user/verify-otp
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.VerifyOTP(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "verify OTP")
		return
	}

	utils.ResponseSuccess(w, "Login successful", resp)
}

func otpMessage(sent bool) string {
	if sent {
		return "OTP sent successfully"
	}
	return "OTP generated but could not be sent"
}

// ==================== PASSWORD LOGIN ====================

// Login handles POST /api/{track}/login (and /api/user/login/password).
func (h *AuthHandler) Login(track entity.Track) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req request.PasswordLoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := h.service.LoginWithPassword(r.Context(), track, &req)
		if err != nil {
			handleServiceError(w, h.log, err, "login")
			return
		}

		utils.ResponseSuccess(w, "Login successful", resp)
	}
}

// Refresh handles POST /api/{track}/refresh
func (h *AuthHandler) Refresh(track entity.Track) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req request.RefreshRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := h.service.Refresh(r.Context(), track, &req)
		if err != nil {
			handleServiceError(w, h.log, err, "refresh token")
			return
		}

		utils.ResponseSuccess(w, "Token refreshed", resp)
	}
}

// ==================== SESSION ====================

// Logout handles POST /api/{track}/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := utils.GetClaimsFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	raw, _ := utils.GetTokenFromContext(r.Context())

	if err := h.sessions.Logout(r.Context(), raw, claims); err != nil {
		handleServiceError(w, h.log, err, "logout")
		return
	}

	utils.ResponseSuccess(w, "Logout successful", nil)
}

// Me handles GET /api/{track}/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identityID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.identity.Me(r.Context(), identityID)
	if err != nil {
		handleServiceError(w, h.log, err, "get profile")
		return
	}

	utils.ResponseSuccess(w, "Profile retrieved successfully", resp)
}
