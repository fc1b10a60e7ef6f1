package adaptor

import (
	"net/http"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/dto/request"
	"gym-backoffice/internal/usecase"
	"gym-backoffice/pkg/utils"

	"go.uber.org/zap"
)

type PasswordHandler struct {
	service usecase.PasswordService
	log     *zap.Logger
}

func NewPasswordHandler(service usecase.PasswordService, log *zap.Logger) *PasswordHandler {
	return &PasswordHandler{
		service: service,
		log:     log,
	}
}

// SetPassword handles POST /api/{track}/set-password and the member
// /reset-password alias.
func (h *PasswordHandler) SetPassword(track entity.Track) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req request.SetPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := h.service.SetPassword(r.Context(), track, &req); err != nil {
			handleServiceError(w, h.log, err, "set password")
			return
		}

		utils.ResponseSuccess(w, "Password set successfully", nil)
	}
}

// ForgotPassword handles POST /api/{track}/forgot-password. The reply is the
// same whether or not the identifier matched an account.
func (h *PasswordHandler) ForgotPassword(track entity.Track) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req request.ForgotPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := h.service.ForgotPassword(r.Context(), track, &req); err != nil {
			h.log.Error("Forgot password failed", zap.String("track", string(track)), zap.Error(err))
		}

		utils.ResponseSuccess(w, usecase.ForgotPasswordMessage, nil)
	}
}

// ChangePassword handles POST /api/{track}/change-password
func (h *PasswordHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identityID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), identityID, &req); err != nil {
		handleServiceError(w, h.log, err, "change password")
		return
	}

	utils.ResponseSuccess(w, "Password changed successfully", nil)
}
