package wire

import (
	"gym-backoffice/internal/adaptor"
	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/usecase"
	"gym-backoffice/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures /api/user for members. OTP is the primary login; the
// password login lives under /login/password.
func wireUser(r chi.Router, handler *adaptor.Handler, sessions usecase.SessionService, mode usecase.AuthMode, log *zap.Logger) {
	// ==================== OTP LOGIN ====================
	r.Post("/login", handler.Auth.RequestOTP)
	r.Post("/resend-otp", handler.Auth.ResendOTP)
	r.Post("/verify-otp", handler.Auth.VerifyOTP)

	// ==================== PASSWORD LIFECYCLE ====================
	r.Post("/set-password", handler.Password.SetPassword(entity.TrackUser))
	r.Post("/reset-password", handler.Password.SetPassword(entity.TrackUser))
	r.Post("/forgot-password", handler.Password.ForgotPassword(entity.TrackUser))

	wireSession(r, handler, entity.TrackUser, "/login/password", middleware.Authorize(sessions, mode, log, entity.RoleUser))
}
