package wire

import (
	"gym-backoffice/internal/adaptor"
	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/usecase"
	"gym-backoffice/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireGymOwner configures /api/gym-owner. Protected routes are DB-backed and
// member management is scoped to the calling owner.
func wireGymOwner(r chi.Router, handler *adaptor.Handler, sessions usecase.SessionService, log *zap.Logger) {
	authz := middleware.Authorize(sessions, usecase.ModeDBBacked, log, entity.RoleGymOwner)

	r.Post("/set-password", handler.Password.SetPassword(entity.TrackGymOwner))
	r.Post("/forgot-password", handler.Password.ForgotPassword(entity.TrackGymOwner))
	wireSession(r, handler, entity.TrackGymOwner, "/login", authz)

	// ==================== MEMBER MANAGEMENT ====================
	r.With(authz).Route("/users", func(r chi.Router) {
		r.Post("/", handler.Identity.CreateUser)
		r.Get("/", handler.Identity.ListUsers)
		r.Post("/{id}/invite", handler.Identity.ResendUserInvite)
		r.Patch("/{id}/active", handler.Identity.SetUserActive)
	})
}
