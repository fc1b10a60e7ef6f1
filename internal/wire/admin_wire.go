package wire

import (
	"gym-backoffice/internal/adaptor"
	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/usecase"
	"gym-backoffice/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireAdmin configures /api/admin. Every protected admin route is DB-backed.
func wireAdmin(r chi.Router, handler *adaptor.Handler, sessions usecase.SessionService, log *zap.Logger) {
	authz := middleware.Authorize(sessions, usecase.ModeDBBacked, log, entity.AdminRoles...)

	r.Post("/register", handler.Identity.RegisterAdmin)
	wireSession(r, handler, entity.TrackAdmin, "/login", authz)

	// ==================== GYM OWNER MANAGEMENT ====================
	r.With(authz).Route("/gym-owners", func(r chi.Router) {
		r.Post("/", handler.Identity.CreateGymOwner) // POST /api/admin/gym-owners
		r.Get("/", handler.Identity.ListGymOwners)   // GET /api/admin/gym-owners?page=1&per_page=10
		r.Post("/{id}/invite", handler.Identity.ResendGymOwnerInvite)
		r.Patch("/{id}/active", handler.Identity.SetGymOwnerActive)
	})

	// ==================== SUPERADMIN ROUTES ====================
	r.With(
		middleware.Authorize(sessions, usecase.ModeDBBacked, log, entity.RoleSuperAdmin),
	).Post("/admins", handler.Identity.CreateAdmin)
}
