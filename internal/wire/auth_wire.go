package wire

import (
	"net/http"

	"gym-backoffice/internal/adaptor"
	"gym-backoffice/internal/data/entity"

	"github.com/go-chi/chi/v5"
)

// wireSession mounts the routes every track shares: password login, refresh,
// and the authenticated self-service group behind authz.
func wireSession(
	r chi.Router,
	handler *adaptor.Handler,
	track entity.Track,
	loginPath string,
	authz func(http.Handler) http.Handler,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Post(loginPath, handler.Auth.Login(track))
	r.Post("/refresh", handler.Auth.Refresh(track))

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(authz)

		r.Get("/me", handler.Auth.Me)
		r.Post("/change-password", handler.Password.ChangePassword)
		r.Post("/logout", handler.Auth.Logout)
	})
}
