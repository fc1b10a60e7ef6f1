package wire

import (
	"net/http"

	"gym-backoffice/internal/adaptor"
	"gym-backoffice/internal/usecase"
	"gym-backoffice/pkg/middleware"
	"gym-backoffice/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the assembled router and the services behind it.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services and handlers from deps and mounts every route group.
func Wiring(deps usecase.Deps, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(deps, config, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, service.Session, config, logger),
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	sessions usecase.SessionService,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	memberMode := usecase.ModeDenyList
	if config.Auth.MemberDBBacked {
		memberMode = usecase.ModeDBBacked
	}

	r.Route("/api/admin", func(r chi.Router) {
		wireAdmin(r, handler, sessions, logger)
	})
	r.Route("/api/gym-owner", func(r chi.Router) {
		wireGymOwner(r, handler, sessions, logger)
	})
	r.Route("/api/user", func(r chi.Router) {
		wireUser(r, handler, sessions, memberMode, logger)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})

	logger.Info("Routes mounted", zap.String("member_auth_mode", memberMode.String()))
	return r
}
