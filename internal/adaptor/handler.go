package adaptor

import (
	"gym-backoffice/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth     *AuthHandler
	Password *PasswordHandler
	Identity *IdentityHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, service.Session, service.Identity, log),
		Password: NewPasswordHandler(service.Password, log),
		Identity: NewIdentityHandler(service.Identity, log),
	}
}
