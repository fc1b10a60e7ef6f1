package middleware

import (
	"errors"
	"net/http"
	"strings"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/usecase"
	"gym-backoffice/pkg/utils"

	"go.uber.org/zap"
)

// Authorize admits a request only if its bearer token passes the session check
// in the given mode and carries one of roles. Claims and the raw token are put on
// the request context.
func Authorize(sessions usecase.SessionService, mode usecase.AuthMode, logger *zap.Logger, roles ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				utils.ResponseUnauthorized(w, usecase.ErrTokenMissing.Error())
				return
			}

			claims, err := sessions.Authorize(r.Context(), raw, mode, roles...)
			if err != nil {
				switch {
				case errors.Is(err, usecase.ErrRoleMismatch):
					logger.Warn("Role check failed", zap.String("path", r.URL.Path))
					utils.ResponseForbidden(w, err.Error())
				case errors.Is(err, usecase.ErrTokenMissing),
					errors.Is(err, usecase.ErrTokenInvalid),
					errors.Is(err, usecase.ErrTokenExpired),
					errors.Is(err, usecase.ErrTokenRevoked):
					logger.Warn("Token rejected",
						utils.TokenField(raw),
						zap.String("mode", mode.String()),
						zap.Error(err),
					)
					utils.ResponseUnauthorized(w, err.Error())
				default:
					logger.Error("Failed to authorize request", zap.Error(err), zap.String("path", r.URL.Path))
					utils.ResponseInternalError(w, "Internal server error")
				}
				return
			}

			ctx := utils.SetClaimsContext(r.Context(), claims, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}
