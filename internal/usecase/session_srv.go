package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/data/repository"
	"gym-backoffice/pkg/denylist"
	"gym-backoffice/pkg/token"
	"gym-backoffice/pkg/utils"

	"go.uber.org/zap"
)

// AuthMode selects how a verified token is checked for revocation.
type AuthMode int

const (
	// ModeDBBacked admits only the token currently stored on the identity.
	ModeDBBacked AuthMode = iota
	// ModeDenyList admits any unexpired token that has not been deny-listed.
	ModeDenyList
)

func (m AuthMode) String() string {
	if m == ModeDenyList {
		return "deny-list"
	}
	return "db-backed"
}

type SessionService interface {
	// Authorize verifies raw and returns its claims. With roles set, the token's
	// role must be one of them.
	Authorize(ctx context.Context, raw string, mode AuthMode, roles ...entity.Role) (*token.Claims, error)
	// Logout ends the session carried by raw in both revocation modes.
	Logout(ctx context.Context, raw string, claims *token.Claims) error
	// Revoke ends whatever session the identity currently holds.
	Revoke(ctx context.Context, identityID int64) error
}

type sessionService struct {
	credentials repository.CredentialRepository
	issuer      *token.Issuer
	denyList    denylist.DenyList
	log         *zap.Logger
}

func NewSessionService(deps Deps, log *zap.Logger) SessionService {
	return &sessionService{
		credentials: deps.Repo.Credential,
		issuer:      deps.Issuer,
		denyList:    deps.DenyList,
		log:         log.With(zap.String("service", "session")),
	}
}

func (s *sessionService) Authorize(ctx context.Context, raw string, mode AuthMode, roles ...entity.Role) (*token.Claims, error) {
	if raw == "" {
		return nil, ErrTokenMissing
	}

	claims, err := s.issuer.VerifyAccessToken(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if len(roles) > 0 && !slices.Contains(roles, entity.Role(claims.Role)) {
		s.log.Warn("Role mismatch",
			zap.Int64("identity_id", claims.IdentityID),
			zap.String("role", claims.Role),
		)
		return nil, ErrRoleMismatch
	}

	switch mode {
	case ModeDBBacked:
		creds, err := s.credentials.Get(ctx, claims.IdentityID)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		if creds == nil || creds.SessionToken == nil ||
			subtle.ConstantTimeCompare([]byte(*creds.SessionToken), []byte(raw)) != 1 {
			s.log.Info("Rejected superseded or logged-out token",
				zap.Int64("identity_id", claims.IdentityID),
				utils.TokenField(raw),
			)
			return nil, ErrTokenRevoked
		}
	case ModeDenyList:
		denied, err := s.denyList.IsDenied(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("check deny-list: %w", err)
		}
		if denied {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

func (s *sessionService) Logout(ctx context.Context, raw string, claims *token.Claims) error {
	// Only the presented session is cleared; a newer login stays valid.
	cleared, err := s.credentials.ClearSession(ctx, claims.IdentityID, raw)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	if err := s.denyList.Deny(ctx, raw, claims.Expiry()); err != nil {
		return fmt.Errorf("deny token: %w", err)
	}

	s.log.Info("Logged out",
		zap.Int64("identity_id", claims.IdentityID),
		zap.Bool("session_cleared", cleared),
		utils.TokenField(raw),
	)
	return nil
}

func (s *sessionService) Revoke(ctx context.Context, identityID int64) error {
	prev, err := s.credentials.RevokeSession(ctx, identityID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if prev == nil {
		return nil
	}

	claims, err := s.issuer.VerifyAccessToken(*prev)
	if err != nil {
		// Expired or unparsable tokens cannot be admitted anyway.
		return nil
	}
	if err := s.denyList.Deny(ctx, *prev, claims.Expiry()); err != nil {
		return fmt.Errorf("deny token: %w", err)
	}

	s.log.Info("Session revoked", zap.Int64("identity_id", identityID), utils.TokenField(*prev))
	return nil
}
