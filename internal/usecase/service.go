package usecase

import (
	"context"
	"strings"
	"time"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/data/repository"
	"gym-backoffice/pkg/denylist"
	"gym-backoffice/pkg/notify"
	"gym-backoffice/pkg/token"
	"gym-backoffice/pkg/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Service struct {
	Auth     AuthService
	Session  SessionService
	Password PasswordService
	Identity IdentityService
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Repo     *repository.Repository
	Issuer   *token.Issuer
	Notifier notify.Sender
	DenyList denylist.DenyList
	Clock    clockwork.Clock
}

func NewService(deps Deps, config *utils.Config, log *zap.Logger) *Service {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	otp := NewOTPEngine(config.OTP.Length, config.OTPWindow(), deps.Clock)
	password := NewPasswordService(deps, config, log)
	session := NewSessionService(deps, log)

	return &Service{
		Auth:     NewAuthService(deps, otp, config, log),
		Session:  session,
		Password: password,
		Identity: NewIdentityService(deps, password, session, config, log),
	}
}

// lookupIdentity resolves an email, public id or phone number within one track.
func lookupIdentity(ctx context.Context, repo repository.IdentityRepository, track entity.Track, identifier, countryCode string) (*entity.Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}

	if strings.Contains(identifier, "@") {
		return repo.FindByEmail(ctx, track, strings.ToLower(identifier))
	}

	identity, err := repo.FindByPublicID(ctx, track, strings.ToUpper(identifier))
	if err != nil || identity != nil {
		return identity, err
	}
	return repo.FindByPhone(ctx, track, utils.NormalizePhone(identifier, countryCode))
}

func claimsFor(identity *entity.Identity) token.Claims {
	claims := token.Claims{
		IdentityID: identity.ID,
		Role:       string(identity.Role),
		Contact:    identity.Contact(),
	}
	if identity.Track == entity.TrackUser {
		claims.GymOwnerID = identity.GymOwnerID
	}
	return claims
}

func accessTTL(config *utils.Config, track entity.Track) time.Duration {
	switch track {
	case entity.TrackAdmin:
		return config.JWT.AdminTTL
	case entity.TrackGymOwner:
		return config.JWT.GymOwnerTTL
	default:
		return config.JWT.UserTTL
	}
}
