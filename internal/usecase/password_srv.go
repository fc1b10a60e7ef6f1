package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/data/repository"
	"gym-backoffice/internal/dto/request"
	"gym-backoffice/pkg/notify"
	"gym-backoffice/pkg/token"
	"gym-backoffice/pkg/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ForgotPasswordMessage is returned whether or not the identifier resolved.
const ForgotPasswordMessage = "If an account exists with this email or unique ID, a temporary password has been sent"

type PasswordService interface {
	// Invite stores a fresh setup token and sends the link. It reports whether
	// the link was delivered; a failed delivery leaves the token valid.
	Invite(ctx context.Context, identity *entity.Identity) (bool, error)
	SetPassword(ctx context.Context, track entity.Track, req *request.SetPasswordRequest) error
	ForgotPassword(ctx context.Context, track entity.Track, req *request.ForgotPasswordRequest) error
	ChangePassword(ctx context.Context, identityID int64, req *request.ChangePasswordRequest) error
}

type passwordService struct {
	repo     *repository.Repository
	notifier notify.Sender
	clock    clockwork.Clock
	config   *utils.Config
	log      *zap.Logger
}

func NewPasswordService(deps Deps, config *utils.Config, log *zap.Logger) PasswordService {
	return &passwordService{
		repo:     deps.Repo,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		config:   config,
		log:      log.With(zap.String("service", "password")),
	}
}

func (s *passwordService) Invite(ctx context.Context, identity *entity.Identity) (bool, error) {
	opaque, err := token.IssueOpaqueToken()
	if err != nil {
		return false, err
	}
	ttl := s.config.InviteTTL()

	if err := s.repo.Credential.SetResetToken(ctx, identity.ID, opaque, s.clock.Now().Add(ttl)); err != nil {
		return false, fmt.Errorf("store invite token: %w", err)
	}

	link := inviteLink(s.config.App.PublicBaseURL, identity, opaque)
	if err := s.notifier.Send(ctx, inviteMessage(identity, link, ttl)); err != nil {
		s.log.Error("Invite dispatch failed", zap.Error(err), zap.Int64("identity_id", identity.ID))
		return false, nil
	}

	s.log.Info("Invite sent", zap.Int64("identity_id", identity.ID))
	return true, nil
}

func (s *passwordService) SetPassword(ctx context.Context, track entity.Track, req *request.SetPasswordRequest) error {
	if err := s.checkNewPassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	identity, err := lookupIdentity(ctx, s.repo.Identity, track, req.Identifier, s.config.SMS.DefaultCountryCode)
	if err != nil {
		return fmt.Errorf("find identity for set password: %w", err)
	}
	if identity == nil {
		return ErrNotFound
	}

	creds, err := s.repo.Credential.Get(ctx, identity.ID)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil || creds.ResetToken == nil ||
		subtle.ConstantTimeCompare([]byte(*creds.ResetToken), []byte(req.Token)) != 1 {
		s.log.Warn("Set password with invalid token", zap.Int64("identity_id", identity.ID))
		return ErrResetTokenInvalid
	}
	if creds.ResetExpiresAt == nil || s.clock.Now().After(*creds.ResetExpiresAt) {
		s.log.Warn("Set password with expired token", zap.Int64("identity_id", identity.ID))
		return ErrResetTokenExpired
	}

	hash, err := utils.HashPassword(req.NewPassword, s.config.Password.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	redeemed, err := s.repo.Credential.RedeemResetToken(ctx, identity.ID, req.Token, hash, s.clock.Now())
	if err != nil {
		return fmt.Errorf("redeem reset token: %w", err)
	}
	if !redeemed {
		return ErrResetTokenInvalid
	}

	s.log.Info("Password set", zap.Int64("identity_id", identity.ID))
	return nil
}

func (s *passwordService) ForgotPassword(ctx context.Context, track entity.Track, req *request.ForgotPasswordRequest) error {
	identity, err := lookupIdentity(ctx, s.repo.Identity, track, req.Identifier, s.config.SMS.DefaultCountryCode)
	if err != nil {
		return fmt.Errorf("find identity for forgot password: %w", err)
	}
	if identity == nil || !identity.Active {
		s.log.Info("Forgot password for unknown or inactive identifier", zap.String("track", string(track)))
		return nil
	}

	temp, err := utils.GenerateTempPassword()
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(temp, s.config.Password.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.Credential.UpdatePassword(ctx, identity.ID, hash); err != nil {
		return fmt.Errorf("store temporary password: %w", err)
	}

	if err := s.notifier.Send(ctx, tempPasswordMessage(identity, temp)); err != nil {
		s.log.Error("Temporary password dispatch failed", zap.Error(err), zap.Int64("identity_id", identity.ID))
		return nil
	}

	s.log.Info("Temporary password sent", zap.Int64("identity_id", identity.ID))
	return nil
}

func (s *passwordService) ChangePassword(ctx context.Context, identityID int64, req *request.ChangePasswordRequest) error {
	if err := s.checkNewPassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	creds, err := s.repo.Credential.Get(ctx, identityID)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil {
		return ErrNotFound
	}
	if !creds.HasPassword() || !utils.CheckPasswordHash(req.OldPassword, *creds.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := utils.HashPassword(req.NewPassword, s.config.Password.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.Credential.UpdatePassword(ctx, identityID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Info("Password changed", zap.Int64("identity_id", identityID))
	return nil
}

func (s *passwordService) checkNewPassword(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len(password) < s.config.Password.MinLength {
		return ErrPasswordTooWeak
	}
	return nil
}
