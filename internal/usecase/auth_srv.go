package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/data/repository"
	"gym-backoffice/internal/dto/request"
	"gym-backoffice/internal/dto/response"
	"gym-backoffice/pkg/notify"
	"gym-backoffice/pkg/token"
	"gym-backoffice/pkg/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// AuthService runs the OTP and password login protocols. Both end by making the
// newly issued access token the identity's only valid session.
type AuthService interface {
	RequestOTP(ctx context.Context, req *request.OTPRequest) (*response.OTPResponse, error)
	ResendOTP(ctx context.Context, req *request.ResendOTPRequest) (*response.OTPResponse, error)
	VerifyOTP(ctx context.Context, req *request.VerifyOTPRequest) (*response.AuthResponse, error)
	LoginWithPassword(ctx context.Context, track entity.Track, req *request.PasswordLoginRequest) (*response.AuthResponse, error)
	Refresh(ctx context.Context, track entity.Track, req *request.RefreshRequest) (*response.AuthResponse, error)
}

type authService struct {
	repo     *repository.Repository
	issuer   *token.Issuer
	otp      *OTPEngine
	notifier notify.Sender
	clock    clockwork.Clock
	config   *utils.Config
	log      *zap.Logger
}

func NewAuthService(deps Deps, otp *OTPEngine, config *utils.Config, log *zap.Logger) AuthService {
	return &authService{
		repo:     deps.Repo,
		issuer:   deps.Issuer,
		otp:      otp,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		config:   config,
		log:      log.With(zap.String("service", "auth")),
	}
}

// ==================== OTP LOGIN ====================

func (s *authService) RequestOTP(ctx context.Context, req *request.OTPRequest) (*response.OTPResponse, error) {
	phone := utils.NormalizePhone(req.Phone, s.config.SMS.DefaultCountryCode)

	var (
		identity *entity.Identity
		err      error
	)
	if req.UniqueID != "" {
		identity, err = s.repo.Identity.FindByPublicID(ctx, entity.TrackUser, strings.ToUpper(strings.TrimSpace(req.UniqueID)))
		if identity != nil && (identity.Phone == nil || *identity.Phone != phone) {
			identity = nil
		}
	} else {
		identity, err = s.repo.Identity.FindByPhone(ctx, entity.TrackUser, phone)
	}
	if err != nil {
		return nil, fmt.Errorf("find member for otp: %w", err)
	}

	return s.issueOTP(ctx, identity, phone, req.DeviceToken)
}

func (s *authService) ResendOTP(ctx context.Context, req *request.ResendOTPRequest) (*response.OTPResponse, error) {
	phone := utils.NormalizePhone(req.Phone, s.config.SMS.DefaultCountryCode)
	identity, err := s.repo.Identity.FindByPhone(ctx, entity.TrackUser, phone)
	if err != nil {
		return nil, fmt.Errorf("find member for otp resend: %w", err)
	}

	return s.issueOTP(ctx, identity, phone, nil)
}

// issueOTP persists a fresh code and sends it. A failed send leaves the code
// valid; outside production the code is returned so testing can continue.
func (s *authService) issueOTP(ctx context.Context, identity *entity.Identity, phone string, deviceToken *string) (*response.OTPResponse, error) {
	if identity == nil {
		s.log.Warn("OTP requested for unknown member")
		return nil, ErrNotFound
	}
	if !identity.Active {
		s.log.Warn("OTP requested for deactivated member", zap.Int64("identity_id", identity.ID))
		return nil, ErrDeactivated
	}

	code, err := s.otp.Generate()
	if err != nil {
		return nil, err
	}
	issuedAt := s.clock.Now()

	if err := s.repo.Credential.SetOTP(ctx, identity.ID, code, issuedAt, deviceToken); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	resp := &response.OTPResponse{
		OTPSent:   true,
		ExpiresAt: issuedAt.Add(s.otp.Window()),
	}

	if err := s.notifier.Send(ctx, otpMessage(phone, code, s.otp.Window())); err != nil {
		resp.OTPSent = false
		if s.config.IsProduction() {
			s.log.Error("OTP dispatch failed", zap.Error(err), zap.Int64("identity_id", identity.ID))
			return nil, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
		}
		s.log.Warn("OTP dispatch failed, returning code in response",
			zap.Error(err),
			zap.Int64("identity_id", identity.ID),
		)
		resp.OTP = code
	}

	s.log.Info("OTP issued", zap.Int64("identity_id", identity.ID), zap.Bool("sent", resp.OTPSent))
	return resp, nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *request.VerifyOTPRequest) (*response.AuthResponse, error) {
	phone := utils.NormalizePhone(req.Phone, s.config.SMS.DefaultCountryCode)
	identity, err := s.repo.Identity.FindByPhone(ctx, entity.TrackUser, phone)
	if err != nil {
		return nil, fmt.Errorf("find member for otp verify: %w", err)
	}
	if identity == nil {
		return nil, ErrNotFound
	}
	if !identity.Active {
		return nil, ErrDeactivated
	}

	creds, err := s.repo.Credential.Get(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil {
		return nil, ErrNotFound
	}

	if err := s.otp.Validate(creds.OTPCode, creds.OTPIssuedAt, req.OTP); err != nil {
		s.log.Warn("OTP verification failed", zap.Error(err), zap.Int64("identity_id", identity.ID))
		return nil, err
	}

	// Clearing the code is the first effect; a concurrent duplicate loses here.
	consumed, err := s.repo.Credential.ConsumeOTP(ctx, identity.ID, req.OTP, s.otp.NotBefore())
	if err != nil {
		return nil, fmt.Errorf("consume otp: %w", err)
	}
	if !consumed {
		s.log.Warn("OTP already consumed", zap.Int64("identity_id", identity.ID))
		return nil, ErrOTPMismatch
	}

	return s.startSession(ctx, identity, creds, nil)
}

// ==================== PASSWORD LOGIN ====================

func (s *authService) LoginWithPassword(ctx context.Context, track entity.Track, req *request.PasswordLoginRequest) (*response.AuthResponse, error) {
	identity, err := lookupIdentity(ctx, s.repo.Identity, track, req.Identifier, s.config.SMS.DefaultCountryCode)
	if err != nil {
		return nil, fmt.Errorf("find identity for login: %w", err)
	}
	if identity == nil {
		s.log.Warn("Login for unknown identifier", zap.String("track", string(track)))
		return nil, ErrInvalidCredentials
	}

	creds, err := s.repo.Credential.Get(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil || !creds.HasPassword() || !utils.CheckPasswordHash(req.Password, *creds.PasswordHash) {
		s.log.Warn("Invalid password", zap.Int64("identity_id", identity.ID))
		return nil, ErrInvalidCredentials
	}

	if !identity.Active {
		s.log.Warn("Deactivated identity tried to login", zap.Int64("identity_id", identity.ID))
		return nil, ErrDeactivated
	}

	return s.startSession(ctx, identity, creds, req.DeviceToken)
}

// ==================== REFRESH ====================

// Refresh exchanges a refresh token for a new access token, which replaces the
// stored session. Only the refresh token of the current login is accepted;
// logout, revoke and a newer login retire it. The refresh token itself is not
// rotated.
func (s *authService) Refresh(ctx context.Context, track entity.Track, req *request.RefreshRequest) (*response.AuthResponse, error) {
	claims, err := s.issuer.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if entity.Role(claims.Role).Track() != track {
		return nil, ErrTokenInvalid
	}

	identity, err := s.repo.Identity.FindByID(ctx, claims.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("find identity for refresh: %w", err)
	}
	if identity == nil {
		return nil, ErrTokenInvalid
	}
	if !identity.Active {
		return nil, ErrDeactivated
	}

	creds, err := s.repo.Credential.Get(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	access, expiresAt, err := s.issuer.IssueAccessToken(claimsFor(identity), accessTTL(s.config, identity.Track))
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	rotated, err := s.repo.Credential.RotateSession(ctx, identity.ID, utils.TokenDigest(req.RefreshToken), access)
	if err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	if !rotated {
		s.log.Warn("Refresh token no longer bound to a session", zap.Int64("identity_id", identity.ID))
		return nil, ErrTokenRevoked
	}

	s.log.Info("Access token refreshed", zap.Int64("identity_id", identity.ID))

	return &response.AuthResponse{
		Identity:  response.IdentityToResponse(identity, creds),
		Token:     access,
		ExpiresAt: expiresAt,
	}, nil
}

// ==================== HELPER METHODS ====================

// startSession issues access and refresh tokens and stores the access token
// with the refresh token's digest, overwriting any previous session for the
// identity.
func (s *authService) startSession(ctx context.Context, identity *entity.Identity, creds *entity.Credentials, deviceToken *string) (*response.AuthResponse, error) {
	claims := claimsFor(identity)

	access, expiresAt, err := s.issuer.IssueAccessToken(claims, accessTTL(s.config, identity.Track))
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExpiresAt, err := s.issuer.IssueRefreshToken(claims)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.repo.Credential.StoreSession(ctx, identity.ID, access, utils.TokenDigest(refresh), deviceToken); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.log.Info("Session started",
		zap.Int64("identity_id", identity.ID),
		zap.String("role", string(identity.Role)),
		utils.TokenField(access),
	)

	return &response.AuthResponse{
		Identity:         response.IdentityToResponse(identity, creds),
		Token:            access,
		ExpiresAt:        expiresAt,
		RefreshToken:     refresh,
		RefreshExpiresAt: &refreshExpiresAt,
	}, nil
}
