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
	"gym-backoffice/pkg/utils"

	"go.uber.org/zap"
)

// Scope limits which identities an actor may see or manage: one track, and
// for gym owners only the members they created.
type Scope = repository.ListFilter

type IdentityService interface {
	RegisterAdmin(ctx context.Context, req *request.RegisterAdminRequest) (*response.IdentityResponse, error)
	CreateAdmin(ctx context.Context, creatorID int64, req *request.CreateAdminRequest) (*response.IdentityResponse, error)
	CreateGymOwner(ctx context.Context, adminID int64, req *request.CreateGymOwnerRequest) (*response.ProvisionResponse, error)
	CreateUser(ctx context.Context, gymOwnerID int64, req *request.CreateUserRequest) (*response.ProvisionResponse, error)
	ResendInvite(ctx context.Context, scope Scope, id int64) (*response.ProvisionResponse, error)
	SetActive(ctx context.Context, scope Scope, id int64, active bool) (*response.IdentityResponse, error)
	List(ctx context.Context, scope Scope, req *request.PaginatedRequest) (*response.PaginatedResponse[response.IdentityResponse], error)
	Me(ctx context.Context, identityID int64) (*response.IdentityResponse, error)
}

type identityService struct {
	repo     *repository.Repository
	password PasswordService
	session  SessionService
	config   *utils.Config
	log      *zap.Logger
}

func NewIdentityService(deps Deps, password PasswordService, session SessionService, config *utils.Config, log *zap.Logger) IdentityService {
	return &identityService{
		repo:     deps.Repo,
		password: password,
		session:  session,
		config:   config,
		log:      log.With(zap.String("service", "identity")),
	}
}

// ==================== ADMINS ====================

func (s *identityService) RegisterAdmin(ctx context.Context, req *request.RegisterAdminRequest) (*response.IdentityResponse, error) {
	return s.createAdmin(ctx, req, entity.RoleAdmin, nil)
}

func (s *identityService) CreateAdmin(ctx context.Context, creatorID int64, req *request.CreateAdminRequest) (*response.IdentityResponse, error) {
	role := entity.Role(req.Role)
	if role.Track() != entity.TrackAdmin {
		return nil, ErrRoleMismatch
	}
	return s.createAdmin(ctx, &req.RegisterAdminRequest, role, &creatorID)
}

func (s *identityService) createAdmin(ctx context.Context, req *request.RegisterAdminRequest, role entity.Role, creatorID *int64) (*response.IdentityResponse, error) {
	if len(req.Password) < s.config.Password.MinLength {
		return nil, ErrPasswordTooWeak
	}

	hash, err := utils.HashPassword(req.Password, s.config.Password.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity := &entity.Identity{
		Track:   entity.TrackAdmin,
		Role:    role,
		Name:    strings.TrimSpace(req.Name),
		Email:   s.email(&req.Email),
		Phone:   s.phone(req.Phone),
		AdminID: creatorID,
		Active:  true,
	}
	creds := &entity.Credentials{PasswordHash: &hash}

	if err := s.create(ctx, identity, creds); err != nil {
		return nil, err
	}

	resp := response.IdentityToResponse(identity, creds)
	return &resp, nil
}

// ==================== PROVISIONED IDENTITIES ====================

func (s *identityService) CreateGymOwner(ctx context.Context, adminID int64, req *request.CreateGymOwnerRequest) (*response.ProvisionResponse, error) {
	identity := &entity.Identity{
		Track:   entity.TrackGymOwner,
		Role:    entity.RoleGymOwner,
		Name:    strings.TrimSpace(req.Name),
		Email:   s.email(&req.Email),
		Phone:   s.phone(req.Phone),
		AdminID: &adminID,
		Active:  true,
	}
	return s.provision(ctx, identity)
}

func (s *identityService) CreateUser(ctx context.Context, gymOwnerID int64, req *request.CreateUserRequest) (*response.ProvisionResponse, error) {
	identity := &entity.Identity{
		Track:      entity.TrackUser,
		Role:       entity.RoleUser,
		Name:       strings.TrimSpace(req.Name),
		Email:      s.email(req.Email),
		Phone:      s.phone(&req.Phone),
		GymOwnerID: &gymOwnerID,
		Active:     true,
	}
	return s.provision(ctx, identity)
}

// provision creates an identity without a password and sends it a setup link.
func (s *identityService) provision(ctx context.Context, identity *entity.Identity) (*response.ProvisionResponse, error) {
	creds := &entity.Credentials{MustChangePassword: true}
	if err := s.create(ctx, identity, creds); err != nil {
		return nil, err
	}

	sent, err := s.password.Invite(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &response.ProvisionResponse{
		Identity:   response.IdentityToResponse(identity, creds),
		InviteSent: sent,
	}, nil
}

func (s *identityService) ResendInvite(ctx context.Context, scope Scope, id int64) (*response.ProvisionResponse, error) {
	identity, err := s.findInScope(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	creds, err := s.repo.Credential.Get(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	sent, err := s.password.Invite(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &response.ProvisionResponse{
		Identity:   response.IdentityToResponse(identity, creds),
		InviteSent: sent,
	}, nil
}

// ==================== MANAGEMENT ====================

// SetActive toggles the soft-disable flag. Deactivation also ends the
// identity's current session.
func (s *identityService) SetActive(ctx context.Context, scope Scope, id int64, active bool) (*response.IdentityResponse, error) {
	identity, err := s.findInScope(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	found, err := s.repo.Identity.SetActive(ctx, id, active)
	if err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	identity.Active = active

	if !active {
		if err := s.session.Revoke(ctx, id); err != nil {
			return nil, err
		}
	}

	s.log.Info("Identity active flag changed", zap.Int64("identity_id", id), zap.Bool("active", active))

	creds, err := s.repo.Credential.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	resp := response.IdentityToResponse(identity, creds)
	return &resp, nil
}

func (s *identityService) List(ctx context.Context, scope Scope, req *request.PaginatedRequest) (*response.PaginatedResponse[response.IdentityResponse], error) {
	identities, err := s.repo.Identity.List(ctx, scope, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	total, err := s.repo.Identity.Count(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count identities: %w", err)
	}

	items := make([]response.IdentityResponse, 0, len(identities))
	for _, identity := range identities {
		items = append(items, response.IdentityToResponse(identity, nil))
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

func (s *identityService) Me(ctx context.Context, identityID int64) (*response.IdentityResponse, error) {
	identity, err := s.repo.Identity.FindByID(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if identity == nil {
		return nil, ErrNotFound
	}

	creds, err := s.repo.Credential.Get(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	resp := response.IdentityToResponse(identity, creds)
	return &resp, nil
}

// ==================== HELPER METHODS ====================

func (s *identityService) create(ctx context.Context, identity *entity.Identity, creds *entity.Credentials) error {
	if err := s.repo.Identity.Create(ctx, identity, creds); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Warn("Duplicate identity contact", zap.String("track", string(identity.Track)))
			return ErrConflict
		}
		return fmt.Errorf("create identity: %w", err)
	}

	s.log.Info("Identity created",
		zap.Int64("identity_id", identity.ID),
		zap.String("public_id", identity.PublicID),
		zap.String("role", string(identity.Role)),
	)
	return nil
}

func (s *identityService) findInScope(ctx context.Context, scope Scope, id int64) (*entity.Identity, error) {
	identity, err := s.repo.Identity.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if identity == nil || identity.Track != scope.Track {
		return nil, ErrNotFound
	}
	if scope.GymOwnerID != nil && (identity.GymOwnerID == nil || *identity.GymOwnerID != *scope.GymOwnerID) {
		return nil, ErrNotFound
	}
	if scope.AdminID != nil && (identity.AdminID == nil || *identity.AdminID != *scope.AdminID) {
		return nil, ErrNotFound
	}
	return identity, nil
}

func (s *identityService) email(email *string) *string {
	if email == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*email))
	if v == "" {
		return nil
	}
	return &v
}

func (s *identityService) phone(phone *string) *string {
	if phone == nil {
		return nil
	}
	v := utils.NormalizePhone(*phone, s.config.SMS.DefaultCountryCode)
	if v == "" {
		return nil
	}
	return &v
}
