package adaptor

import (
	"net/http"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/dto/request"
	"gym-backoffice/internal/usecase"
	"gym-backoffice/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type IdentityHandler struct {
	service usecase.IdentityService
	log     *zap.Logger
}

func NewIdentityHandler(service usecase.IdentityService, log *zap.Logger) *IdentityHandler {
	return &IdentityHandler{
		service: service,
		log:     log,
	}
}

// ==================== ADMINS ====================

// RegisterAdmin handles POST /api/admin/register
func (h *IdentityHandler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterAdminRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.RegisterAdmin(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "register admin")
		return
	}

	utils.ResponseCreated(w, "Admin registered successfully", resp)
}

// CreateAdmin handles POST /api/admin/admins (superadmin only)
func (h *IdentityHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateAdminRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.CreateAdmin(r.Context(), creatorID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create admin")
		return
	}

	utils.ResponseCreated(w, "Admin created successfully", resp)
}

// ==================== GYM OWNERS ====================

// CreateGymOwner handles POST /api/admin/gym-owners
func (h *IdentityHandler) CreateGymOwner(w http.ResponseWriter, r *http.Request) {
	adminID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateGymOwnerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.CreateGymOwner(r.Context(), adminID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create gym owner")
		return
	}

	utils.ResponseCreated(w, provisionMessage("Gym owner", resp.InviteSent), resp)
}

// ListGymOwners handles GET /api/admin/gym-owners?page=1&per_page=10
func (h *IdentityHandler) ListGymOwners(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, usecase.Scope{Track: entity.TrackGymOwner}, "Gym owners retrieved successfully")
}

// ResendGymOwnerInvite handles POST /api/admin/gym-owners/{id}/invite
func (h *IdentityHandler) ResendGymOwnerInvite(w http.ResponseWriter, r *http.Request) {
	h.resendInvite(w, r, usecase.Scope{Track: entity.TrackGymOwner})
}

// SetGymOwnerActive handles PATCH /api/admin/gym-owners/{id}/active
func (h *IdentityHandler) SetGymOwnerActive(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, usecase.Scope{Track: entity.TrackGymOwner})
}

// ==================== MEMBERS ====================

// CreateUser handles POST /api/gym-owner/users
func (h *IdentityHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.CreateUser(r.Context(), ownerID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create user")
		return
	}

	utils.ResponseCreated(w, provisionMessage("Member", resp.InviteSent), resp)
}

// ListUsers handles GET /api/gym-owner/users?page=1&per_page=10
func (h *IdentityHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	scope, ok := memberScope(w, r)
	if !ok {
		return
	}
	h.list(w, r, scope, "Members retrieved successfully")
}

// ResendUserInvite handles POST /api/gym-owner/users/{id}/invite
func (h *IdentityHandler) ResendUserInvite(w http.ResponseWriter, r *http.Request) {
	scope, ok := memberScope(w, r)
	if !ok {
		return
	}
	h.resendInvite(w, r, scope)
}

// SetUserActive handles PATCH /api/gym-owner/users/{id}/active
func (h *IdentityHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	scope, ok := memberScope(w, r)
	if !ok {
		return
	}
	h.setActive(w, r, scope)
}

// ==================== HELPER METHODS ====================

func (h *IdentityHandler) list(w http.ResponseWriter, r *http.Request, scope usecase.Scope, message string) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    parseInt(query.Get("page"), 1),
		PerPage: parseInt(query.Get("per_page"), 10),
	}

	if req.PerPage > 100 {
		req.PerPage = 100
	}

	resp, err := h.service.List(r.Context(), scope, req)
	if err != nil {
		handleServiceError(w, h.log, err, "list identities")
		return
	}

	utils.ResponseSuccess(w, message, resp)
}

func (h *IdentityHandler) resendInvite(w http.ResponseWriter, r *http.Request, scope usecase.Scope) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		utils.ResponseBadRequest(w, "Invalid ID format", nil)
		return
	}

	resp, err := h.service.ResendInvite(r.Context(), scope, id)
	if err != nil {
		handleServiceError(w, h.log, err, "resend invite")
		return
	}

	message := "Invitation sent"
	if !resp.InviteSent {
		message = "Invitation could not be delivered"
	}
	utils.ResponseSuccess(w, message, resp)
}

func (h *IdentityHandler) setActive(w http.ResponseWriter, r *http.Request, scope usecase.Scope) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		utils.ResponseBadRequest(w, "Invalid ID format", nil)
		return
	}

	var req request.SetActiveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.SetActive(r.Context(), scope, id, *req.Active)
	if err != nil {
		handleServiceError(w, h.log, err, "set active")
		return
	}

	message := "Account activated"
	if !*req.Active {
		message = "Account deactivated"
	}
	utils.ResponseSuccess(w, message, resp)
}

// memberScope restricts member management to the calling gym owner's members.
func memberScope(w http.ResponseWriter, r *http.Request) (usecase.Scope, bool) {
	ownerID, ok := utils.GetIdentityIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return usecase.Scope{}, false
	}
	return usecase.Scope{Track: entity.TrackUser, GymOwnerID: &ownerID}, true
}

func provisionMessage(subject string, sent bool) string {
	if sent {
		return subject + " created and invitation sent"
	}
	return subject + " created but the invitation could not be delivered"
}
