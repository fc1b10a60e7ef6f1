package response

import (
	"time"

	"gym-backoffice/internal/data/entity"
)

// IdentityResponse is the stripped view of an identity; it never carries
// password, OTP, session or reset fields.
type IdentityResponse struct {
	ID                 int64       `json:"id"`
	UniqueID           string      `json:"unique_id"`
	Role               entity.Role `json:"role"`
	Name               string      `json:"name"`
	Email              *string     `json:"email,omitempty"`
	Phone              *string     `json:"phone,omitempty"`
	Active             bool        `json:"active"`
	MustChangePassword bool        `json:"must_change_password"`
	AdminID            *int64      `json:"admin_id,omitempty"`
	GymOwnerID         *int64      `json:"gym_owner_id,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
}

type AuthResponse struct {
	Identity         IdentityResponse `json:"identity"`
	Token            string           `json:"token"`
	ExpiresAt        time.Time        `json:"expires_at"`
	RefreshToken     string           `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time       `json:"refresh_expires_at,omitempty"`
}

// OTPResponse reports dispatch status. OTP is only populated outside production
// when the SMS could not be sent.
type OTPResponse struct {
	OTPSent   bool      `json:"otp_sent"`
	ExpiresAt time.Time `json:"expires_at"`
	OTP       string    `json:"otp,omitempty"`
}

type ProvisionResponse struct {
	Identity   IdentityResponse `json:"identity"`
	InviteSent bool             `json:"invite_sent"`
}

func IdentityToResponse(identity *entity.Identity, creds *entity.Credentials) IdentityResponse {
	resp := IdentityResponse{
		ID:         identity.ID,
		UniqueID:   identity.PublicID,
		Role:       identity.Role,
		Name:       identity.Name,
		Email:      identity.Email,
		Phone:      identity.Phone,
		Active:     identity.Active,
		AdminID:    identity.AdminID,
		GymOwnerID: identity.GymOwnerID,
		CreatedAt:  identity.CreatedAt,
	}
	if creds != nil {
		resp.MustChangePassword = creds.MustChangePassword
	}
	return resp
}
