package request

type RegisterAdminRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=10,max=16"`
	Password string  `json:"password" validate:"required"`
}

// CreateAdminRequest is used by a superadmin to add another admin with a chosen sub-role.
type CreateAdminRequest struct {
	RegisterAdminRequest
	Role string `json:"role" validate:"required,oneof=admin superadmin moderator"`
}

type CreateGymOwnerRequest struct {
	Name  string  `json:"name" validate:"required,min=2,max=100"`
	Email string  `json:"email" validate:"required,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,min=10,max=16"`
}

type CreateUserRequest struct {
	Name  string  `json:"name" validate:"required,min=2,max=100"`
	Phone string  `json:"phone" validate:"required,min=10,max=16"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// PasswordLoginRequest accepts a public id, email or phone as identifier.
type PasswordLoginRequest struct {
	Identifier  string  `json:"identifier" validate:"required"`
	Password    string  `json:"password" validate:"required"`
	DeviceToken *string `json:"device_token,omitempty"`
}

type OTPRequest struct {
	UniqueID    string  `json:"unique_id,omitempty"`
	Phone       string  `json:"phone" validate:"required,min=10,max=16"`
	DeviceToken *string `json:"device_token,omitempty"`
}

type ResendOTPRequest struct {
	Phone string `json:"phone" validate:"required,min=10,max=16"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,min=10,max=16"`
	OTP   string `json:"otp" validate:"required,numeric"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
