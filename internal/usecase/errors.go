package usecase

import "errors"

var (
	ErrNotFound           = errors.New("account not found")
	ErrDeactivated        = errors.New("account is deactivated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("an account with this email or phone already exists")

	ErrTokenMissing = errors.New("authorization token is missing")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrRoleMismatch = errors.New("insufficient permissions")

	ErrOTPExpired  = errors.New("OTP has expired")
	ErrOTPMismatch = errors.New("invalid OTP")

	ErrResetTokenInvalid = errors.New("invalid or already used token")
	ErrResetTokenExpired = errors.New("token has expired, request a new one")

	ErrPasswordMismatch = errors.New("new password and confirm password do not match")
	ErrPasswordTooWeak  = errors.New("password is too short")
	ErrWrongPassword    = errors.New("old password is incorrect")

	// ErrDispatchFailed is recoverable; the caller may resend.
	ErrDispatchFailed = errors.New("failed to send notification, please retry")
)
