package entity

import "time"

// Credentials is owned by exactly one Identity. OTP and reset fields are
// always written in pairs.
type Credentials struct {
	IdentityID         int64      `db:"identity_id"`
	PasswordHash       *string    `db:"password_hash"`
	SessionToken       *string    `db:"session_token"`
	RefreshDigest      *string    `db:"refresh_digest"`
	OTPCode            *string    `db:"otp_code"`
	OTPIssuedAt        *time.Time `db:"otp_issued_at"`
	ResetToken         *string    `db:"reset_token"`
	ResetExpiresAt     *time.Time `db:"reset_expires_at"`
	MustChangePassword bool       `db:"must_change_password"`
	DeviceToken        *string    `db:"device_token"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func (c *Credentials) HasPassword() bool {
	return c.PasswordHash != nil && *c.PasswordHash != ""
}
