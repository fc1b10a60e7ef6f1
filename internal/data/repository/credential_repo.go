package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CredentialRepository owns every write to token, OTP, reset and password
// fields. Each method is a single statement, so concurrent requests for the
// same identity cannot interleave a read-modify-write.
type CredentialRepository interface {
	Get(ctx context.Context, identityID int64) (*entity.Credentials, error)

	// StoreSession makes token the only valid session and refreshDigest the
	// only refresh token that may rotate it; the last writer wins.
	// A nil deviceToken keeps the stored one.
	StoreSession(ctx context.Context, identityID int64, token, refreshDigest string, deviceToken *string) error
	// RotateSession swaps in token only while refreshDigest is still the
	// stored one. Logout, revoke and a newer login all make it return false.
	RotateSession(ctx context.Context, identityID int64, refreshDigest, token string) (bool, error)
	// ClearSession clears the session and its refresh digest only if the
	// session still equals token.
	ClearSession(ctx context.Context, identityID int64, token string) (bool, error)
	// RevokeSession clears any session and returns the token that was stored.
	RevokeSession(ctx context.Context, identityID int64) (*string, error)

	SetOTP(ctx context.Context, identityID int64, code string, issuedAt time.Time, deviceToken *string) error
	// ConsumeOTP clears the OTP pair if code matches and was issued at or after
	// notBefore. Exactly one concurrent caller observes true.
	ConsumeOTP(ctx context.Context, identityID int64, code string, notBefore time.Time) (bool, error)

	SetResetToken(ctx context.Context, identityID int64, token string, expiresAt time.Time) error
	// RedeemResetToken swaps in passwordHash if token is still the stored
	// reset token and has not expired at now.
	RedeemResetToken(ctx context.Context, identityID int64, token, passwordHash string, now time.Time) (bool, error)
	// UpdatePassword replaces the hash, clears any reset pair and the must-change flag.
	UpdatePassword(ctx context.Context, identityID int64, passwordHash string) error
}

type credentialRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCredentialRepository(db database.PgxIface, log *zap.Logger) CredentialRepository {
	return &credentialRepository{
		db:  db,
		log: log.With(zap.String("repository", "credential")),
	}
}

func (r *credentialRepository) Get(ctx context.Context, identityID int64) (*entity.Credentials, error) {
	query := `
		SELECT identity_id, password_hash, session_token, refresh_digest, otp_code, otp_issued_at,
		       reset_token, reset_expires_at, must_change_password, device_token, updated_at
		FROM credentials
		WHERE identity_id = $1
	`

	var c entity.Credentials
	err := r.db.QueryRow(ctx, query, identityID).Scan(
		&c.IdentityID,
		&c.PasswordHash,
		&c.SessionToken,
		&c.RefreshDigest,
		&c.OTPCode,
		&c.OTPIssuedAt,
		&c.ResetToken,
		&c.ResetExpiresAt,
		&c.MustChangePassword,
		&c.DeviceToken,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to load credentials", zap.Error(err), zap.Int64("identity_id", identityID))
		return nil, fmt.Errorf("get credentials %d: %w", identityID, err)
	}

	return &c, nil
}

func (r *credentialRepository) exec(ctx context.Context, op string, identityID int64, query string, args ...any) (int64, error) {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Credential write failed",
			zap.Error(err),
			zap.String("op", op),
			zap.Int64("identity_id", identityID),
		)
		return 0, fmt.Errorf("%s %d: %w", op, identityID, err)
	}
	return tag.RowsAffected(), nil
}

func (r *credentialRepository) StoreSession(ctx context.Context, identityID int64, token, refreshDigest string, deviceToken *string) error {
	query := `
		UPDATE credentials
		SET session_token = $2, refresh_digest = $3, device_token = COALESCE($4, device_token), updated_at = NOW()
		WHERE identity_id = $1
	`
	_, err := r.exec(ctx, "store session", identityID, query, identityID, token, refreshDigest, deviceToken)
	return err
}

func (r *credentialRepository) RotateSession(ctx context.Context, identityID int64, refreshDigest, token string) (bool, error) {
	query := `
		UPDATE credentials
		SET session_token = $3, updated_at = NOW()
		WHERE identity_id = $1 AND refresh_digest = $2
	`
	n, err := r.exec(ctx, "rotate session", identityID, query, identityID, refreshDigest, token)
	return n == 1, err
}

func (r *credentialRepository) ClearSession(ctx context.Context, identityID int64, token string) (bool, error) {
	query := `
		UPDATE credentials
		SET session_token = NULL, refresh_digest = NULL, updated_at = NOW()
		WHERE identity_id = $1 AND session_token = $2
	`
	n, err := r.exec(ctx, "clear session", identityID, query, identityID, token)
	return n == 1, err
}

func (r *credentialRepository) RevokeSession(ctx context.Context, identityID int64) (*string, error) {
	query := `
		WITH prev AS (
			SELECT identity_id, session_token FROM credentials WHERE identity_id = $1 FOR UPDATE
		)
		UPDATE credentials c
		SET session_token = NULL, refresh_digest = NULL, updated_at = NOW()
		FROM prev
		WHERE c.identity_id = prev.identity_id
		RETURNING prev.session_token
	`

	var prev *string
	err := r.db.QueryRow(ctx, query, identityID).Scan(&prev)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to revoke session", zap.Error(err), zap.Int64("identity_id", identityID))
		return nil, fmt.Errorf("revoke session %d: %w", identityID, err)
	}
	return prev, nil
}

func (r *credentialRepository) SetOTP(ctx context.Context, identityID int64, code string, issuedAt time.Time, deviceToken *string) error {
	query := `
		UPDATE credentials
		SET otp_code = $2, otp_issued_at = $3, device_token = COALESCE($4, device_token), updated_at = NOW()
		WHERE identity_id = $1
	`
	_, err := r.exec(ctx, "set otp", identityID, query, identityID, code, issuedAt, deviceToken)
	return err
}

func (r *credentialRepository) ConsumeOTP(ctx context.Context, identityID int64, code string, notBefore time.Time) (bool, error) {
	query := `
		UPDATE credentials
		SET otp_code = NULL, otp_issued_at = NULL, updated_at = NOW()
		WHERE identity_id = $1 AND otp_code = $2 AND otp_issued_at >= $3
	`
	n, err := r.exec(ctx, "consume otp", identityID, query, identityID, code, notBefore)
	return n == 1, err
}

func (r *credentialRepository) SetResetToken(ctx context.Context, identityID int64, token string, expiresAt time.Time) error {
	query := `
		UPDATE credentials
		SET reset_token = $2, reset_expires_at = $3, updated_at = NOW()
		WHERE identity_id = $1
	`
	_, err := r.exec(ctx, "set reset token", identityID, query, identityID, token, expiresAt)
	return err
}

func (r *credentialRepository) RedeemResetToken(ctx context.Context, identityID int64, token, passwordHash string, now time.Time) (bool, error) {
	query := `
		UPDATE credentials
		SET password_hash = $3, reset_token = NULL, reset_expires_at = NULL,
		    must_change_password = FALSE, updated_at = NOW()
		WHERE identity_id = $1 AND reset_token = $2 AND reset_expires_at >= $4
	`
	n, err := r.exec(ctx, "redeem reset token", identityID, query, identityID, token, passwordHash, now)
	return n == 1, err
}

func (r *credentialRepository) UpdatePassword(ctx context.Context, identityID int64, passwordHash string) error {
	query := `
		UPDATE credentials
		SET password_hash = $2, reset_token = NULL, reset_expires_at = NULL,
		    must_change_password = FALSE, updated_at = NOW()
		WHERE identity_id = $1
	`
	_, err := r.exec(ctx, "update password", identityID, query, identityID, passwordHash)
	return err
}
