package database

import (
	"context"
	"fmt"
)

// schema is applied in order on every start; each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS identities (
		id BIGSERIAL PRIMARY KEY,
		public_id TEXT UNIQUE,
		track TEXT NOT NULL,
		role TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		email TEXT,
		phone TEXT,
		admin_id BIGINT REFERENCES identities(id),
		gym_owner_id BIGINT REFERENCES identities(id),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (email IS NOT NULL OR phone IS NOT NULL)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS identities_track_email_idx ON identities (track, email) WHERE email IS NOT NULL;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS identities_track_phone_idx ON identities (track, phone) WHERE phone IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS identities_gym_owner_idx ON identities (gym_owner_id);`,
	`CREATE TABLE IF NOT EXISTS credentials (
		identity_id BIGINT PRIMARY KEY REFERENCES identities(id) ON DELETE CASCADE,
		password_hash TEXT,
		session_token TEXT,
		otp_code TEXT,
		otp_issued_at TIMESTAMPTZ,
		reset_token TEXT,
		reset_expires_at TIMESTAMPTZ,
		must_change_password BOOLEAN NOT NULL DEFAULT FALSE,
		device_token TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK ((otp_code IS NULL) = (otp_issued_at IS NULL)),
		CHECK ((reset_token IS NULL) = (reset_expires_at IS NULL))
	);`,
	`ALTER TABLE credentials ADD COLUMN IF NOT EXISTS refresh_digest TEXT;`,
}

func Migrate(ctx context.Context, db PgxIface) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}
