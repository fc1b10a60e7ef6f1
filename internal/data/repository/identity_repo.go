package repository

import (
	"context"
	"errors"
	"fmt"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ListFilter narrows a listing to one track and, optionally, to the identities
// created by a given admin or gym owner.
type ListFilter struct {
	Track      entity.Track
	AdminID    *int64
	GymOwnerID *int64
}

type IdentityRepository interface {
	Create(ctx context.Context, identity *entity.Identity, creds *entity.Credentials) error
	FindByID(ctx context.Context, id int64) (*entity.Identity, error)
	FindByPublicID(ctx context.Context, track entity.Track, publicID string) (*entity.Identity, error)
	FindByEmail(ctx context.Context, track entity.Track, email string) (*entity.Identity, error)
	FindByPhone(ctx context.Context, track entity.Track, phone string) (*entity.Identity, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*entity.Identity, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	SetActive(ctx context.Context, id int64, active bool) (bool, error)
}

type identityRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewIdentityRepository(db database.PgxIface, log *zap.Logger) IdentityRepository {
	return &identityRepository{
		db:  db,
		log: log.With(zap.String("repository", "identity")),
	}
}

const identityColumns = `id, public_id, track, role, name, email, phone,
	admin_id, gym_owner_id, active, created_at, updated_at`

func scanIdentity(row pgx.Row) (*entity.Identity, error) {
	var (
		i        entity.Identity
		publicID *string
	)
	err := row.Scan(
		&i.ID,
		&publicID,
		&i.Track,
		&i.Role,
		&i.Name,
		&i.Email,
		&i.Phone,
		&i.AdminID,
		&i.GymOwnerID,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if publicID != nil {
		i.PublicID = *publicID
	}
	return &i, nil
}

// Create inserts the identity and its credential record in one transaction.
// The public id depends on the generated serial, so it is written in a second
// statement before commit.
func (r *identityRepository) Create(ctx context.Context, identity *entity.Identity, creds *entity.Credentials) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin create identity: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertIdentity := `
		INSERT INTO identities (track, role, name, email, phone, admin_id, gym_owner_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, insertIdentity,
		identity.Track,
		identity.Role,
		identity.Name,
		identity.Email,
		identity.Phone,
		identity.AdminID,
		identity.GymOwnerID,
		identity.Active,
	).Scan(&identity.ID, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.log.Error("Failed to insert identity",
			zap.Error(err),
			zap.String("track", string(identity.Track)),
		)
		return fmt.Errorf("insert identity: %w", err)
	}

	identity.PublicID = entity.PublicIDFor(identity.Track, identity.ID)
	if _, err := tx.Exec(ctx, `UPDATE identities SET public_id = $1 WHERE id = $2`, identity.PublicID, identity.ID); err != nil {
		r.log.Error("Failed to assign public id", zap.Error(err), zap.Int64("identity_id", identity.ID))
		return fmt.Errorf("assign public id %d: %w", identity.ID, err)
	}

	creds.IdentityID = identity.ID
	insertCreds := `
		INSERT INTO credentials (identity_id, password_hash, reset_token, reset_expires_at, must_change_password)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, insertCreds,
		creds.IdentityID,
		creds.PasswordHash,
		creds.ResetToken,
		creds.ResetExpiresAt,
		creds.MustChangePassword,
	); err != nil {
		r.log.Error("Failed to insert credentials", zap.Error(err), zap.Int64("identity_id", identity.ID))
		return fmt.Errorf("insert credentials %d: %w", identity.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.log.Error("Failed to commit identity", zap.Error(err))
		return fmt.Errorf("commit create identity: %w", err)
	}

	return nil
}

func (r *identityRepository) findOne(ctx context.Context, what string, query string, args ...any) (*entity.Identity, error) {
	identity, err := scanIdentity(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find identity", zap.Error(err), zap.String("by", what))
		return nil, fmt.Errorf("find identity by %s: %w", what, err)
	}
	return identity, nil
}

func (r *identityRepository) FindByID(ctx context.Context, id int64) (*entity.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	return r.findOne(ctx, "id", query, id)
}

func (r *identityRepository) FindByPublicID(ctx context.Context, track entity.Track, publicID string) (*entity.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE track = $1 AND public_id = $2`
	return r.findOne(ctx, "public id", query, track, publicID)
}

func (r *identityRepository) FindByEmail(ctx context.Context, track entity.Track, email string) (*entity.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE track = $1 AND email = $2`
	return r.findOne(ctx, "email", query, track, email)
}

func (r *identityRepository) FindByPhone(ctx context.Context, track entity.Track, phone string) (*entity.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE track = $1 AND phone = $2`
	return r.findOne(ctx, "phone", query, track, phone)
}

const listWhere = `
	WHERE track = $1
	  AND ($2::bigint IS NULL OR admin_id = $2)
	  AND ($3::bigint IS NULL OR gym_owner_id = $3)
`

// List returns a page of identities, newest first.
func (r *identityRepository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*entity.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities` + listWhere + `
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.Query(ctx, query, filter.Track, filter.AdminID, filter.GymOwnerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list identities",
			zap.Error(err),
			zap.String("track", string(filter.Track)),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var identities []*entity.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			r.log.Error("Failed to scan identity row", zap.Error(err))
			return nil, fmt.Errorf("scan identity row: %w", err)
		}
		identities = append(identities, identity)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate identity rows: %w", err)
	}

	return identities, nil
}

func (r *identityRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM identities` + listWhere

	var count int64
	if err := r.db.QueryRow(ctx, query, filter.Track, filter.AdminID, filter.GymOwnerID).Scan(&count); err != nil {
		r.log.Error("Failed to count identities", zap.Error(err))
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// SetActive flips the soft-disable flag and reports whether the identity exists.
// Sessions are revoked separately through the credential repository.
func (r *identityRepository) SetActive(ctx context.Context, id int64, active bool) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE identities SET active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		r.log.Error("Failed to set identity active flag", zap.Error(err), zap.Int64("identity_id", id))
		return false, fmt.Errorf("set active %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}
