package repository

import (
	"errors"

	"gym-backoffice/pkg/database"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrDuplicate reports a unique-constraint violation on an identity contact.
var ErrDuplicate = errors.New("duplicate identity")

type Repository struct {
	Identity   IdentityRepository
	Credential CredentialRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Identity:   NewIdentityRepository(db, log),
		Credential: NewCredentialRepository(db, log),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
