package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

const identityEmailIndex = "identities_email_lower_idx"

// IdentityRepository stores login credentials.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByUID(ctx context.Context, uid string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	UpdatePassword(ctx context.Context, uid, passwordHash string) error
	Delete(ctx context.Context, uid string) error
}

type identityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository returns a Postgres-backed implementation.
func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepository{pool: pool}
}

// Create assigns the uid. Emails are unique ignoring case.
func (r *identityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	const query = `
        INSERT INTO identities (email, password_hash)
        VALUES ($1, $2)
        RETURNING uid, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, identity.Email, identity.PasswordHash).
		Scan(&identity.UID, &identity.CreatedAt, &identity.UpdatedAt)
	if isUniqueViolation(err, identityEmailIndex) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *identityRepository) GetByUID(ctx context.Context, uid string) (*domain.Identity, error) {
	const query = `SELECT uid, email, password_hash, created_at, updated_at FROM identities WHERE uid=$1`
	return scanIdentity(r.pool.QueryRow(ctx, query, uid))
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	const query = `SELECT uid, email, password_hash, created_at, updated_at FROM identities WHERE LOWER(email)=LOWER($1)`
	return scanIdentity(r.pool.QueryRow(ctx, query, email))
}

func (r *identityRepository) UpdatePassword(ctx context.Context, uid, passwordHash string) error {
	const query = `UPDATE identities SET password_hash=$1, updated_at=NOW() WHERE uid=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *identityRepository) Delete(ctx context.Context, uid string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM identities WHERE uid=$1`, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var i domain.Identity
	if err := row.Scan(&i.UID, &i.Email, &i.PasswordHash, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}
