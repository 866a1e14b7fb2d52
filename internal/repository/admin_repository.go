package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

// AdminRepository persists administrator profiles.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	Update(ctx context.Context, admin *domain.Admin) error
	GetByUID(ctx context.Context, uid string) (*domain.Admin, error)
	List(ctx context.Context) ([]domain.Admin, error)
	ListNotifiable(ctx context.Context) ([]domain.Admin, error)
	Delete(ctx context.Context, uid string) error
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository returns a Postgres-backed implementation.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

const adminColumns = `uid, name, email, role, mail_from_employee, is_active, created_at, updated_at`

func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	const query = `
        INSERT INTO admins (uid, name, email, role, mail_from_employee, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		admin.UID,
		admin.Name,
		admin.Email,
		admin.Role,
		admin.MailFromEmployee,
		admin.IsActive,
	).Scan(&admin.CreatedAt, &admin.UpdatedAt)
}

func (r *adminRepository) Update(ctx context.Context, admin *domain.Admin) error {
	const query = `
        UPDATE admins SET name=$1, mail_from_employee=$2, is_active=$3, updated_at=NOW()
        WHERE uid=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		admin.Name,
		admin.MailFromEmployee,
		admin.IsActive,
		admin.UID,
	).Scan(&admin.UpdatedAt)
}

func (r *adminRepository) GetByUID(ctx context.Context, uid string) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE uid=$1`
	var a domain.Admin
	if err := r.pool.QueryRow(ctx, query, uid).Scan(
		&a.UID, &a.Name, &a.Email, &a.Role, &a.MailFromEmployee, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *adminRepository) List(ctx context.Context) ([]domain.Admin, error) {
	return r.list(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY name, uid`)
}

// ListNotifiable returns active admins that opted in to employee mail.
func (r *adminRepository) ListNotifiable(ctx context.Context) ([]domain.Admin, error) {
	return r.list(ctx, `SELECT `+adminColumns+` FROM admins WHERE is_active AND mail_from_employee ORDER BY name, uid`)
}

func (r *adminRepository) Delete(ctx context.Context, uid string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM admins WHERE uid=$1`, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *adminRepository) list(ctx context.Context, query string) ([]domain.Admin, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Admin
	for rows.Next() {
		var a domain.Admin
		if err := rows.Scan(
			&a.UID, &a.Name, &a.Email, &a.Role, &a.MailFromEmployee, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
