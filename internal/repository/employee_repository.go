package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

// EmployeeRepository persists employee profiles keyed by identity uid.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, employee *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	ListByCompany(ctx context.Context, companyID string) ([]domain.Employee, error)
	ListByTeam(ctx context.Context, companyID, team string) ([]domain.Employee, error)
	Delete(ctx context.Context, id string) error
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository returns a Postgres-backed implementation.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

const employeeColumns = `id, name, email, role, company_id, team, date_of_joining, created_at, updated_at`

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (id, name, email, role, company_id, team, date_of_joining)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		employee.ID,
		employee.Name,
		employee.Email,
		employee.Role,
		employee.CompanyID,
		employee.Team,
		employee.DateOfJoining,
	).Scan(&employee.CreatedAt, &employee.UpdatedAt)
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.Employee) error {
	const query = `
        UPDATE employees SET name=$1, team=$2, date_of_joining=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		employee.Name,
		employee.Team,
		employee.DateOfJoining,
		employee.ID,
	).Scan(&employee.UpdatedAt)
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id=$1`
	var e domain.Employee
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Name, &e.Email, &e.Role, &e.CompanyID, &e.Team, &e.DateOfJoining, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *employeeRepository) ListByCompany(ctx context.Context, companyID string) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE company_id=$1 ORDER BY name, id`
	return r.list(ctx, query, companyID)
}

func (r *employeeRepository) ListByTeam(ctx context.Context, companyID, team string) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE company_id=$1 AND team=$2 ORDER BY name, id`
	return r.list(ctx, query, companyID, team)
}

func (r *employeeRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) list(ctx context.Context, query string, args ...any) ([]domain.Employee, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Email, &e.Role, &e.CompanyID, &e.Team, &e.DateOfJoining, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
