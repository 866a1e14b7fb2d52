package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

// CompanyRepository persists tenant configuration documents.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	Update(ctx context.Context, company *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	ListActive(ctx context.Context) ([]domain.Company, error)
	Delete(ctx context.Context, id string) error
}

type companyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository returns a Postgres-backed implementation.
func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepository{pool: pool}
}

const companyColumns = `id, code, name, is_active, sort_order, emp_pass,
        sent_mail_to_emp_register, sent_mail_to_emp_ticket_update,
        teams, asset_status, ticket_category, ticket_status, operating_systems,
        ram_options, drive_options, created_at, updated_at`

func (r *companyRepository) Create(ctx context.Context, company *domain.Company) error {
	const query = `
        INSERT INTO companies (code, name, is_active, sort_order, emp_pass,
            sent_mail_to_emp_register, sent_mail_to_emp_ticket_update,
            teams, asset_status, ticket_category, ticket_status, operating_systems,
            ram_options, drive_options)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		company.Code,
		company.Name,
		company.IsActive,
		company.SortOrder,
		company.EmpPass,
		company.SentMailToEmpRegister,
		company.SentMailToEmpTicketUpdate,
		nonNil(company.Teams),
		nonNil(company.AssetStatus),
		nonNil(company.TicketCategory),
		nonNil(company.TicketStatus),
		nonNil(company.OperatingSystems),
		nonNil(company.RAMOptions),
		nonNil(company.DriveOptions),
	).Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
}

// Update rewrites the whole configuration document.
func (r *companyRepository) Update(ctx context.Context, company *domain.Company) error {
	const query = `
        UPDATE companies SET code=$1, name=$2, is_active=$3, sort_order=$4, emp_pass=$5,
            sent_mail_to_emp_register=$6, sent_mail_to_emp_ticket_update=$7,
            teams=$8, asset_status=$9, ticket_category=$10, ticket_status=$11,
            operating_systems=$12, ram_options=$13, drive_options=$14, updated_at=NOW()
        WHERE id=$15
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		company.Code,
		company.Name,
		company.IsActive,
		company.SortOrder,
		company.EmpPass,
		company.SentMailToEmpRegister,
		company.SentMailToEmpTicketUpdate,
		nonNil(company.Teams),
		nonNil(company.AssetStatus),
		nonNil(company.TicketCategory),
		nonNil(company.TicketStatus),
		nonNil(company.OperatingSystems),
		nonNil(company.RAMOptions),
		nonNil(company.DriveOptions),
		company.ID,
	).Scan(&company.UpdatedAt)
	return err
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id=$1`
	company, err := scanCompany(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return company, nil
}

// ListActive returns active companies in storage order; callers sort.
func (r *companyRepository) ListActive(ctx context.Context) ([]domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE is_active ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *company)
	}
	return result, rows.Err()
}

func (r *companyRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var c domain.Company
	if err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Name,
		&c.IsActive,
		&c.SortOrder,
		&c.EmpPass,
		&c.SentMailToEmpRegister,
		&c.SentMailToEmpTicketUpdate,
		&c.Teams,
		&c.AssetStatus,
		&c.TicketCategory,
		&c.TicketStatus,
		&c.OperatingSystems,
		&c.RAMOptions,
		&c.DriveOptions,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// nonNil keeps empty collections from being encoded as SQL NULL.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
