package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

const assetTagIndex = "assets_company_tag_lower_idx"

// AssetRepository persists hardware asset records.
type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) error
	Update(ctx context.Context, asset *domain.Asset) error
	GetByID(ctx context.Context, id string) (*domain.Asset, error)
	ListByCompany(ctx context.Context, companyID string) ([]domain.Asset, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]domain.Asset, error)
	FindByTag(ctx context.Context, companyID, tagLower string) ([]domain.Asset, error)
	UnassignEmployee(ctx context.Context, employeeID, statusID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type assetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository returns a Postgres-backed implementation.
func NewAssetRepository(pool *pgxpool.Pool) AssetRepository {
	return &assetRepository{pool: pool}
}

const assetColumns = `id, company_id, name, model, tag, tag_lower, status, assigned_to, assigned_to_name,
        os, os_version, ram, drive, serial_number, purchase_date, peripherals,
        history, installed_software, created_at, updated_at`

// Create inserts the asset. A tag collision inside the company yields
// ErrDuplicateTag.
func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	const query = `
        INSERT INTO assets (company_id, name, model, tag, tag_lower, status, assigned_to, assigned_to_name,
            os, os_version, ram, drive, serial_number, purchase_date, peripherals, history, installed_software)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		asset.CompanyID,
		asset.Name,
		asset.Model,
		asset.Tag,
		asset.TagLower,
		asset.Status,
		asset.AssignedTo,
		asset.AssignedToName,
		asset.OS,
		asset.OSVersion,
		asset.RAM,
		asset.Drive,
		asset.SerialNumber,
		asset.PurchaseDate,
		asset.Peripherals,
		nonNil(asset.History),
		nonNil(asset.InstalledSoftware),
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if isUniqueViolation(err, assetTagIndex) {
		return ErrDuplicateTag
	}
	return err
}

func (r *assetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	const query = `
        UPDATE assets SET name=$1, model=$2, tag=$3, tag_lower=$4, status=$5, assigned_to=$6, assigned_to_name=$7,
            os=$8, os_version=$9, ram=$10, drive=$11, serial_number=$12, purchase_date=$13, peripherals=$14,
            history=$15, installed_software=$16, updated_at=NOW()
        WHERE id=$17
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		asset.Name,
		asset.Model,
		asset.Tag,
		asset.TagLower,
		asset.Status,
		asset.AssignedTo,
		asset.AssignedToName,
		asset.OS,
		asset.OSVersion,
		asset.RAM,
		asset.Drive,
		asset.SerialNumber,
		asset.PurchaseDate,
		asset.Peripherals,
		nonNil(asset.History),
		nonNil(asset.InstalledSoftware),
		asset.ID,
	).Scan(&asset.UpdatedAt)
	if isUniqueViolation(err, assetTagIndex) {
		return ErrDuplicateTag
	}
	return err
}

func (r *assetRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id=$1`
	return scanAsset(r.pool.QueryRow(ctx, query, id))
}

func (r *assetRepository) ListByCompany(ctx context.Context, companyID string) ([]domain.Asset, error) {
	return r.list(ctx, `SELECT `+assetColumns+` FROM assets WHERE company_id=$1 ORDER BY created_at DESC, id`, companyID)
}

func (r *assetRepository) ListByEmployee(ctx context.Context, employeeID string) ([]domain.Asset, error) {
	return r.list(ctx, `SELECT `+assetColumns+` FROM assets WHERE assigned_to=$1 ORDER BY created_at DESC, id`, employeeID)
}

func (r *assetRepository) FindByTag(ctx context.Context, companyID, tagLower string) ([]domain.Asset, error) {
	return r.list(ctx, `SELECT `+assetColumns+` FROM assets WHERE company_id=$1 AND tag_lower=$2`, companyID, tagLower)
}

// UnassignEmployee moves every asset held by employeeID to statusID and
// clears the assignee fields.
func (r *assetRepository) UnassignEmployee(ctx context.Context, employeeID, statusID string) (int64, error) {
	const query = `
        UPDATE assets SET status=$1, assigned_to='', assigned_to_name='', updated_at=NOW()
        WHERE assigned_to=$2`
	cmd, err := r.pool.Exec(ctx, query, statusID, employeeID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *assetRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM assets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assetRepository) list(ctx context.Context, query string, args ...any) ([]domain.Asset, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *asset)
	}
	return result, rows.Err()
}

func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var a domain.Asset
	if err := row.Scan(
		&a.ID,
		&a.CompanyID,
		&a.Name,
		&a.Model,
		&a.Tag,
		&a.TagLower,
		&a.Status,
		&a.AssignedTo,
		&a.AssignedToName,
		&a.OS,
		&a.OSVersion,
		&a.RAM,
		&a.Drive,
		&a.SerialNumber,
		&a.PurchaseDate,
		&a.Peripherals,
		&a.History,
		&a.InstalledSoftware,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
