package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

// TicketUpdate describes one atomic change to a ticket. Timestamps are
// assigned by the store.
type TicketUpdate struct {
	TicketID        string
	ExpectedVersion int64
	// NewStatus, when set, is appended to the status log and becomes the
	// current status.
	NewStatus string
	Comment   string
	ActorName string
	IsAdmin   bool
}

// HasStatus reports whether the update changes status.
func (u TicketUpdate) HasStatus() bool { return u.NewStatus != "" }

// HasComment reports whether the update appends a comment.
func (u TicketUpdate) HasComment() bool { return u.Comment != "" }

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create stores the ticket together with its first status log entry.
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByCompany(ctx context.Context, companyID string) ([]domain.Ticket, error)
	ListByRaiser(ctx context.Context, employeeID string) ([]domain.Ticket, error)
	// ApplyUpdate applies u if the stored version still equals
	// u.ExpectedVersion, returning ErrVersionConflict otherwise.
	ApplyUpdate(ctx context.Context, u TicketUpdate) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, company_id, title, description, asset_tag, category, raised_by, raised_by_name, team,
        status, status_logs, comments, photo_urls, version, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (company_id, title, description, asset_tag, category, raised_by, raised_by_name, team,
            status, status_logs, photo_urls)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,
            jsonb_build_array(jsonb_build_object(
                'status', $9::text, 'updated_by_name', $7::text, 'timestamp', NOW(), 'is_admin', FALSE)),
            $10)
        RETURNING ` + ticketColumns
	created, err := scanTicket(r.pool.QueryRow(ctx, query,
		ticket.CompanyID,
		ticket.Title,
		ticket.Description,
		ticket.AssetTag,
		ticket.Category,
		ticket.RaisedBy,
		ticket.RaisedByName,
		ticket.Team,
		ticket.Status,
		nonNil(ticket.PhotoURLs),
	))
	if err != nil {
		return err
	}
	*ticket = *created
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

// ListByCompany returns the tenant's tickets newest first.
func (r *ticketRepository) ListByCompany(ctx context.Context, companyID string) ([]domain.Ticket, error) {
	return r.list(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE company_id=$1 ORDER BY created_at DESC, id`, companyID)
}

// ListByRaiser returns the employee's tickets newest first.
func (r *ticketRepository) ListByRaiser(ctx context.Context, employeeID string) ([]domain.Ticket, error) {
	return r.list(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE raised_by=$1 ORDER BY created_at DESC, id`, employeeID)
}

// ApplyUpdate appends to status_logs and comments in place. The log
// timestamp never precedes the previous entry, keeping the trail ordered.
func (r *ticketRepository) ApplyUpdate(ctx context.Context, u TicketUpdate) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET
            status = CASE WHEN $3::boolean THEN $4::text ELSE status END,
            status_logs = CASE WHEN $3::boolean THEN status_logs || jsonb_build_array(jsonb_build_object(
                    'status', $4::text,
                    'updated_by_name', $5::text,
                    'timestamp', GREATEST(NOW(), (status_logs -> -1 ->> 'timestamp')::timestamptz),
                    'is_admin', $6::boolean))
                ELSE status_logs END,
            comments = CASE WHEN $7::boolean THEN comments || jsonb_build_array(jsonb_build_object(
                    'message', $8::text,
                    'timestamp', NOW(),
                    'updated_by_name', $5::text,
                    'is_admin', $6::boolean))
                ELSE comments END,
            version = version + 1,
            updated_at = NOW()
        WHERE id=$1 AND version=$2
        RETURNING ` + ticketColumns
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query,
		u.TicketID,
		u.ExpectedVersion,
		u.HasStatus(),
		u.NewStatus,
		u.ActorName,
		u.IsAdmin,
		u.HasComment(),
		u.Comment,
	))
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, u.TicketID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrVersionConflict
	}
	return nil, pgx.ErrNoRows
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(
		&t.ID,
		&t.CompanyID,
		&t.Title,
		&t.Description,
		&t.AssetTag,
		&t.Category,
		&t.RaisedBy,
		&t.RaisedByName,
		&t.Team,
		&t.Status,
		&t.StatusLogs,
		&t.Comments,
		&t.PhotoURLs,
		&t.Version,
		&t.Timestamp,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
