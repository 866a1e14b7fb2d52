// Package session keeps the per-principal state that outlives a single
// request: the admin's remembered company, revoked tokens and the export
// column choice of a login session.
package session

import (
	"context"
	"time"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

// State is the resolved session of one authenticated request.
type State struct {
	UID       string
	Email     string
	Role      domain.Role
	CompanyID string
	TokenID   string
}

// IsAdmin reports whether the session belongs to an administrator.
func (s State) IsAdmin() bool { return s.Role == domain.RoleAdmin }

// Store persists session-derived state.
type Store interface {
	RememberCompany(ctx context.Context, uid, companyID string) error
	// RememberedCompany returns "" when no choice was stored.
	RememberedCompany(ctx context.Context, uid string) (string, error)
	ForgetCompany(ctx context.Context, uid string) error

	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	SaveExportColumns(ctx context.Context, tokenID string, columns []string, ttl time.Duration) error
	// ExportColumns returns nil when nothing was saved.
	ExportColumns(ctx context.Context, tokenID string) ([]string, error)
	ClearExportColumns(ctx context.Context, tokenID string) error
}
