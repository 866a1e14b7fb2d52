package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/techdesk-service/internal/auth"
	"github.com/spec-kit/techdesk-service/internal/config"
	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/events"
	"github.com/spec-kit/techdesk-service/internal/repository"
	"github.com/spec-kit/techdesk-service/internal/repository/memory"
	"github.com/spec-kit/techdesk-service/internal/session"
)

type fixture struct {
	ctx        context.Context
	cfg        config.Config
	repos      repository.Set
	dispatcher events.Dispatcher
	sessions   session.Store
	lookup     *LookupService
	auth       *AuthService
	assets     *AssetService
	tickets    *TicketService
	employees  *EmployeeService
	admins     *AdminService
	company    domain.Company
	admin      Actor
}

type fixtureOption func(*fixture)

func withTicketRepo(wrap func(repository.TicketRepository) repository.TicketRepository) fixtureOption {
	return func(f *fixture) { f.repos.Tickets = wrap(f.repos.Tickets) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		ctx:        context.Background(),
		repos:      memory.NewStore().Set(),
		dispatcher: events.NewInMemoryDispatcher(zap.NewNop()),
		sessions:   session.NewMemoryStore(),
	}
	f.cfg.Auth.JWTSecret = "test-secret"
	f.cfg.Auth.BcryptCost = bcrypt.MinCost
	f.cfg.Tickets.UpdateMaxAttempts = 3
	f.cfg.Tickets.UpdateRetryMillis = 1
	for _, opt := range opts {
		opt(f)
	}

	f.lookup = NewLookupService(LookupDependencies{CompanyRepo: f.repos.Companies, Dispatcher: f.dispatcher})
	f.lookup.Init(f.ctx)
	f.auth = NewAuthService(f.cfg, AuthDependencies{
		Repos:        f.repos,
		Lookup:       f.lookup,
		Sessions:     f.sessions,
		TokenManager: auth.NewTokenManager(f.cfg.Auth.JWTSecret, f.cfg.Auth.AccessTokenTTL()),
		Dispatcher:   f.dispatcher,
	})
	f.assets = NewAssetService(AssetDependencies{
		AssetRepo:    f.repos.Assets,
		EmployeeRepo: f.repos.Employees,
		Lookup:       f.lookup,
		Dispatcher:   f.dispatcher,
	})
	f.tickets = NewTicketService(f.cfg, TicketDependencies{
		TicketRepo:   f.repos.Tickets,
		EmployeeRepo: f.repos.Employees,
		Lookup:       f.lookup,
		Dispatcher:   f.dispatcher,
	})
	f.employees = NewEmployeeService(EmployeeDependencies{
		EmployeeRepo: f.repos.Employees,
		IdentityRepo: f.repos.Identities,
		Lookup:       f.lookup,
		Auth:         f.auth,
		Assets:       f.assets,
		Dispatcher:   f.dispatcher,
	})
	f.admins = NewAdminService(AdminDependencies{
		AdminRepo:  f.repos.Admins,
		Auth:       f.auth,
		Lookup:     f.lookup,
		Dispatcher: f.dispatcher,
	})

	system := Actor{UID: "system", Name: "system", Role: domain.RoleAdmin}
	company, err := f.lookup.CreateCompany(f.ctx, system, domain.CompanyOverrides{Code: "ACME", Name: "Acme"})
	require.NoError(t, err)
	f.company = *company

	admin, err := f.admins.RegisterAdmin(f.ctx, system, AdminInput{
		Name: "Alice Admin", Email: "alice@acme.test", Password: "secret1", MailFromEmployee: true,
	})
	require.NoError(t, err)
	f.admin = Actor{UID: admin.UID, Name: admin.Name, Role: domain.RoleAdmin, CompanyID: f.company.ID}
	return f
}

func (f *fixture) employee(t *testing.T, name, email string) Actor {
	t.Helper()
	e, err := f.employees.CreateEmployee(f.ctx, f.admin, EmployeeInput{
		Name: name, Email: email, Team: f.company.Teams[0].ID,
	})
	require.NoError(t, err)
	return Actor{UID: e.ID, Name: e.Name, Role: domain.RoleEmployee, CompanyID: e.CompanyID}
}

func (f *fixture) ticketStatus(t *testing.T, label string) string {
	t.Helper()
	for _, s := range f.company.TicketStatus {
		if s.Status == label {
			return s.ID
		}
	}
	t.Fatalf("no ticket status %q", label)
	return ""
}

func (f *fixture) assetStatus(t *testing.T, key domain.SystemKey) string {
	t.Helper()
	s, ok := f.company.AssetStatusByKey(key)
	require.True(t, ok)
	return s.ID
}

func (f *fixture) category() string {
	return f.company.TicketCategory[0].ID
}
