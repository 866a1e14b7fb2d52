package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/events"
	"github.com/spec-kit/techdesk-service/internal/repository"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

// EmployeeService manages employee profiles and their identities.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	identities repository.IdentityRepository
	lookup     *LookupService
	authSvc    *AuthService
	assetSvc   *AssetService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// EmployeeDependencies groups the collaborators of EmployeeService.
type EmployeeDependencies struct {
	EmployeeRepo repository.EmployeeRepository
	IdentityRepo repository.IdentityRepository
	Lookup       *LookupService
	Auth         *AuthService
	Assets       *AssetService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewEmployeeService constructs the service.
func NewEmployeeService(deps EmployeeDependencies) *EmployeeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{
		employees:  deps.EmployeeRepo,
		identities: deps.IdentityRepo,
		lookup:     deps.Lookup,
		authSvc:    deps.Auth,
		assetSvc:   deps.Assets,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// EmployeeInput is the editable part of an employee profile.
type EmployeeInput struct {
	Name          string
	Email         string
	Team          string
	DateOfJoining string
}

func (s *EmployeeService) validate(companyID string, input EmployeeInput, withEmail bool) error {
	errs := fieldErrors{}
	errs.require("name", input.Name)
	if withEmail {
		errs.require("email", input.Email)
		if input.Email != "" && !strings.Contains(input.Email, "@") {
			errs["email"] = "must be a valid email"
		}
	}
	errs.require("team", input.Team)
	if input.Team != "" {
		known := false
		for _, t := range s.lookup.GetTeamsByCompany(companyID) {
			if t.ID == input.Team {
				known = true
				break
			}
		}
		if !known {
			errs["team"] = "unknown team"
		}
	}
	if input.DateOfJoining != "" {
		if _, err := time.Parse(domain.PurchaseDateLayout, input.DateOfJoining); err != nil {
			errs["dateOfJoining"] = "must be YYYY-MM-DD"
		}
	}
	return errs.err("invalid employee")
}

// CreateEmployee provisions an identity with the company's default password
// and writes the profile. The identity is removed again if the profile write
// fails.
func (s *EmployeeService) CreateEmployee(ctx context.Context, actor Actor, input EmployeeInput) (*domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	company, ok := s.lookup.GetCompanyByID(actor.CompanyID)
	if !ok {
		return nil, apperrors.NewNotFound("company", map[string]any{"id": actor.CompanyID})
	}
	input.Email = strings.TrimSpace(input.Email)
	if err := s.validate(company.ID, input, true); err != nil {
		return nil, err
	}

	password := company.EmpPass
	if password == "" {
		password = domain.DefaultEmployeePassword
	}
	uid, err := s.authSvc.Provision(ctx, input.Email, password)
	if err != nil {
		return nil, err
	}

	employee := &domain.Employee{
		ID:            uid,
		Name:          strings.TrimSpace(input.Name),
		Email:         input.Email,
		Role:          domain.RoleEmployee,
		CompanyID:     company.ID,
		Team:          input.Team,
		DateOfJoining: input.DateOfJoining,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		if delErr := s.authSvc.deleteIdentity(ctx, uid); delErr != nil {
			s.logger.Error("identity compensation failed", zap.String("uid", uid), zap.Error(delErr))
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("employee created", zap.String("employee_id", uid), zap.String("company_id", company.ID))
	publishEvent(ctx, s.dispatcher, newEvent(events.EventEmployeeCreated, company.ID, uid, actor.event(),
		events.AccountCreatedPayload{Name: employee.Name, Email: employee.Email, Password: password}))
	return employee, nil
}

// UpdateEmployee rewrites name, team and joining date. The email is fixed.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, actor Actor, id string, input EmployeeInput) (*domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	employee, err := s.getInCompany(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(employee.CompanyID, input, false); err != nil {
		return nil, err
	}
	employee.Name = strings.TrimSpace(input.Name)
	employee.Team = input.Team
	employee.DateOfJoining = input.DateOfJoining
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, notFoundOr(err, "employee", id)
	}
	return employee, nil
}

// DeleteEmployee runs the profile delete, the identity delete and the asset
// unassignment concurrently. Each failing step is reported; steps that
// succeeded stay applied.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	employee, err := s.getInCompany(ctx, actor, id)
	if err != nil {
		return err
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		errs   error
		failed []string
	)
	step := func(name string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				s.logger.Warn("employee delete step failed",
					zap.String("employee_id", id), zap.String("step", name), zap.Error(err))
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
				failed = append(failed, name)
				mu.Unlock()
			}
			return nil
		})
	}
	step("profile", func() error { return s.employees.Delete(ctx, id) })
	step("identity", func() error { return s.identities.Delete(ctx, id) })
	step("assets", func() error {
		_, err := s.assetSvc.UnassignEmployee(ctx, actor, employee.CompanyID, id)
		return err
	})
	_ = g.Wait()

	publishEvent(ctx, s.dispatcher, newEvent(events.EventEmployeeDeleted, employee.CompanyID, id, actor.event(), nil))
	if errs != nil {
		return apperrors.NewPartialFailure("employee deletion incomplete", failed, errs)
	}
	s.logger.Info("employee deleted", zap.String("employee_id", id))
	return nil
}

func (s *EmployeeService) getInCompany(ctx context.Context, actor Actor, id string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "employee", id)
	}
	if employee.CompanyID != actor.CompanyID {
		return nil, apperrors.NewNotFound("employee", map[string]any{"id": id})
	}
	return employee, nil
}

// GetEmployee returns one employee profile.
func (s *EmployeeService) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "employee", id)
	}
	return employee, nil
}

// ListEmployees returns the company's employees.
func (s *EmployeeService) ListEmployees(ctx context.Context, companyID string) ([]domain.Employee, error) {
	list, err := s.employees.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// ListByTeam returns the employees of one team.
func (s *EmployeeService) ListByTeam(ctx context.Context, companyID, team string) ([]domain.Employee, error) {
	list, err := s.employees.ListByTeam(ctx, companyID, team)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// SearchByName filters the company's employees by a case-insensitive name
// substring.
func (s *EmployeeService) SearchByName(ctx context.Context, companyID, term string) ([]domain.Employee, error) {
	list, err := s.ListEmployees(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Employee, 0, len(list))
	for _, e := range list {
		if e.NameMatches(term) {
			out = append(out, e)
		}
	}
	return out, nil
}
