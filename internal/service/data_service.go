package service

import (
	"context"

	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/session"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

// DataService is the read facade the portals use for dropdowns and
// pickers. Every call is scoped by the caller's session.
type DataService struct {
	lookup    *LookupService
	employees *EmployeeService
	assets    *AssetService
}

// NewDataService constructs the facade.
func NewDataService(lookup *LookupService, employees *EmployeeService, assets *AssetService) *DataService {
	return &DataService{lookup: lookup, employees: employees, assets: assets}
}

// Lookups is the configuration a portal needs for the session's company.
type Lookups struct {
	Company          *domain.Company
	Companies        []domain.Company
	Teams            []domain.Team
	AssetStatuses    []domain.AssetStatus
	TicketStatuses   []domain.TicketStatus
	TicketCategories []domain.TicketCategory
	OperatingSystems []domain.OperatingSystem
	RAMOptions       []string
	DriveOptions     []string
	Employee         *domain.Employee
}

// Lookups gathers the configuration of the session's company. Admins also
// get the list of companies they can switch to; employees get their profile.
func (d *DataService) Lookups(ctx context.Context, st session.State) (*Lookups, error) {
	out := &Lookups{
		Teams:            d.lookup.GetTeamsByCompany(st.CompanyID),
		AssetStatuses:    d.lookup.GetAssetStatusByCompany(st.CompanyID),
		TicketStatuses:   d.lookup.GetTicketStatusByCompany(st.CompanyID),
		TicketCategories: d.lookup.GetTicketCategoryByCompany(st.CompanyID),
		OperatingSystems: d.lookup.GetOperatingSystemsByCompany(st.CompanyID),
		RAMOptions:       d.lookup.GetRAMOptionsByCompany(st.CompanyID),
		DriveOptions:     d.lookup.GetDriveOptionsByCompany(st.CompanyID),
		Companies:        []domain.Company{},
	}
	if c, ok := d.CurrentCompany(st); ok {
		out.Company = &c
	}
	if st.IsAdmin() {
		out.Companies = d.lookup.Companies()
		return out, nil
	}
	employee, err := d.CurrentEmployee(ctx, st)
	if err != nil {
		return nil, err
	}
	out.Employee = employee
	return out, nil
}

// CurrentCompany returns the session's company.
func (d *DataService) CurrentCompany(st session.State) (domain.Company, bool) {
	return d.lookup.GetCompanyByID(st.CompanyID)
}

// CurrentEmployee returns the caller's own profile.
func (d *DataService) CurrentEmployee(ctx context.Context, st session.State) (*domain.Employee, error) {
	if st.IsAdmin() {
		return nil, apperrors.NewForbidden("admins have no employee profile")
	}
	return d.employees.GetEmployee(ctx, st.UID)
}

// Employees returns the employees of the session's company.
func (d *DataService) Employees(ctx context.Context, st session.State) ([]domain.Employee, error) {
	return d.employees.ListEmployees(ctx, st.CompanyID)
}

// EmployeesByTeam returns one team of the session's company.
func (d *DataService) EmployeesByTeam(ctx context.Context, st session.State, team string) ([]domain.Employee, error) {
	return d.employees.ListByTeam(ctx, st.CompanyID, team)
}

// EmployeeByID returns an employee of the session's company.
func (d *DataService) EmployeeByID(ctx context.Context, st session.State, id string) (*domain.Employee, error) {
	employee, err := d.employees.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee.CompanyID != st.CompanyID {
		return nil, apperrors.NewNotFound("employee", map[string]any{"id": id})
	}
	return employee, nil
}

// SearchEmployees matches employee names of the session's company.
func (d *DataService) SearchEmployees(ctx context.Context, st session.State, term string) ([]domain.Employee, error) {
	return d.employees.SearchByName(ctx, st.CompanyID, term)
}

// Assets returns the session company's assets filtered by search and status.
func (d *DataService) Assets(ctx context.Context, st session.State, search, status string) ([]domain.Asset, error) {
	return d.assets.List(ctx, st.CompanyID, search, status)
}

// MyAssets returns the assets assigned to the caller.
func (d *DataService) MyAssets(ctx context.Context, st session.State) ([]domain.Asset, error) {
	return d.assets.GetAssetsByEmployee(ctx, st.UID)
}

// AssetByID returns an asset visible to the session.
func (d *DataService) AssetByID(ctx context.Context, st session.State, id string) (*domain.Asset, error) {
	return d.assets.GetAssetForActor(ctx, ActorFromSession(st, ""), id)
}
