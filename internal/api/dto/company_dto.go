package dto

import (
	"time"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

// CompanyRequest creates or rewrites a company. On create, omitted fields
// fall back to the default template.
type CompanyRequest struct {
	Code                      string                   `json:"code"`
	Name                      string                   `json:"name"`
	IsActive                  *bool                    `json:"is_active"`
	SortOrder                 *int                     `json:"sort_order"`
	EmpPass                   string                   `json:"emp_pass"`
	SentMailToEmpRegister     *bool                    `json:"sent_mail_to_emp_register"`
	SentMailToEmpTicketUpdate *bool                    `json:"sent_mail_to_emp_ticket_update"`
	Teams                     []domain.Team            `json:"teams"`
	AssetStatus               []domain.AssetStatus     `json:"asset_status"`
	TicketCategory            []domain.TicketCategory  `json:"ticket_category"`
	TicketStatus              []domain.TicketStatus    `json:"ticket_status"`
	OperatingSystems          []domain.OperatingSystem `json:"operating_systems"`
	RAMOptions                []string                 `json:"ram_options"`
	DriveOptions              []string                 `json:"drive_options"`
}

// Overrides converts the request to template overrides.
func (r CompanyRequest) Overrides() domain.CompanyOverrides {
	return domain.CompanyOverrides{
		Code:                      r.Code,
		Name:                      r.Name,
		IsActive:                  r.IsActive,
		SortOrder:                 r.SortOrder,
		EmpPass:                   r.EmpPass,
		SentMailToEmpRegister:     r.SentMailToEmpRegister,
		SentMailToEmpTicketUpdate: r.SentMailToEmpTicketUpdate,
		Teams:                     r.Teams,
		AssetStatus:               r.AssetStatus,
		TicketCategory:            r.TicketCategory,
		TicketStatus:              r.TicketStatus,
		OperatingSystems:          r.OperatingSystems,
		RAMOptions:                r.RAMOptions,
		DriveOptions:              r.DriveOptions,
	}
}

// ToDomain converts the request to a full document for id.
func (r CompanyRequest) ToDomain(id string) domain.Company {
	c := domain.Company{
		ID:               id,
		Code:             r.Code,
		Name:             r.Name,
		EmpPass:          r.EmpPass,
		Teams:            r.Teams,
		AssetStatus:      r.AssetStatus,
		TicketCategory:   r.TicketCategory,
		TicketStatus:     r.TicketStatus,
		OperatingSystems: r.OperatingSystems,
		RAMOptions:       r.RAMOptions,
		DriveOptions:     r.DriveOptions,
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	if r.SortOrder != nil {
		c.SortOrder = *r.SortOrder
	}
	if r.SentMailToEmpRegister != nil {
		c.SentMailToEmpRegister = *r.SentMailToEmpRegister
	}
	if r.SentMailToEmpTicketUpdate != nil {
		c.SentMailToEmpTicketUpdate = *r.SentMailToEmpTicketUpdate
	}
	return c
}

// DeleteCompanyRequest carries the confirmation text.
type DeleteCompanyRequest struct {
	Confirm string `json:"confirm"`
}

// CompanyResponse is the company document. The default employee password
// is only included for admins.
type CompanyResponse struct {
	ID                        string                   `json:"id"`
	Code                      string                   `json:"code"`
	Name                      string                   `json:"name"`
	IsActive                  bool                     `json:"is_active"`
	SortOrder                 int                      `json:"sort_order"`
	EmpPass                   string                   `json:"emp_pass,omitempty"`
	SentMailToEmpRegister     bool                     `json:"sent_mail_to_emp_register"`
	SentMailToEmpTicketUpdate bool                     `json:"sent_mail_to_emp_ticket_update"`
	Teams                     []domain.Team            `json:"teams"`
	AssetStatus               []domain.AssetStatus     `json:"asset_status"`
	TicketCategory            []domain.TicketCategory  `json:"ticket_category"`
	TicketStatus              []domain.TicketStatus    `json:"ticket_status"`
	OperatingSystems          []domain.OperatingSystem `json:"operating_systems"`
	RAMOptions                []string                 `json:"ram_options"`
	DriveOptions              []string                 `json:"drive_options"`
	CreatedAt                 time.Time                `json:"created_at"`
	UpdatedAt                 time.Time                `json:"updated_at"`
}

// CompanyFromDomain maps a company; withSecrets controls EmpPass.
func CompanyFromDomain(c *domain.Company, withSecrets bool) CompanyResponse {
	resp := CompanyResponse{
		ID:                        c.ID,
		Code:                      c.Code,
		Name:                      c.Name,
		IsActive:                  c.IsActive,
		SortOrder:                 c.SortOrder,
		SentMailToEmpRegister:     c.SentMailToEmpRegister,
		SentMailToEmpTicketUpdate: c.SentMailToEmpTicketUpdate,
		Teams:                     nonNil(c.Teams),
		AssetStatus:               nonNil(c.AssetStatus),
		TicketCategory:            nonNil(c.TicketCategory),
		TicketStatus:              nonNil(c.TicketStatus),
		OperatingSystems:          nonNil(c.OperatingSystems),
		RAMOptions:                nonNil(c.RAMOptions),
		DriveOptions:              nonNil(c.DriveOptions),
		CreatedAt:                 c.CreatedAt,
		UpdatedAt:                 c.UpdatedAt,
	}
	if withSecrets {
		resp.EmpPass = c.EmpPass
	}
	return resp
}

// CompaniesFromDomain maps a list.
func CompaniesFromDomain(companies []domain.Company, withSecrets bool) []CompanyResponse {
	out := make([]CompanyResponse, 0, len(companies))
	for i := range companies {
		out = append(out, CompanyFromDomain(&companies[i], withSecrets))
	}
	return out
}
