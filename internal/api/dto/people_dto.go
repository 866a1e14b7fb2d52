package dto

import (
	"time"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

// EmployeeRequest creates or edits an employee. Email is ignored on update.
type EmployeeRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Team          string `json:"team"`
	DateOfJoining string `json:"date_of_joining"`
}

// EmployeeResponse is the employee profile.
type EmployeeResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	CompanyID     string    `json:"company_id"`
	Team          string    `json:"team"`
	DateOfJoining string    `json:"date_of_joining,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EmployeeFromDomain maps an employee.
func EmployeeFromDomain(e *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:            e.ID,
		Name:          e.Name,
		Email:         e.Email,
		Role:          string(e.Role),
		CompanyID:     e.CompanyID,
		Team:          e.Team,
		DateOfJoining: e.DateOfJoining,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// EmployeesFromDomain maps a list.
func EmployeesFromDomain(list []domain.Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(list))
	for i := range list {
		out = append(out, EmployeeFromDomain(&list[i]))
	}
	return out
}

// AdminRequest registers an administrator.
type AdminRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	MailFromEmployee bool   `json:"mail_from_employee"`
}

// AdminUpdateRequest edits an administrator.
type AdminUpdateRequest struct {
	Name             string `json:"name"`
	IsActive         bool   `json:"is_active"`
	MailFromEmployee bool   `json:"mail_from_employee"`
}

// AdminResponse is the admin record.
type AdminResponse struct {
	UID              string    `json:"uid"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	MailFromEmployee bool      `json:"mail_from_employee"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AdminFromDomain maps an admin.
func AdminFromDomain(a *domain.Admin) AdminResponse {
	return AdminResponse{
		UID:              a.UID,
		Name:             a.Name,
		Email:            a.Email,
		Role:             string(a.Role),
		MailFromEmployee: a.MailFromEmployee,
		IsActive:         a.IsActive,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// AdminsFromDomain maps a list.
func AdminsFromDomain(list []domain.Admin) []AdminResponse {
	out := make([]AdminResponse, 0, len(list))
	for i := range list {
		out = append(out, AdminFromDomain(&list[i]))
	}
	return out
}

// LookupsResponse is the portal configuration of the session's company.
type LookupsResponse struct {
	Company          *CompanyResponse         `json:"company"`
	Companies        []CompanyResponse        `json:"companies"`
	Teams            []domain.Team            `json:"teams"`
	AssetStatuses    []domain.AssetStatus     `json:"asset_statuses"`
	TicketStatuses   []domain.TicketStatus    `json:"ticket_statuses"`
	TicketCategories []domain.TicketCategory  `json:"ticket_categories"`
	OperatingSystems []domain.OperatingSystem `json:"operating_systems"`
	RAMOptions       []string                 `json:"ram_options"`
	DriveOptions     []string                 `json:"drive_options"`
	Employee         *EmployeeResponse        `json:"employee,omitempty"`
}
