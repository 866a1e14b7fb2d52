package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techdesk-service/internal/api/dto"
	"github.com/spec-kit/techdesk-service/internal/service"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

// CompanyHandler exposes company configuration endpoints.
type CompanyHandler struct {
	lookup *service.LookupService
	data   *service.DataService
}

// NewCompanyHandler constructs handler.
func NewCompanyHandler(lookup *service.LookupService, data *service.DataService) *CompanyHandler {
	return &CompanyHandler{lookup: lookup, data: data}
}

// List handles GET /admin/companies.
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	return data(c, dto.CompaniesFromDomain(h.lookup.Companies(), true))
}

// Get handles GET /admin/companies/:id.
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	company, ok := h.lookup.GetCompanyByID(c.Params("id"))
	if !ok {
		return apperrors.NewNotFound("company", map[string]any{"id": c.Params("id")})
	}
	return data(c, dto.CompanyFromDomain(&company, true))
}

// Create handles POST /admin/companies.
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CompanyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	company, err := h.lookup.CreateCompany(c.UserContext(), actor, req.Overrides())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CompanyFromDomain(company, true)})
}

// Update handles PUT /admin/companies/:id.
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CompanyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	company, err := h.lookup.UpdateCompany(c.UserContext(), actor, req.ToDomain(c.Params("id")))
	if err != nil {
		return err
	}
	return data(c, dto.CompanyFromDomain(company, true))
}

// Delete handles DELETE /admin/companies/:id. The body must repeat the
// company code.
func (h *CompanyHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.DeleteCompanyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.lookup.DeleteCompany(c.UserContext(), actor, c.Params("id"), req.Confirm); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Lookups handles GET /lookups: the configuration of the caller's company.
func (h *CompanyHandler) Lookups(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	st := sessionOf(c)
	lookups, err := h.data.Lookups(c.UserContext(), st)
	if err != nil {
		return err
	}
	resp := dto.LookupsResponse{
		Companies:        dto.CompaniesFromDomain(lookups.Companies, false),
		Teams:            lookups.Teams,
		AssetStatuses:    lookups.AssetStatuses,
		TicketStatuses:   lookups.TicketStatuses,
		TicketCategories: lookups.TicketCategories,
		OperatingSystems: lookups.OperatingSystems,
		RAMOptions:       lookups.RAMOptions,
		DriveOptions:     lookups.DriveOptions,
	}
	if lookups.Company != nil {
		company := dto.CompanyFromDomain(lookups.Company, actor.IsAdmin())
		resp.Company = &company
	}
	if lookups.Employee != nil {
		employee := dto.EmployeeFromDomain(lookups.Employee)
		resp.Employee = &employee
	}
	return data(c, resp)
}
