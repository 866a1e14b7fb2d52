package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techdesk-service/internal/api/dto"
	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/service"
)

// EmployeeHandler exposes employee management for admins and the profile
// endpoint for employees.
type EmployeeHandler struct {
	employees *service.EmployeeService
	data      *service.DataService
}

// NewEmployeeHandler constructs handler.
func NewEmployeeHandler(employees *service.EmployeeService, data *service.DataService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, data: data}
}

// List handles GET /admin/employees. Optional team and search query
// parameters narrow the result.
func (h *EmployeeHandler) List(c *fiber.Ctx) error {
	st := sessionOf(c)
	var (
		list []domain.Employee
		err  error
	)
	switch {
	case c.Query("search") != "":
		list, err = h.data.SearchEmployees(c.UserContext(), st, c.Query("search"))
	case c.Query("team") != "":
		list, err = h.data.EmployeesByTeam(c.UserContext(), st, c.Query("team"))
	default:
		list, err = h.data.Employees(c.UserContext(), st)
	}
	if err != nil {
		return err
	}
	return data(c, dto.EmployeesFromDomain(list))
}

// Get handles GET /admin/employees/:id.
func (h *EmployeeHandler) Get(c *fiber.Ctx) error {
	employee, err := h.data.EmployeeByID(c.UserContext(), sessionOf(c), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, dto.EmployeeFromDomain(employee))
}

// Create handles POST /admin/employees.
func (h *EmployeeHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.EmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	employee, err := h.employees.CreateEmployee(c.UserContext(), actor, service.EmployeeInput{
		Name:          req.Name,
		Email:         req.Email,
		Team:          req.Team,
		DateOfJoining: req.DateOfJoining,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.EmployeeFromDomain(employee)})
}

// Update handles PUT /admin/employees/:id.
func (h *EmployeeHandler) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.EmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	employee, err := h.employees.UpdateEmployee(c.UserContext(), actor, c.Params("id"), service.EmployeeInput{
		Name:          req.Name,
		Team:          req.Team,
		DateOfJoining: req.DateOfJoining,
	})
	if err != nil {
		return err
	}
	return data(c, dto.EmployeeFromDomain(employee))
}

// Delete handles DELETE /admin/employees/:id.
func (h *EmployeeHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.employees.DeleteEmployee(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /me: the calling employee's profile.
func (h *EmployeeHandler) Me(c *fiber.Ctx) error {
	employee, err := h.data.CurrentEmployee(c.UserContext(), sessionOf(c))
	if err != nil {
		return err
	}
	return data(c, dto.EmployeeFromDomain(employee))
}
