package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techdesk-service/internal/api/dto"
	"github.com/spec-kit/techdesk-service/internal/service"
)

// AdminHandler exposes administrator account management.
type AdminHandler struct {
	admins *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admins *service.AdminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

// List handles GET /admin/admins.
func (h *AdminHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	list, err := h.admins.ListAdmins(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, dto.AdminsFromDomain(list))
}

// Create handles POST /admin/admins.
func (h *AdminHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.AdminRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	admin, err := h.admins.RegisterAdmin(c.UserContext(), actor, service.AdminInput{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		MailFromEmployee: req.MailFromEmployee,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AdminFromDomain(admin)})
}

// Update handles PUT /admin/admins/:uid.
func (h *AdminHandler) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.AdminUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	admin, err := h.admins.UpdateAdmin(c.UserContext(), actor, c.Params("uid"), service.AdminUpdate{
		Name:             req.Name,
		IsActive:         req.IsActive,
		MailFromEmployee: req.MailFromEmployee,
	})
	if err != nil {
		return err
	}
	return data(c, dto.AdminFromDomain(admin))
}

// Delete handles DELETE /admin/admins/:uid.
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.admins.DeleteAdmin(c.UserContext(), actor, c.Params("uid")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
