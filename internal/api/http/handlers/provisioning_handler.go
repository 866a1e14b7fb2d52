package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techdesk-service/internal/api/dto"
	"github.com/spec-kit/techdesk-service/internal/service"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

// ProvisioningHandler exposes the identity provisioning endpoints used by
// the admin portal. Responses follow their own success envelope.
type ProvisioningHandler struct {
	authService *service.AuthService
}

// NewProvisioningHandler constructs handler.
func NewProvisioningHandler(authService *service.AuthService) *ProvisioningHandler {
	return &ProvisioningHandler{authService: authService}
}

// RegisterUser handles POST /provisioning/register-user.
func (h *ProvisioningHandler) RegisterUser(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	uid, err := h.authService.Provision(c.UserContext(), req.Email, req.Password)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		return c.Status(domainErr.HTTPStatus).JSON(dto.RegisterUserResponse{Success: false, Code: domainErr.Code})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RegisterUserResponse{Success: true, UID: uid})
}

// DeleteUser handles POST /provisioning/delete-user.
func (h *ProvisioningHandler) DeleteUser(c *fiber.Ctx) error {
	var req dto.DeleteUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.authService.Deprovision(c.UserContext(), req.Email); err != nil {
		domainErr := apperrors.ToDomainError(err)
		return c.Status(domainErr.HTTPStatus).JSON(dto.DeleteUserResponse{Success: false, Error: domainErr.Message})
	}
	return c.JSON(dto.DeleteUserResponse{Success: true})
}
