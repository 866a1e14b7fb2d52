package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techdesk-service/internal/auth"
	"github.com/spec-kit/techdesk-service/internal/service"
	"github.com/spec-kit/techdesk-service/internal/session"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.ActorFromPrincipal(principal), nil
}

func sessionOf(c *fiber.Ctx) session.State {
	st, _ := auth.SessionFromContext(c)
	return st
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func data(c *fiber.Ctx, v any) error {
	return c.JSON(fiber.Map{"data": v})
}
