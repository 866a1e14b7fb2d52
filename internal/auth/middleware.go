package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/session"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Session  session.State
	Employee *domain.Employee
	Admin    *domain.Admin
	Claims   *Claims
}

// Authenticator resolves verified claims into a principal, rejecting revoked
// tokens and accounts that no longer exist.
type Authenticator interface {
	Authenticate(ctx context.Context, claims *Claims) (*Principal, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	authn  Authenticator
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, authn Authenticator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, authn: authn}
}

// Handle enforces authentication for protected routes. WebSocket clients,
// which cannot set headers, may pass the token as access_token.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := bearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal, err := m.authn.Authenticate(c.UserContext(), claims)
	if err != nil {
		return err
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if q := c.Query("access_token"); q != "" {
			return q, nil
		}
		return "", apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// SessionFromContext returns the session state of the caller.
func SessionFromContext(c *fiber.Ctx) (session.State, bool) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return session.State{}, false
	}
	return principal.Session, true
}
