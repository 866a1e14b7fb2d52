package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/session"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

type stubAuthenticator struct {
	err error
}

func (s stubAuthenticator) Authenticate(_ context.Context, claims *Claims) (*Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Principal{Session: session.State{UID: claims.UID(), Role: claims.Role, TokenID: claims.TokenID()}, Claims: claims}, nil
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	issued, err := tm.GenerateToken("uid-1", domain.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, issued.TokenID)

	claims, err := tm.ParseToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UID())
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, issued.TokenID, claims.TokenID())
	assert.Greater(t, claims.Remaining(time.Now()), 50*time.Minute)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	issued, err := NewTokenManager("a", time.Hour).GenerateToken("uid", domain.RoleEmployee)
	require.NoError(t, err)

	_, err = NewTokenManager("b", time.Hour).ParseToken(issued.Token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	pw := NewPasswords(bcrypt.MinCost)
	hash, err := pw.Hash("secret1")
	require.NoError(t, err)
	assert.NoError(t, pw.Verify(hash, "secret1"))
	assert.ErrorIs(t, pw.Verify(hash, "other"), ErrPasswordMismatch)

	_, err = pw.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
	assert.Error(t, pw.Verify("not-a-hash", "secret1"))
	assert.NotErrorIs(t, pw.Verify("not-a-hash", "secret1"), ErrPasswordMismatch)
}

func TestNewPasswordsClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswords(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswords(99).cost)
	assert.Equal(t, bcrypt.MinCost, NewPasswords(bcrypt.MinCost).cost)
}

func newGuardedApp(tm *TokenManager, authn Authenticator) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if de := apperrors.ToDomainError(err); de != nil && de.Code != apperrors.CodeInternal {
				return c.Status(de.HTTPStatus).SendString(de.Code)
			}
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).SendString(fe.Message)
			}
			return c.SendStatus(http.StatusInternalServerError)
		},
	})
	mw := NewAuthMiddleware(tm, authn)
	app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error {
		state, ok := SessionFromContext(c)
		if !ok {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.SendString(state.UID)
	})
	return app
}

func TestMiddlewareAcceptsAdmin(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	app := newGuardedApp(tm, stubAuthenticator{})
	issued, err := tm.GenerateToken("admin-1", domain.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareAcceptsQueryToken(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	app := newGuardedApp(tm, stubAuthenticator{})
	issued, err := tm.GenerateToken("admin-1", domain.RoleAdmin)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin?access_token="+issued.Token, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejections(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	employeeToken, err := tm.GenerateToken("emp-1", domain.RoleEmployee)
	require.NoError(t, err)
	adminToken, err := tm.GenerateToken("admin-1", domain.RoleAdmin)
	require.NoError(t, err)

	cases := []struct {
		name   string
		authn  Authenticator
		header string
		status int
	}{
		{"missing header", stubAuthenticator{}, "", http.StatusUnauthorized},
		{"malformed header", stubAuthenticator{}, "Token abc", http.StatusUnauthorized},
		{"garbage token", stubAuthenticator{}, "Bearer abc", http.StatusUnauthorized},
		{"wrong role", stubAuthenticator{}, "Bearer " + employeeToken.Token, http.StatusForbidden},
		{"revoked", stubAuthenticator{err: apperrors.NewUnauthorized("token revoked")}, "Bearer " + adminToken.Token, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newGuardedApp(tm, tc.authn)
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
