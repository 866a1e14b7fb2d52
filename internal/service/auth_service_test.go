package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/events"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

func TestLoginClassifiesAccounts(t *testing.T) {
	f := newFixture(t)
	f.employee(t, "Eve", "eve@acme.test")

	admin, err := f.auth.Login(f.ctx, "alice@acme.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Session.Role)
	assert.Equal(t, f.company.ID, admin.Session.CompanyID)
	assert.NotEmpty(t, admin.Token)

	emp, err := f.auth.Login(f.ctx, "eve@acme.test", domain.DefaultEmployeePassword)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, emp.Session.Role)
	assert.Equal(t, "Eve", emp.Name)

	_, err = f.auth.Login(f.ctx, "eve@acme.test", "wrong-password")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestLoginWithoutAccountData(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Provision(f.ctx, "ghost@acme.test", "secret1")
	require.NoError(t, err)

	res, err := f.auth.Login(f.ctx, "ghost@acme.test", "secret1")
	assert.Nil(t, res)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAccountDataNotFound))
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	res, err := f.auth.Login(f.ctx, "alice@acme.test", "secret1")
	require.NoError(t, err)

	claims, err := f.auth.TokenManager().ParseToken(res.Token)
	require.NoError(t, err)
	principal, err := f.auth.Authenticate(f.ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, f.company.ID, principal.Session.CompanyID)

	require.NoError(t, f.auth.Logout(f.ctx, principal))
	_, err = f.auth.Authenticate(f.ctx, claims)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	remembered, err := f.sessions.RememberedCompany(f.ctx, principal.Session.UID)
	require.NoError(t, err)
	assert.Empty(t, remembered)
}

func TestSetAdminCompanyIsRemembered(t *testing.T) {
	f := newFixture(t)
	beta, err := f.lookup.CreateCompany(f.ctx, f.admin, domain.CompanyOverrides{Code: "BETA", Name: "Beta"})
	require.NoError(t, err)

	_, err = f.auth.SetAdminCompany(f.ctx, f.admin, beta.ID)
	require.NoError(t, err)

	res, err := f.auth.Login(f.ctx, "alice@acme.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, beta.ID, res.Session.CompanyID)

	_, err = f.auth.SetAdminCompany(f.ctx, f.admin, "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	var token string
	f.dispatcher.Subscribe(events.EventPasswordResetRequested, func(_ context.Context, e events.Event) error {
		token = e.Payload.(events.PasswordResetRequestedPayload).Token
		return nil
	})

	require.NoError(t, f.auth.RequestPasswordReset(f.ctx, "nobody@acme.test"))
	assert.Empty(t, token)

	require.NoError(t, f.auth.RequestPasswordReset(f.ctx, "alice@acme.test"))
	require.NotEmpty(t, token)

	err := f.auth.ConfirmPasswordReset(f.ctx, token, "short")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	require.NoError(t, f.auth.ConfirmPasswordReset(f.ctx, token, "brand-new"))
	_, err = f.auth.Login(f.ctx, "alice@acme.test", "brand-new")
	assert.NoError(t, err)

	err = f.auth.ConfirmPasswordReset(f.ctx, token, "another-one")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "tokens are single use")
}

func TestChangePasswordChecksCurrent(t *testing.T) {
	f := newFixture(t)

	err := f.auth.ChangePassword(f.ctx, f.admin.UID, "wrong", "brand-new")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	require.NoError(t, f.auth.ChangePassword(f.ctx, f.admin.UID, "secret1", "brand-new"))
	_, err = f.auth.Login(f.ctx, "alice@acme.test", "brand-new")
	assert.NoError(t, err)
}

func TestProvisionRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Provision(f.ctx, "alice@acme.test", "secret1")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeEmailExists))
}
