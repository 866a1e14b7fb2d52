package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/techdesk-service/internal/auth"
	"github.com/spec-kit/techdesk-service/internal/config"
	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/events"
	"github.com/spec-kit/techdesk-service/internal/repository"
	"github.com/spec-kit/techdesk-service/internal/session"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)


// AuthService coordinates login, session resolution and credential flows.
type AuthService struct {
	identities repository.IdentityRepository
	admins     repository.AdminRepository
	employees  repository.EmployeeRepository
	resets     repository.PasswordResetRepository
	lookup     *LookupService
	sessions   session.Store
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	passwords  auth.Passwords
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	Repos        repository.Set
	Lookup       *LookupService
	Sessions     session.Store
	TokenManager *auth.TokenManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokenMgr := deps.TokenManager
	if tokenMgr == nil {
		tokenMgr = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	}
	resetTTL := time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute
	if resetTTL <= 0 {
		resetTTL = 30 * time.Minute
	}
	return &AuthService{
		identities: deps.Repos.Identities,
		admins:     deps.Repos.Admins,
		employees:  deps.Repos.Employees,
		resets:     deps.Repos.PasswordResets,
		lookup:     deps.Lookup,
		sessions:   deps.Sessions,
		tokenMgr:   tokenMgr,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		passwords:  auth.NewPasswords(cfg.Auth.BcryptCost),
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// LoginResult is a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Name      string
	Session   session.State
}

// Login verifies credentials and classifies the account. Admin records are
// probed before employee records; an identity with neither is rejected and
// no token is issued.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := s.waitReady(ctx); err != nil {
		return nil, err
	}
	identity, err := s.identities.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.passwords.Verify(identity.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	state := session.State{UID: identity.UID, Email: identity.Email}
	var name string

	admin, err := s.admins.GetByUID(ctx, identity.UID)
	switch {
	case err == nil:
		if !admin.IsActive {
			return nil, apperrors.NewForbidden("admin account is inactive")
		}
		state.Role = domain.RoleAdmin
		state.CompanyID = s.adminCompany(ctx, identity.UID)
		if state.CompanyID != "" {
			if err := s.sessions.RememberCompany(ctx, identity.UID, state.CompanyID); err != nil {
				s.logger.Warn("remember company failed", zap.String("uid", identity.UID), zap.Error(err))
			}
		}
		name = admin.Name
	case isNotFound(err):
		employee, empErr := s.employees.GetByID(ctx, identity.UID)
		if empErr != nil {
			if isNotFound(empErr) {
				s.logger.Warn("login without account data", zap.String("uid", identity.UID))
				return nil, apperrors.NewAccountDataNotFound()
			}
			return nil, apperrors.MapError(empErr)
		}
		state.Role = domain.RoleEmployee
		state.CompanyID = employee.CompanyID
		name = employee.Name
	default:
		return nil, apperrors.MapError(err)
	}

	issued, err := s.tokenMgr.GenerateToken(identity.UID, state.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	state.TokenID = issued.TokenID
	s.logger.Info("login", zap.String("uid", identity.UID), zap.String("role", string(state.Role)))
	return &LoginResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, Name: name, Session: state}, nil
}

// Authenticate resolves verified claims into a principal. It waits for the
// company directory to finish loading, bounded by ctx.
func (s *AuthService) Authenticate(ctx context.Context, claims *auth.Claims) (*auth.Principal, error) {
	if err := s.waitReady(ctx); err != nil {
		return nil, err
	}
	revoked, err := s.sessions.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, apperrors.NewUnavailable("session store unavailable", err)
	}
	if revoked {
		return nil, apperrors.NewUnauthorized("session has ended")
	}

	principal := &auth.Principal{
		Claims:  claims,
		Session: session.State{UID: claims.UID(), Role: claims.Role, TokenID: claims.TokenID()},
	}
	switch claims.Role {
	case domain.RoleAdmin:
		admin, err := s.admins.GetByUID(ctx, claims.UID())
		if err != nil {
			if isNotFound(err) {
				return nil, apperrors.NewUnauthorized("account no longer exists")
			}
			return nil, apperrors.MapError(err)
		}
		if !admin.IsActive {
			return nil, apperrors.NewForbidden("admin account is inactive")
		}
		principal.Admin = admin
		principal.Session.Email = admin.Email
		principal.Session.CompanyID = s.adminCompany(ctx, admin.UID)
	case domain.RoleEmployee:
		employee, err := s.employees.GetByID(ctx, claims.UID())
		if err != nil {
			if isNotFound(err) {
				return nil, apperrors.NewUnauthorized("account no longer exists")
			}
			return nil, apperrors.MapError(err)
		}
		principal.Employee = employee
		principal.Session.Email = employee.Email
		principal.Session.CompanyID = employee.CompanyID
	default:
		return nil, apperrors.NewUnauthorized("unknown role")
	}
	return principal, nil
}

// adminCompany returns the remembered company if it is still active, else
// the active company with the lowest sortOrder, else "".
func (s *AuthService) adminCompany(ctx context.Context, uid string) string {
	remembered, err := s.sessions.RememberedCompany(ctx, uid)
	if err != nil {
		s.logger.Warn("remembered company lookup failed", zap.String("uid", uid), zap.Error(err))
	}
	if remembered != "" {
		if _, ok := s.lookup.GetCompanyByID(remembered); ok {
			return remembered
		}
	}
	if first, ok := s.lookup.FirstCompany(); ok {
		return first.ID
	}
	return ""
}

func (s *AuthService) waitReady(ctx context.Context) error {
	if s.lookup == nil {
		return nil
	}
	select {
	case <-s.lookup.Ready():
		return nil
	case <-ctx.Done():
		return apperrors.NewUnavailable("service is starting", ctx.Err())
	}
}

// Logout revokes the token until it expires and clears the derived session
// state.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if principal == nil || principal.Claims == nil {
		return apperrors.NewUnauthorized("not signed in")
	}
	claims := principal.Claims
	ttl := claims.Remaining(s.now())
	if ttl > 0 {
		if err := s.sessions.Revoke(ctx, claims.TokenID(), ttl); err != nil {
			return apperrors.NewUnavailable("session store unavailable", err)
		}
	}
	var errs []error
	if principal.Session.IsAdmin() {
		errs = append(errs, s.sessions.ForgetCompany(ctx, claims.UID()))
	}
	errs = append(errs, s.sessions.ClearExportColumns(ctx, claims.TokenID()))
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("session cleanup incomplete", zap.String("uid", claims.UID()), zap.Error(err))
	}
	return nil
}

// SetAdminCompany switches the admin's active company and remembers it for
// future sessions.
func (s *AuthService) SetAdminCompany(ctx context.Context, actor Actor, companyID string) (*domain.Company, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	company, ok := s.lookup.GetCompanyByID(companyID)
	if !ok {
		return nil, apperrors.NewNotFound("company", map[string]any{"id": companyID})
	}
	if err := s.sessions.RememberCompany(ctx, actor.UID, companyID); err != nil {
		return nil, apperrors.NewUnavailable("session store unavailable", err)
	}
	return &company, nil
}

// Provision creates an identity and returns its uid.
func (s *AuthService) Provision(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	errs := fieldErrors{}
	errs.require("email", email)
	if auth.ValidatePassword(password) != nil {
		errs["password"] = "must be at least 6 characters"
	}
	if err := errs.err("invalid account"); err != nil {
		return "", err
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	identity := &domain.Identity{Email: email, PasswordHash: hash}
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return "", apperrors.NewEmailExists(email)
		}
		return "", apperrors.MapError(err)
	}
	return identity.UID, nil
}

// Deprovision removes the identity registered for email.
func (s *AuthService) Deprovision(ctx context.Context, email string) error {
	identity, err := s.identities.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return notFoundOr(err, "identity", email)
	}
	return s.deleteIdentity(ctx, identity.UID)
}

func (s *AuthService) deleteIdentity(ctx context.Context, uid string) error {
	if err := s.identities.Delete(ctx, uid); err != nil {
		return notFoundOr(err, "identity", uid)
	}
	return nil
}

// RequestPasswordReset issues a single-use reset token and announces it for
// delivery. Unknown emails are accepted silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	identity, err := s.identities.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if isNotFound(err) {
			s.logger.Info("password reset for unknown email")
			return nil
		}
		return apperrors.MapError(err)
	}

	token := &domain.PasswordResetToken{
		UID:       identity.UID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, newEvent(events.EventPasswordResetRequested, "", identity.UID,
		events.Actor{UID: identity.UID}, events.PasswordResetRequestedPayload{
			Email:     identity.Email,
			Token:     token.Token,
			ExpiresAt: token.ExpiresAt,
		}))
	return nil
}

// ConfirmPasswordReset redeems a reset token.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if auth.ValidatePassword(newPassword) != nil {
		return apperrors.NewValidationError("password too short", map[string]any{"password": "must be at least 6 characters"})
	}
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if isNotFound(err) {
			return apperrors.NewValidationError("invalid or expired reset token", nil)
		}
		return apperrors.MapError(err)
	}
	if !token.Usable(s.now()) {
		return apperrors.NewValidationError("invalid or expired reset token", nil)
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.identities.UpdatePassword(ctx, token.UID, hash); err != nil {
		return notFoundOr(err, "identity", token.UID)
	}
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, uid, currentPassword, newPassword string) error {
	if auth.ValidatePassword(newPassword) != nil {
		return apperrors.NewValidationError("password too short", map[string]any{"password": "must be at least 6 characters"})
	}
	identity, err := s.identities.GetByUID(ctx, uid)
	if err != nil {
		return notFoundOr(err, "identity", uid)
	}
	if err := s.passwords.Verify(identity.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.identities.UpdatePassword(ctx, uid, hash); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
