package service

import (
	"context"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/events"
	"github.com/spec-kit/techdesk-service/internal/repository"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

// AdminService manages administrator accounts.
type AdminService struct {
	admins     repository.AdminRepository
	authSvc    *AuthService
	lookup     *LookupService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AdminDependencies groups the collaborators of AdminService.
type AdminDependencies struct {
	AdminRepo  repository.AdminRepository
	Auth       *AuthService
	Lookup     *LookupService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		admins:     deps.AdminRepo,
		authSvc:    deps.Auth,
		lookup:     deps.Lookup,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// AdminInput describes a new administrator.
type AdminInput struct {
	Name             string
	Email            string
	Password         string
	MailFromEmployee bool
}

// AdminUpdate holds the editable admin flags.
type AdminUpdate struct {
	Name             string
	IsActive         bool
	MailFromEmployee bool
}

// RegisterAdmin provisions an identity and writes the admin record, removing
// the identity again if the record cannot be written.
func (s *AdminService) RegisterAdmin(ctx context.Context, actor Actor, input AdminInput) (*domain.Admin, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.register(ctx, actor, input)
}

func (s *AdminService) register(ctx context.Context, actor Actor, input AdminInput) (*domain.Admin, error) {
	errs := fieldErrors{}
	errs.require("name", input.Name)
	errs.require("email", input.Email)
	if err := errs.err("invalid admin"); err != nil {
		return nil, err
	}

	uid, err := s.authSvc.Provision(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	admin := &domain.Admin{
		UID:              uid,
		Name:             strings.TrimSpace(input.Name),
		Email:            strings.TrimSpace(input.Email),
		Role:             domain.RoleAdmin,
		MailFromEmployee: input.MailFromEmployee,
		IsActive:         true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if delErr := s.authSvc.deleteIdentity(ctx, uid); delErr != nil {
			s.logger.Error("identity compensation failed", zap.String("uid", uid), zap.Error(delErr))
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("admin registered", zap.String("uid", uid))
	publishEvent(ctx, s.dispatcher, newEvent(events.EventAdminCreated, "", uid, actor.event(),
		events.AccountCreatedPayload{Name: admin.Name, Email: admin.Email, Password: input.Password}))
	return admin, nil
}

// ListAdmins returns every administrator.
func (s *AdminService) ListAdmins(ctx context.Context, actor Actor) ([]domain.Admin, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	list, err := s.admins.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// UpdateAdmin changes name and flags. Admins cannot deactivate themselves.
func (s *AdminService) UpdateAdmin(ctx context.Context, actor Actor, uid string, update AdminUpdate) (*domain.Admin, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(update.Name) == "" {
		return nil, apperrors.NewValidationError("invalid admin", map[string]any{"name": "is required"})
	}
	if uid == actor.UID && !update.IsActive {
		return nil, apperrors.NewValidationError("you cannot deactivate your own account", nil)
	}
	admin, err := s.admins.GetByUID(ctx, uid)
	if err != nil {
		return nil, notFoundOr(err, "admin", uid)
	}
	admin.Name = strings.TrimSpace(update.Name)
	admin.IsActive = update.IsActive
	admin.MailFromEmployee = update.MailFromEmployee
	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, notFoundOr(err, "admin", uid)
	}
	return admin, nil
}

// DeleteAdmin removes the admin record and its identity. Admins cannot
// delete themselves.
func (s *AdminService) DeleteAdmin(ctx context.Context, actor Actor, uid string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if uid == actor.UID {
		return apperrors.NewValidationError("you cannot delete your own account", nil)
	}
	if _, err := s.admins.GetByUID(ctx, uid); err != nil {
		return notFoundOr(err, "admin", uid)
	}
	var errs error
	var failed []string
	if err := s.admins.Delete(ctx, uid); err != nil {
		errs = multierr.Append(errs, err)
		failed = append(failed, "profile")
	}
	if err := s.authSvc.deleteIdentity(ctx, uid); err != nil {
		errs = multierr.Append(errs, err)
		failed = append(failed, "identity")
	}
	if errs != nil {
		return apperrors.NewPartialFailure("admin deletion incomplete", failed, errs)
	}
	return nil
}

// Bootstrap creates the first admin and a default company when the system
// is empty. It does nothing once any admin exists.
func (s *AdminService) Bootstrap(ctx context.Context, input AdminInput) error {
	existing, err := s.admins.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	system := Actor{UID: "system", Name: "system", Role: domain.RoleAdmin}
	admin, err := s.register(ctx, system, input)
	if err != nil {
		return err
	}
	if len(s.lookup.Companies()) == 0 {
		if _, err := s.lookup.CreateCompany(ctx, system, domain.CompanyOverrides{}); err != nil {
			return err
		}
	}
	s.logger.Info("bootstrap admin created", zap.String("uid", admin.UID), zap.String("email", admin.Email))
	return nil
}
