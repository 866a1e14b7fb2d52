package service

import (
	"context"
	"errors"
	"net/url"

	"go.uber.org/zap"

	"github.com/spec-kit/techdesk-service/internal/config"
	"github.com/spec-kit/techdesk-service/internal/events"
	"github.com/spec-kit/techdesk-service/internal/mail"
	"github.com/spec-kit/techdesk-service/internal/observability"
	"github.com/spec-kit/techdesk-service/internal/repository"
)

// ErrNothingToSend marks a job whose message has no recipients.
var ErrNothingToSend = errors.New("notification: nothing to send")

// NotificationJob is one queued mail. Build runs on a worker so recipient
// lookups never delay the request that triggered the mail.
type NotificationJob struct {
	Template string
	Build    func(ctx context.Context) (mail.Message, error)
}

// NotificationService turns domain events into queued mail jobs.
type NotificationService struct {
	dispatcher events.Dispatcher
	admins     repository.AdminRepository
	employees  repository.EmployeeRepository
	lookup     *LookupService
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.MailConfig
	queue      chan NotificationJob
}

// NotificationDependencies groups the collaborators of NotificationService.
type NotificationDependencies struct {
	Dispatcher   events.Dispatcher
	AdminRepo    repository.AdminRepository
	EmployeeRepo repository.EmployeeRepository
	Lookup       *LookupService
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// NewNotificationService creates the service with a queue of
// cfg.QueueSize jobs.
func NewNotificationService(cfg config.MailConfig, deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 256
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		admins:     deps.AdminRepo,
		employees:  deps.EmployeeRepo,
		lookup:     deps.Lookup,
		logger:     logger,
		metrics:    deps.Metrics,
		cfg:        cfg,
		queue:      make(chan NotificationJob, size),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketUpdated)
	n.dispatcher.Subscribe(events.EventEmployeeCreated, n.handleEmployeeCreated)
	n.dispatcher.Subscribe(events.EventAdminCreated, n.handleAdminCreated)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordReset)
}

// Jobs is consumed by the delivery workers.
func (n *NotificationService) Jobs() <-chan NotificationJob {
	return n.queue
}

// Pending is the number of queued jobs.
func (n *NotificationService) Pending() int {
	return len(n.queue)
}

// Enqueue adds a job without blocking. A full queue drops the job.
func (n *NotificationService) Enqueue(job NotificationJob) bool {
	select {
	case n.queue <- job:
		n.metrics.SetNotificationQueueDepth(len(n.queue))
		return true
	default:
		n.logger.Warn("notification queue full, dropping job", zap.String("template", job.Template))
		n.metrics.RecordNotification(job.Template, "dropped")
		return false
	}
}

// Events relayed from other instances were already mailed by their origin.

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	if event.Remote {
		return nil
	}
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	companyID := event.CompanyID
	n.Enqueue(NotificationJob{Template: "ticket_created", Build: func(ctx context.Context) (mail.Message, error) {
		admins, err := n.admins.ListNotifiable(ctx)
		if err != nil {
			return mail.Message{}, err
		}
		to := make([]string, 0, len(admins))
		for _, a := range admins {
			to = append(to, a.Email)
		}
		if len(to) == 0 {
			return mail.Message{}, ErrNothingToSend
		}
		company, _ := n.lookup.GetCompanyByID(companyID)
		return mail.RenderTicketCreated(to, mail.TicketCreated{
			Title:       payload.Title,
			Description: payload.Description,
			Category:    n.lookup.CategoryLabel(companyID, payload.CategoryID),
			AssetTag:    payload.AssetTag,
			RaisedBy:    payload.RaisedByName,
			CompanyName: company.Name,
		})
	}})
	return nil
}

// handleTicketUpdated mails the raising employee when an admin changed the
// ticket and the company has update mails enabled.
func (n *NotificationService) handleTicketUpdated(_ context.Context, event events.Event) error {
	if event.Remote || !event.Actor.IsAdmin {
		return nil
	}
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok {
		return nil
	}
	company, ok := n.lookup.GetCompanyByID(event.CompanyID)
	if !ok || !company.SentMailToEmpTicketUpdate {
		return nil
	}
	status := n.lookup.TicketStatusLabel(event.CompanyID, payload.NewStatus)
	updatedBy := event.Actor.Name
	n.Enqueue(NotificationJob{Template: "ticket_updated", Build: func(ctx context.Context) (mail.Message, error) {
		employee, err := n.employees.GetByID(ctx, payload.RaisedBy)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return mail.Message{}, ErrNothingToSend
			}
			return mail.Message{}, err
		}
		return mail.RenderTicketUpdated(employee.Email, mail.TicketUpdated{
			Title:        payload.Title,
			EmployeeName: employee.Name,
			UpdatedBy:    updatedBy,
			Status:       status,
			Comment:      payload.Comment,
		})
	}})
	return nil
}

func (n *NotificationService) handleEmployeeCreated(_ context.Context, event events.Event) error {
	if event.Remote {
		return nil
	}
	payload, ok := event.Payload.(events.AccountCreatedPayload)
	if !ok {
		return nil
	}
	company, ok := n.lookup.GetCompanyByID(event.CompanyID)
	if !ok || !company.SentMailToEmpRegister {
		return nil
	}
	n.Enqueue(NotificationJob{Template: "account_created", Build: func(context.Context) (mail.Message, error) {
		return mail.RenderAccountCreated(mail.AccountCreated{
			Name:     payload.Name,
			Email:    payload.Email,
			Password: payload.Password,
			LoginURL: n.cfg.SiteURLEmployee,
		})
	}})
	return nil
}

func (n *NotificationService) handleAdminCreated(_ context.Context, event events.Event) error {
	if event.Remote {
		return nil
	}
	payload, ok := event.Payload.(events.AccountCreatedPayload)
	if !ok {
		return nil
	}
	n.Enqueue(NotificationJob{Template: "admin_account_created", Build: func(context.Context) (mail.Message, error) {
		return mail.RenderAccountCreated(mail.AccountCreated{
			Name:     payload.Name,
			Email:    payload.Email,
			Password: payload.Password,
			LoginURL: n.cfg.SiteURLAdmin,
			Admin:    true,
		})
	}})
	return nil
}

func (n *NotificationService) handlePasswordReset(_ context.Context, event events.Event) error {
	if event.Remote {
		return nil
	}
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return nil
	}
	n.Enqueue(NotificationJob{Template: "password_reset", Build: func(context.Context) (mail.Message, error) {
		link, err := resetLink(n.cfg.ResetURL, payload.Token)
		if err != nil {
			return mail.Message{}, err
		}
		return mail.RenderPasswordReset(mail.PasswordReset{
			Email:     payload.Email,
			ResetURL:  link,
			ExpiresAt: payload.ExpiresAt,
		})
	}})
	return nil
}

func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
