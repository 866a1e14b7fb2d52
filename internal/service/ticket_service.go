package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/techdesk-service/internal/config"
	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/events"
	"github.com/spec-kit/techdesk-service/internal/live"
	"github.com/spec-kit/techdesk-service/internal/observability"
	"github.com/spec-kit/techdesk-service/internal/repository"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

// PhotoRemover deletes stored ticket attachments.
type PhotoRemover interface {
	FilenameFromURL(url string) (string, bool)
	Delete(ctx context.Context, filename string) error
}

// TicketService implements the ticket lifecycle.
type TicketService struct {
	tickets    repository.TicketRepository
	employees  repository.EmployeeRepository
	lookup     *LookupService
	photos     PhotoRemover
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	hub        *live.Hub[domain.Ticket]
	listener   *live.Listener[domain.Ticket]

	maxAttempts   int
	retryInterval time.Duration
	maxPhotos     int
}

// TicketDependencies lists the collaborators of the ticket engine.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	EmployeeRepo repository.EmployeeRepository
	Lookup       *LookupService
	Photos       PhotoRemover
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// NewTicketService constructs the engine and its live feed.
func NewTicketService(cfg config.Config, deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TicketService{
		tickets:       deps.TicketRepo,
		employees:     deps.EmployeeRepo,
		lookup:        deps.Lookup,
		photos:        deps.Photos,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		metrics:       deps.Metrics,
		maxAttempts:   cfg.Tickets.UpdateMaxAttempts,
		retryInterval: cfg.Tickets.UpdateRetryInterval(),
		maxPhotos:     cfg.Tickets.MaxPhotosPerTicket,
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = 5
	}
	if s.maxPhotos <= 0 || s.maxPhotos > domain.MaxTicketPhotos {
		s.maxPhotos = domain.MaxTicketPhotos
	}
	s.hub = live.NewHub[domain.Ticket]("tickets", s.loadSnapshot, logger)
	s.listener = live.NewListener(s.hub)
	return s
}

// RegisterHandlers refreshes the live feed whenever a ticket changes.
func (s *TicketService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	refresh := func(_ context.Context, event events.Event) error {
		s.hub.Notify(event.CompanyID)
		return nil
	}
	s.dispatcher.Subscribe(events.EventTicketCreated, refresh)
	s.dispatcher.Subscribe(events.EventTicketUpdated, refresh)
	s.dispatcher.Subscribe(events.EventTicketDeleted, refresh)
}

func (s *TicketService) loadSnapshot(ctx context.Context, companyID string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	domain.SortNewestFirst(tickets)
	return tickets, nil
}

// Hub exposes the live feed.
func (s *TicketService) Hub() *live.Hub[domain.Ticket] { return s.hub }

// NewTicketListener returns a listener that holds at most one subscription.
func (s *TicketService) NewTicketListener() *live.Listener[domain.Ticket] {
	return live.NewListener(s.hub)
}

// SubscribeToTickets replaces the service's live subscription with one for
// companyID.
func (s *TicketService) SubscribeToTickets(companyID string) *live.Subscription[domain.Ticket] {
	return s.listener.Subscribe(companyID)
}

// UnsubscribeFromTickets tears down the service's live subscription.
func (s *TicketService) UnsubscribeFromTickets() {
	s.listener.Unsubscribe()
}

// TicketCreateInput is what an employee submits.
type TicketCreateInput struct {
	Title       string
	Description string
	AssetTag    string
	Category    string
	PhotoURLs   []string
}

// CreateTicket opens a ticket for the calling employee. The ticket and its
// first status log are written in one statement.
func (s *TicketService) CreateTicket(ctx context.Context, actor Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if actor.Role != domain.RoleEmployee {
		return nil, apperrors.NewForbidden("only employees can raise tickets")
	}
	employee, err := s.employees.GetByID(ctx, actor.UID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewAccountDataNotFound()
		}
		return nil, apperrors.MapError(err)
	}

	errs := fieldErrors{}
	errs.require("title", input.Title)
	errs.require("description", input.Description)
	errs.require("category", input.Category)
	if input.Category != "" && !s.activeCategory(employee.CompanyID, input.Category) {
		errs["category"] = "unknown ticket category"
	}
	if err := errs.err("invalid ticket"); err != nil {
		return nil, err
	}
	if len(input.PhotoURLs) > s.maxPhotos {
		return nil, apperrors.NewPhotoLimit(s.maxPhotos)
	}

	open, ok := s.lookup.OpenTicketStatus(employee.CompanyID)
	if !ok {
		return nil, apperrors.NewValidationError("company has no open ticket status", map[string]any{"company_id": employee.CompanyID})
	}

	ticket := &domain.Ticket{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		AssetTag:     strings.TrimSpace(input.AssetTag),
		Category:     input.Category,
		RaisedBy:     employee.ID,
		RaisedByName: employee.Name,
		Team:         employee.Team,
		CompanyID:    employee.CompanyID,
		Status:       open.ID,
		PhotoURLs:    orEmpty(input.PhotoURLs),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordTicketUpdate("created")
	s.logger.Info("ticket created", zap.String("ticket_id", ticket.ID), zap.String("company_id", ticket.CompanyID))

	publishEvent(ctx, s.dispatcher, newEvent(events.EventTicketCreated, ticket.CompanyID, ticket.ID, actor.event(),
		events.TicketCreatedPayload{
			Title:        ticket.Title,
			Description:  ticket.Description,
			CategoryID:   ticket.Category,
			AssetTag:     ticket.AssetTag,
			RaisedByName: ticket.RaisedByName,
		}))
	return ticket, nil
}

func (s *TicketService) activeCategory(companyID, categoryID string) bool {
	for _, c := range s.lookup.GetTicketCategoryByCompany(companyID) {
		if c.ID == categoryID {
			return true
		}
	}
	return false
}

func (s *TicketService) activeStatus(companyID, statusID string) bool {
	for _, st := range s.lookup.GetTicketStatusByCompany(companyID) {
		if st.ID == statusID {
			return true
		}
	}
	return false
}

// GetTicketsByEmployee returns the employee's tickets newest first.
func (s *TicketService) GetTicketsByEmployee(ctx context.Context, employeeID string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByRaiser(ctx, employeeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	domain.SortNewestFirst(tickets)
	return tickets, nil
}

// GetTicketsForAdmin returns the company's tickets newest first, filtered
// in memory.
func (s *TicketService) GetTicketsForAdmin(ctx context.Context, companyID string, filter domain.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	domain.SortNewestFirst(tickets)
	return domain.FilterTickets(tickets, filter), nil
}

// GetTicketByID returns a ticket the actor may see: admins within their
// company, employees only their own.
func (s *TicketService) GetTicketByID(ctx context.Context, actor Actor, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "ticket", id)
	}
	if !s.visible(actor, ticket) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return ticket, nil
}

func (s *TicketService) visible(actor Actor, ticket *domain.Ticket) bool {
	if actor.IsAdmin() {
		return ticket.CompanyID == actor.CompanyID
	}
	return ticket.RaisedBy == actor.UID
}

// UpdateResult reports what an update changed.
type UpdateResult struct {
	Ticket        *domain.Ticket
	StatusChanged bool
	CommentAdded  bool
	Message       string
}

// AddStatusLog moves the ticket to newStatus. Admin only.
func (s *TicketService) AddStatusLog(ctx context.Context, actor Actor, ticketID, newStatus string) (*UpdateResult, error) {
	return s.AddCommentAndMaybeUpdateStatus(ctx, actor, ticketID, newStatus, "")
}

// AddCommentAndMaybeUpdateStatus appends a comment, changes the status, or
// both in one conditional write. Lost races are retried with backoff.
func (s *TicketService) AddCommentAndMaybeUpdateStatus(ctx context.Context, actor Actor, ticketID, newStatus, comment string) (*UpdateResult, error) {
	comment = strings.TrimSpace(comment)
	newStatus = strings.TrimSpace(newStatus)

	var previous domain.Ticket
	attempt := func() (*UpdateResult, error) {
		current, err := s.GetTicketByID(ctx, actor, ticketID)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		if newStatus != "" && newStatus == current.Status && comment == "" {
			return nil, backoff.Permanent(apperrors.NewAlreadyInStatus(s.lookup.TicketStatusLabel(current.CompanyID, newStatus)))
		}
		statusChange := newStatus != "" && newStatus != current.Status
		if !statusChange && comment == "" {
			return nil, backoff.Permanent(apperrors.NewNothingToUpdate())
		}
		if statusChange {
			if !actor.IsAdmin() {
				return nil, backoff.Permanent(apperrors.NewForbidden("only admins can change ticket status"))
			}
			if !s.activeStatus(current.CompanyID, newStatus) {
				return nil, backoff.Permanent(apperrors.NewValidationError("invalid status",
					map[string]any{"status": "unknown ticket status"}))
			}
		}

		update := repository.TicketUpdate{
			TicketID:        current.ID,
			ExpectedVersion: current.Version,
			Comment:         comment,
			ActorName:       actor.Name,
			IsAdmin:         actor.IsAdmin(),
		}
		if statusChange {
			update.NewStatus = newStatus
		}
		updated, err := s.tickets.ApplyUpdate(ctx, update)
		if err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				s.metrics.RecordTicketConflict()
				return nil, err
			}
			return nil, backoff.Permanent(notFoundOr(err, "ticket", ticketID))
		}
		previous = *current
		return &UpdateResult{
			Ticket:        updated,
			StatusChanged: statusChange,
			CommentAdded:  comment != "",
		}, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryInterval
	policy.MaxInterval = 20 * s.retryInterval
	result, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.maxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.logger.Debug("ticket update retry", zap.String("ticket_id", ticketID), zap.Duration("wait", wait), zap.Error(err))
		}),
	)
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Warn("ticket update gave up after conflicts", zap.String("ticket_id", ticketID))
			return nil, apperrors.NewConflict("ticket is being updated concurrently, please retry", map[string]any{"id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	result.Message = updateMessage(actor.IsAdmin(), result.StatusChanged, result.CommentAdded)
	switch {
	case result.StatusChanged && result.CommentAdded:
		s.metrics.RecordTicketUpdate("status_and_comment")
	case result.StatusChanged:
		s.metrics.RecordTicketUpdate("status")
	default:
		s.metrics.RecordTicketUpdate("comment")
	}

	ticket := result.Ticket
	publishEvent(ctx, s.dispatcher, newEvent(events.EventTicketUpdated, ticket.CompanyID, ticket.ID, actor.event(),
		events.TicketUpdatedPayload{
			RaisedBy:      ticket.RaisedBy,
			Title:         ticket.Title,
			OldStatus:     previous.Status,
			NewStatus:     ticket.Status,
			StatusChanged: result.StatusChanged,
			Comment:       comment,
		}))
	return result, nil
}

func updateMessage(isAdmin, statusChanged, commentAdded bool) string {
	if !isAdmin {
		return "Comment added"
	}
	switch {
	case statusChanged && commentAdded:
		return "Comment added and status updated"
	case statusChanged:
		return "Status updated successfully"
	default:
		return "Comment added successfully"
	}
}

// GetTicketStats tallies the company's tickets per status. Every active
// status appears, with zero when unused.
func (s *TicketService) GetTicketStats(ctx context.Context, companyID string) (domain.TicketStats, error) {
	tickets, err := s.tickets.ListByCompany(ctx, companyID)
	if err != nil {
		return domain.TicketStats{}, apperrors.MapError(err)
	}
	stats := domain.CountByStatus(tickets)
	for _, st := range s.lookup.GetTicketStatusByCompany(companyID) {
		if _, ok := stats.ByStatus[st.ID]; !ok {
			stats.ByStatus[st.ID] = 0
		}
	}
	return stats, nil
}

// DeleteTicket removes a ticket, then deletes its photos. Photo failures are
// logged one by one and do not fail the deletion.
func (s *TicketService) DeleteTicket(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	ticket, err := s.GetTicketByID(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return notFoundOr(err, "ticket", id)
	}
	s.removePhotos(ctx, ticket)
	s.logger.Info("ticket deleted", zap.String("ticket_id", id), zap.String("by", actor.UID))
	publishEvent(ctx, s.dispatcher, newEvent(events.EventTicketDeleted, ticket.CompanyID, ticket.ID, actor.event(), nil))
	return nil
}

func (s *TicketService) removePhotos(ctx context.Context, ticket *domain.Ticket) {
	if s.photos == nil {
		return
	}
	for _, url := range ticket.PhotoURLs {
		name, ok := s.photos.FilenameFromURL(url)
		if !ok {
			s.logger.Warn("ticket photo not managed here", zap.String("ticket_id", ticket.ID), zap.String("url", url))
			continue
		}
		if err := s.photos.Delete(ctx, name); err != nil {
			s.logger.Warn("ticket photo delete failed", zap.String("ticket_id", ticket.ID), zap.String("file", name), zap.Error(err))
		}
	}
}
