// Package service implements the TechDesk business operations on top of the
// repositories, the session store and the event dispatcher.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/techdesk-service/internal/auth"
	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/events"
	"github.com/spec-kit/techdesk-service/internal/repository"
	"github.com/spec-kit/techdesk-service/internal/session"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	UID       string
	Name      string
	Role      domain.Role
	CompanyID string
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// ActorFromPrincipal builds the actor of a request.
func ActorFromPrincipal(p *auth.Principal) Actor {
	if p == nil {
		return Actor{}
	}
	a := Actor{UID: p.Session.UID, Role: p.Session.Role, CompanyID: p.Session.CompanyID}
	switch {
	case p.Admin != nil:
		a.Name = p.Admin.Name
	case p.Employee != nil:
		a.Name = p.Employee.Name
	}
	return a
}

// ActorFromSession builds an actor when only the session is known.
func ActorFromSession(st session.State, name string) Actor {
	return Actor{UID: st.UID, Name: name, Role: st.Role, CompanyID: st.CompanyID}
}

func (a Actor) event() events.Actor {
	return events.Actor{UID: a.UID, Name: a.Name, IsAdmin: a.IsAdmin()}
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func newEvent(eventType events.EventType, companyID, entityID string, actor events.Actor, payload any) events.Event {
	return events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		CompanyID: companyID,
		EntityID:  entityID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// notFoundOr maps a missing row to a NOT_FOUND error for resource and any
// other failure through the generic mapping.
func notFoundOr(err error, resource, id string) error {
	if isNotFound(err) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}

type fieldErrors map[string]any

func (f fieldErrors) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = "is required"
	}
}

func (f fieldErrors) err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.NewValidationError(message, f)
}
