package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/techdesk-service/internal/config"
	"github.com/spec-kit/techdesk-service/internal/events"
)

func newNotifications(f *fixture, size int) *NotificationService {
	n := NewNotificationService(config.MailConfig{
		QueueSize:       size,
		SiteURLEmployee: "https://desk.example/login",
		ResetURL:        "https://desk.example/reset?lang=en",
	}, NotificationDependencies{
		Dispatcher:   f.dispatcher,
		AdminRepo:    f.repos.Admins,
		EmployeeRepo: f.repos.Employees,
		Lookup:       f.lookup,
	})
	n.RegisterHandlers()
	return n
}

func next(t *testing.T, n *NotificationService) NotificationJob {
	t.Helper()
	select {
	case job := <-n.Jobs():
		return job
	default:
		t.Fatal("no job queued")
		return NotificationJob{}
	}
}

func TestTicketCreatedMailsNotifiableAdmins(t *testing.T) {
	f := newFixture(t)
	emp := f.employee(t, "Eve", "eve@acme.test")
	n := newNotifications(f, 8)

	raise(t, f, emp, "Keyboard")

	job := next(t, n)
	assert.Equal(t, "ticket_created", job.Template)
	msg, err := job.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@acme.test"}, msg.To)
	assert.Contains(t, msg.Subject, "Keyboard")
	assert.Contains(t, msg.HTML, "Hardware")
}

func TestTicketUpdateMailsRaiserOnlyForAdminChanges(t *testing.T) {
	f := newFixture(t)
	emp := f.employee(t, "Eve", "eve@acme.test")
	ticket := raise(t, f, emp, "Mouse")
	n := newNotifications(f, 8)

	_, err := f.tickets.AddCommentAndMaybeUpdateStatus(f.ctx, emp, ticket.ID, "", "ping")
	require.NoError(t, err)
	assert.Zero(t, n.Pending())

	_, err = f.tickets.AddStatusLog(f.ctx, f.admin, ticket.ID, f.ticketStatus(t, "Resolved"))
	require.NoError(t, err)
	job := next(t, n)
	msg, err := job.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"eve@acme.test"}, msg.To)
	assert.Contains(t, msg.HTML, "Resolved")
}

func TestAdminCommentMailCarriesCurrentStatus(t *testing.T) {
	f := newFixture(t)
	emp := f.employee(t, "Eve", "eve@acme.test")
	ticket := raise(t, f, emp, "Monitor")
	n := newNotifications(f, 8)

	_, err := f.tickets.AddCommentAndMaybeUpdateStatus(f.ctx, f.admin, ticket.ID, "", "ordering a new one")
	require.NoError(t, err)
	job := next(t, n)
	msg, err := job.Build(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "ordering a new one")
	assert.Contains(t, msg.HTML, "Current status: <strong>Open</strong>")
}

func TestRemoteEventsAreNotMailed(t *testing.T) {
	f := newFixture(t)
	n := newNotifications(f, 8)

	err := f.dispatcher.Publish(f.ctx, events.Event{
		Type:    events.EventPasswordResetRequested,
		Remote:  true,
		Payload: events.PasswordResetRequestedPayload{Email: "alice@acme.test", Token: "t"},
	})
	require.NoError(t, err)
	assert.Zero(t, n.Pending())
}

func TestPasswordResetLinkCarriesToken(t *testing.T) {
	f := newFixture(t)
	n := newNotifications(f, 8)

	require.NoError(t, f.auth.RequestPasswordReset(f.ctx, "alice@acme.test"))
	msg, err := next(t, n).Build(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "https://desk.example/reset?lang=en&amp;token=")
}

func TestFullQueueDropsJobs(t *testing.T) {
	f := newFixture(t)
	n := newNotifications(f, 1)

	assert.True(t, n.Enqueue(NotificationJob{Template: "a"}))
	assert.False(t, n.Enqueue(NotificationJob{Template: "b"}))
	assert.Equal(t, 1, n.Pending())
}

func TestNoNotifiableAdminsSkips(t *testing.T) {
	f := newFixture(t)
	emp := f.employee(t, "Eve", "eve@acme.test")
	_, err := f.admins.UpdateAdmin(f.ctx, Actor{UID: "other", Role: f.admin.Role}, f.admin.UID,
		AdminUpdate{Name: "Alice", IsActive: true, MailFromEmployee: false})
	require.NoError(t, err)
	n := newNotifications(f, 8)

	raise(t, f, emp, "Dock")
	_, err = next(t, n).Build(context.Background())
	assert.ErrorIs(t, err, ErrNothingToSend)
}
