package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/repository"
)

func frozenClock() func() time.Time {
	t := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestTicketCreateWritesFirstLog(t *testing.T) {
	repos := NewStore(WithClock(frozenClock())).Set()
	ctx := context.Background()

	ticket := &domain.Ticket{CompanyID: "c1", Title: "X", Category: "hw", RaisedBy: "e1", RaisedByName: "Eve", Status: "open"}
	require.NoError(t, repos.Tickets.Create(ctx, ticket))

	stored, err := repos.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, stored.StatusLogs, 1)
	assert.Equal(t, "open", stored.StatusLogs[0].Status)
	assert.False(t, stored.StatusLogs[0].IsAdmin)
	assert.Equal(t, int64(1), stored.Version)
	assert.NoError(t, stored.CheckInvariants())
}

func TestTicketApplyUpdateRejectsStaleVersion(t *testing.T) {
	repos := NewStore(WithClock(frozenClock())).Set()
	ctx := context.Background()

	ticket := &domain.Ticket{CompanyID: "c1", RaisedBy: "e1", Status: "open"}
	require.NoError(t, repos.Tickets.Create(ctx, ticket))

	updated, err := repos.Tickets.ApplyUpdate(ctx, repository.TicketUpdate{
		TicketID: ticket.ID, ExpectedVersion: 1, NewStatus: "done", ActorName: "Ada", IsAdmin: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "done", updated.Status)
	assert.Len(t, updated.StatusLogs, 2)

	_, err = repos.Tickets.ApplyUpdate(ctx, repository.TicketUpdate{
		TicketID: ticket.ID, ExpectedVersion: 1, Comment: "late", ActorName: "Bob",
	})
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	_, err = repos.Tickets.ApplyUpdate(ctx, repository.TicketUpdate{TicketID: "missing", ExpectedVersion: 1, Comment: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestClockIsStrictlyIncreasing(t *testing.T) {
	repos := NewStore(WithClock(frozenClock())).Set()
	ctx := context.Background()

	first := &domain.Ticket{CompanyID: "c1", Status: "open"}
	second := &domain.Ticket{CompanyID: "c1", Status: "open"}
	require.NoError(t, repos.Tickets.Create(ctx, first))
	require.NoError(t, repos.Tickets.Create(ctx, second))
	assert.True(t, second.Timestamp.After(first.Timestamp))

	list, err := repos.Tickets.ListByCompany(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestAssetTagUniquePerCompany(t *testing.T) {
	repos := NewStore().Set()
	ctx := context.Background()

	require.NoError(t, repos.Assets.Create(ctx, &domain.Asset{CompanyID: "c1", Tag: "LAP-001", TagLower: "lap-001"}))
	err := repos.Assets.Create(ctx, &domain.Asset{CompanyID: "c1", Tag: "lap-001", TagLower: "lap-001"})
	assert.ErrorIs(t, err, repository.ErrDuplicateTag)
	assert.NoError(t, repos.Assets.Create(ctx, &domain.Asset{CompanyID: "c2", Tag: "lap-001", TagLower: "lap-001"}))
}

func TestConcurrentCreatesWithSameTag(t *testing.T) {
	repos := NewStore().Set()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repos.Assets.Create(ctx, &domain.Asset{CompanyID: "c1", Tag: "T", TagLower: "t"})
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
}

func TestUnassignEmployee(t *testing.T) {
	repos := NewStore().Set()
	ctx := context.Background()

	a1 := &domain.Asset{CompanyID: "c1", TagLower: "a1", Status: "assigned", AssignedTo: "e1", AssignedToName: "Eve"}
	a2 := &domain.Asset{CompanyID: "c1", TagLower: "a2", Status: "assigned", AssignedTo: "e1", AssignedToName: "Eve"}
	require.NoError(t, repos.Assets.Create(ctx, a1))
	require.NoError(t, repos.Assets.Create(ctx, a2))

	n, err := repos.Assets.UnassignEmployee(ctx, "e1", "stock")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, id := range []string{a1.ID, a2.ID} {
		got, err := repos.Assets.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "stock", got.Status)
		assert.Empty(t, got.AssignedTo)
		assert.Empty(t, got.AssignedToName)
	}
}

func TestIdentityEmailIgnoresCase(t *testing.T) {
	repos := NewStore().Set()
	ctx := context.Background()

	require.NoError(t, repos.Identities.Create(ctx, &domain.Identity{Email: "a@x.io", PasswordHash: "h"}))
	err := repos.Identities.Create(ctx, &domain.Identity{Email: "A@X.io", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	got, err := repos.Identities.GetByEmail(ctx, "A@x.IO")
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", got.Email)
}

func TestResetTokenSingleUse(t *testing.T) {
	repos := NewStore().Set()
	ctx := context.Background()

	id := &domain.Identity{Email: "a@x.io", PasswordHash: "h"}
	require.NoError(t, repos.Identities.Create(ctx, id))
	token := &domain.PasswordResetToken{UID: id.UID, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repos.PasswordResets.Create(ctx, token))

	require.NoError(t, repos.PasswordResets.MarkUsed(ctx, token.ID))
	assert.ErrorIs(t, repos.PasswordResets.MarkUsed(ctx, token.ID), repository.ErrNotFound)
}
