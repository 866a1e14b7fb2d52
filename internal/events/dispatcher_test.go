package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var calls []string
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestSubscribeAllCoversEveryType(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	seen := map[EventType]int{}
	SubscribeAll(d, func(_ context.Context, e Event) error {
		seen[e.Type]++
		return nil
	})
	for _, typ := range AllTypes {
		require.NoError(t, d.Publish(context.Background(), Event{Type: typ}))
	}
	assert.Len(t, seen, len(AllTypes))
}

func TestRelayHandleMarksRemoteAndSkipsOwnEvents(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	r := &RedisRelay{instanceID: "self", dispatcher: d, logger: zap.NewNop()}

	var got []Event
	d.Subscribe(EventAssetChanged, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	own, err := json.Marshal(envelope{Origin: "self", Event: Event{Type: EventAssetChanged}})
	require.NoError(t, err)
	foreign, err := json.Marshal(envelope{Origin: "peer", Event: Event{Type: EventAssetChanged, CompanyID: "c1"}})
	require.NoError(t, err)

	r.handle(context.Background(), string(own))
	r.handle(context.Background(), "not json")
	r.handle(context.Background(), string(foreign))

	require.Len(t, got, 1)
	assert.True(t, got[0].Remote)
	assert.Equal(t, "c1", got[0].CompanyID)
}

func TestSecretsAreNotSerialized(t *testing.T) {
	body, err := json.Marshal(Event{Payload: AccountCreatedPayload{Name: "n", Email: "e", Password: "secret"}})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "secret")

	body, err = json.Marshal(Event{Payload: PasswordResetRequestedPayload{Email: "e", Token: "tok-123"}})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "tok-123")
}
