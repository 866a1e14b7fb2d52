package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu   sync.Mutex
	data map[string][]string
}

func (f *fakeSource) set(companyID string, items ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[companyID] = items
}

func (f *fakeSource) load(_ context.Context, companyID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.data[companyID]...), nil
}

func startHub(t *testing.T) (*Hub[string], *fakeSource) {
	t.Helper()
	src := &fakeSource{data: map[string][]string{}}
	hub := NewHub[string]("test", src.load, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub, src
}

func receive(t *testing.T, sub *Subscription[string]) []string {
	t.Helper()
	select {
	case snap := <-sub.C():
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return nil
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	hub, src := startHub(t)
	src.set("c1", "a", "b")

	sub := hub.Subscribe("c1")
	defer sub.Close()

	assert.Equal(t, []string{"a", "b"}, receive(t, sub))
	assert.Equal(t, []string{"a", "b"}, sub.Latest())
}

func TestNotifyReplacesSnapshot(t *testing.T) {
	hub, src := startHub(t)
	src.set("c1", "a")
	sub := hub.Subscribe("c1")
	defer sub.Close()
	receive(t, sub)

	src.set("c1", "a", "b", "c")
	hub.Notify("c1")
	assert.Equal(t, []string{"a", "b", "c"}, receive(t, sub))
}

func TestTenantsAreIsolated(t *testing.T) {
	hub, src := startHub(t)
	src.set("c1", "a")
	src.set("c2", "z")
	sub1 := hub.Subscribe("c1")
	sub2 := hub.Subscribe("c2")
	defer sub1.Close()
	defer sub2.Close()
	receive(t, sub1)
	receive(t, sub2)

	src.set("c2", "y")
	hub.Notify("c2")
	assert.Equal(t, []string{"y"}, receive(t, sub2))

	select {
	case snap := <-sub1.C():
		t.Fatalf("unexpected snapshot for c1: %v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestListenerKeepsSingleSubscription(t *testing.T) {
	hub, src := startHub(t)
	src.set("c1", "a")
	src.set("c2", "b")
	l := NewListener(hub)

	first := l.Subscribe("c1")
	second := l.Subscribe("c2")

	select {
	case <-first.Done():
	default:
		t.Fatal("previous subscription was not torn down")
	}
	assert.Equal(t, 0, hub.Subscribers("c1"))
	assert.Equal(t, 1, hub.Subscribers("c2"))
	assert.Equal(t, []string{"b"}, receive(t, second))

	l.Unsubscribe()
	l.Unsubscribe()
	assert.Nil(t, l.Current())
	assert.Equal(t, 0, hub.Subscribers("c2"))
}

func TestSlowSubscriberGetsLatestOnly(t *testing.T) {
	src := &fakeSource{data: map[string][]string{}}
	hub := NewHub[string]("test", src.load, nil)
	sub := hub.Subscribe("c1")
	defer sub.Close()

	src.set("c1", "old")
	hub.refresh(context.Background(), "c1")
	src.set("c1", "new")
	hub.refresh(context.Background(), "c1")

	require.Len(t, sub.C(), 1)
	assert.Equal(t, []string{"new"}, <-sub.C())
}
