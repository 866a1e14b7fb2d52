// Package live fans tenant-scoped snapshots out to subscribers. Each change
// notification reloads the full collection for the tenant and replaces what
// subscribers hold.
package live

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Loader fetches the full snapshot of a tenant.
type Loader[T any] func(ctx context.Context, companyID string) ([]T, error)

// Hub owns the subscriptions of one resource kind. Run is the only goroutine
// that writes snapshots.
type Hub[T any] struct {
	name   string
	load   Loader[T]
	logger *zap.Logger

	mu      sync.Mutex
	subs    map[string]map[*Subscription[T]]struct{}
	pending map[string]struct{}
	wake    chan struct{}
}

// NewHub creates a hub named for logging.
func NewHub[T any](name string, load Loader[T], logger *zap.Logger) *Hub[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub[T]{
		name:    name,
		load:    load,
		logger:  logger.With(zap.String("feed", name)),
		subs:    make(map[string]map[*Subscription[T]]struct{}),
		pending: make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Subscription receives snapshots for one tenant. Only the latest
// undelivered snapshot is kept.
type Subscription[T any] struct {
	hub       *Hub[T]
	companyID string
	ch        chan []T
	done      chan struct{}
	once      sync.Once

	mu     sync.Mutex
	latest []T
}

// CompanyID is the tenant the subscription is scoped to.
func (s *Subscription[T]) CompanyID() string { return s.companyID }

// C delivers snapshots.
func (s *Subscription[T]) C() <-chan []T { return s.ch }

// Done is closed once the subscription is torn down.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

// Latest returns the most recent snapshot handed to the subscription.
func (s *Subscription[T]) Latest() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.latest)
}

// Close removes the subscription. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
	})
}

func (s *Subscription[T]) offer(snapshot []T) {
	s.mu.Lock()
	s.latest = snapshot
	s.mu.Unlock()

	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snapshot:
	default:
	}
}

// Subscribe registers a subscription for companyID and schedules its
// initial snapshot.
func (h *Hub[T]) Subscribe(companyID string) *Subscription[T] {
	sub := &Subscription[T]{
		hub:       h,
		companyID: companyID,
		ch:        make(chan []T, 1),
		done:      make(chan struct{}),
	}
	h.mu.Lock()
	set, ok := h.subs[companyID]
	if !ok {
		set = make(map[*Subscription[T]]struct{})
		h.subs[companyID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	h.Notify(companyID)
	return sub
}

func (h *Hub[T]) remove(sub *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.companyID]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.companyID)
	}
}

// Subscribers counts the open subscriptions of companyID.
func (h *Hub[T]) Subscribers(companyID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[companyID])
}

// Notify marks companyID as changed. Bursts coalesce into one reload.
func (h *Hub[T]) Notify(companyID string) {
	if companyID == "" {
		return
	}
	h.mu.Lock()
	h.pending[companyID] = struct{}{}
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// NotifyAll marks every subscribed tenant as changed.
func (h *Hub[T]) NotifyAll() {
	h.mu.Lock()
	for companyID := range h.subs {
		h.pending[companyID] = struct{}{}
	}
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Run reloads and delivers snapshots until ctx is cancelled.
func (h *Hub[T]) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.wake:
		}

		h.mu.Lock()
		pending := h.pending
		h.pending = make(map[string]struct{})
		h.mu.Unlock()

		for companyID := range pending {
			h.refresh(ctx, companyID)
		}
	}
}

func (h *Hub[T]) refresh(ctx context.Context, companyID string) {
	h.mu.Lock()
	targets := make([]*Subscription[T], 0, len(h.subs[companyID]))
	for sub := range h.subs[companyID] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()
	if len(targets) == 0 {
		return
	}

	snapshot, err := h.load(ctx, companyID)
	if err != nil {
		h.logger.Warn("live snapshot load failed", zap.String("company_id", companyID), zap.Error(err))
		return
	}
	if snapshot == nil {
		snapshot = []T{}
	}
	for _, sub := range targets {
		sub.offer(slices.Clone(snapshot))
	}
}
