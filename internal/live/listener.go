package live

import "sync"

// Listener holds at most one active subscription. Subscribing again tears
// down the previous subscription first.
type Listener[T any] struct {
	hub *Hub[T]

	mu      sync.Mutex
	current *Subscription[T]
}

// NewListener creates a listener bound to h.
func NewListener[T any](h *Hub[T]) *Listener[T] {
	return &Listener[T]{hub: h}
}

// Subscribe replaces the active subscription with one scoped to companyID.
func (l *Listener[T]) Subscribe(companyID string) *Subscription[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil {
		l.current.Close()
	}
	l.current = l.hub.Subscribe(companyID)
	return l.current
}

// Unsubscribe closes the active subscription, if any.
func (l *Listener[T]) Unsubscribe() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil {
		l.current.Close()
		l.current = nil
	}
}

// Current returns the active subscription or nil.
func (l *Listener[T]) Current() *Subscription[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}
