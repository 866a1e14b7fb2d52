// Package memory is an in-process implementation of the repository
// interfaces. It backs the service when no database is configured and
// serves as the fixture store in tests.
package memory

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/repository"
)

// Store holds every collection behind one lock.
type Store struct {
	mu    sync.RWMutex
	clock func() time.Time
	last  time.Time

	companies  *collection[domain.Company]
	employees  *collection[domain.Employee]
	admins     *collection[domain.Admin]
	assets     *collection[domain.Asset]
	tickets    *collection[domain.Ticket]
	identities *collection[domain.Identity]
	resets     *collection[domain.PasswordResetToken]
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the wall clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		clock:      time.Now,
		companies:  newCollection[domain.Company](),
		employees:  newCollection[domain.Employee](),
		admins:     newCollection[domain.Admin](),
		assets:     newCollection[domain.Asset](),
		tickets:    newCollection[domain.Ticket](),
		identities: newCollection[domain.Identity](),
		resets:     newCollection[domain.PasswordResetToken](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set exposes the store through the repository interfaces.
func (s *Store) Set() repository.Set {
	return repository.Set{
		Companies:      &companyRepo{s},
		Employees:      &employeeRepo{s},
		Admins:         &adminRepo{s},
		Assets:         &assetRepo{s},
		Tickets:        &ticketRepo{s},
		Identities:     &identityRepo{s},
		PasswordResets: &resetRepo{s},
	}
}

// now returns a strictly increasing timestamp. Callers hold s.mu.
func (s *Store) now() time.Time {
	t := s.clock().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func newID() string {
	return uuid.NewString()
}

// collection keeps records in insertion order.
type collection[T any] struct {
	order []string
	byID  map[string]T
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{byID: make(map[string]T)}
}

func (c *collection[T]) get(id string) (T, bool) {
	v, ok := c.byID[id]
	return v, ok
}

func (c *collection[T]) put(id string, v T) {
	if _, ok := c.byID[id]; !ok {
		c.order = append(c.order, id)
	}
	c.byID[id] = v
}

func (c *collection[T]) remove(id string) bool {
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	c.order = slices.DeleteFunc(c.order, func(v string) bool { return v == id })
	return true
}

func (c *collection[T]) all(keep func(T) bool) []T {
	var out []T
	for _, id := range c.order {
		v := c.byID[id]
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func cloneCompany(c domain.Company) domain.Company {
	c.Teams = slices.Clone(c.Teams)
	c.AssetStatus = slices.Clone(c.AssetStatus)
	c.TicketCategory = slices.Clone(c.TicketCategory)
	c.TicketStatus = slices.Clone(c.TicketStatus)
	c.OperatingSystems = slices.Clone(c.OperatingSystems)
	for i := range c.OperatingSystems {
		c.OperatingSystems[i].Version = slices.Clone(c.OperatingSystems[i].Version)
	}
	c.RAMOptions = slices.Clone(c.RAMOptions)
	c.DriveOptions = slices.Clone(c.DriveOptions)
	return c
}

func cloneAsset(a domain.Asset) domain.Asset {
	a.History = slices.Clone(a.History)
	a.InstalledSoftware = slices.Clone(a.InstalledSoftware)
	return a
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.StatusLogs = slices.Clone(t.StatusLogs)
	t.Comments = slices.Clone(t.Comments)
	t.PhotoURLs = slices.Clone(t.PhotoURLs)
	return t
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
