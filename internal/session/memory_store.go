package session

import (
	"context"
	"slices"
	"sync"
	"time"
)

type expiring[T any] struct {
	value     T
	expiresAt time.Time
}

func (e expiring[T]) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

type memoryStore struct {
	mu        sync.Mutex
	now       func() time.Time
	companies map[string]string
	revoked   map[string]expiring[struct{}]
	exports   map[string]expiring[[]string]
}

// NewMemoryStore keeps session state in process memory. State is lost on
// restart and not shared between instances.
func NewMemoryStore() Store {
	return &memoryStore{
		now:       time.Now,
		companies: make(map[string]string),
		revoked:   make(map[string]expiring[struct{}]),
		exports:   make(map[string]expiring[[]string]),
	}
}

func (s *memoryStore) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *memoryStore) RememberCompany(_ context.Context, uid, companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[uid] = companyID
	return nil
}

func (s *memoryStore) RememberedCompany(_ context.Context, uid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.companies[uid], nil
}

func (s *memoryStore) ForgetCompany(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.companies, uid)
	return nil
}

func (s *memoryStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = expiring[struct{}]{expiresAt: s.deadline(ttl)}
	return nil
}

func (s *memoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !entry.live(s.now()) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (s *memoryStore) SaveExportColumns(_ context.Context, tokenID string, columns []string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(columns) == 0 {
		delete(s.exports, tokenID)
		return nil
	}
	s.exports[tokenID] = expiring[[]string]{value: slices.Clone(columns), expiresAt: s.deadline(ttl)}
	return nil
}

func (s *memoryStore) ExportColumns(_ context.Context, tokenID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.exports[tokenID]
	if !ok {
		return nil, nil
	}
	if !entry.live(s.now()) {
		delete(s.exports, tokenID)
		return nil, nil
	}
	return slices.Clone(entry.value), nil
}

func (s *memoryStore) ClearExportColumns(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.exports, tokenID)
	return nil
}
