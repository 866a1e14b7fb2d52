package service

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/events"
	"github.com/spec-kit/techdesk-service/internal/repository"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

// LookupService caches the active companies and answers configuration
// lookups synchronously. Accessors return empty collections for unknown
// companies.
type LookupService struct {
	companies  repository.CompanyRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	newID      func() string

	initOnce sync.Once
	ready    chan struct{}

	mu         sync.RWMutex
	order      []string
	raw        map[string]domain.Company
	normalized map[string]domain.Company
}

// LookupDependencies groups what the directory needs.
type LookupDependencies struct {
	CompanyRepo repository.CompanyRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewLookupService constructs the directory. Init must run before the
// accessors return data.
func NewLookupService(deps LookupDependencies) *LookupService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{
		companies:  deps.CompanyRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		newID:      uuid.NewString,
		ready:      make(chan struct{}),
		raw:        make(map[string]domain.Company),
		normalized: make(map[string]domain.Company),
	}
}

// RegisterHandlers reloads the cache when another instance changes a
// company.
func (s *LookupService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventCompanyChanged, func(ctx context.Context, event events.Event) error {
		if !event.Remote {
			return nil
		}
		return s.Reload(ctx)
	})
}

// Init loads the active companies once. A failed fetch is logged and leaves
// the cache empty. Ready is closed either way.
func (s *LookupService) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		defer close(s.ready)
		if err := s.Reload(ctx); err != nil {
			s.logger.Error("company directory load failed", zap.Error(err))
		}
	})
}

// Ready is closed once Init has completed.
func (s *LookupService) Ready() <-chan struct{} {
	return s.ready
}

// Reload refetches the active companies. The previous cache is kept when
// the fetch fails.
func (s *LookupService) Reload(ctx context.Context) error {
	list, err := s.companies.ListActive(ctx)
	if err != nil {
		return err
	}
	slices.SortStableFunc(list, func(a, b domain.Company) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})

	order := make([]string, 0, len(list))
	raw := make(map[string]domain.Company, len(list))
	normalized := make(map[string]domain.Company, len(list))
	for _, c := range list {
		order = append(order, c.ID)
		raw[c.ID] = c
		normalized[c.ID] = c.Normalized()
	}

	s.mu.Lock()
	s.order, s.raw, s.normalized = order, raw, normalized
	s.mu.Unlock()
	s.logger.Debug("company directory loaded", zap.Int("companies", len(order)))
	return nil
}

func (s *LookupService) put(c domain.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(c.ID)
	if !c.IsActive {
		return
	}
	s.raw[c.ID] = c
	s.normalized[c.ID] = c.Normalized()
	idx := len(s.order)
	for i, id := range s.order {
		if s.raw[id].SortOrder > c.SortOrder {
			idx = i
			break
		}
	}
	s.order = slices.Insert(s.order, idx, c.ID)
}

func (s *LookupService) removeLocked(id string) {
	delete(s.raw, id)
	delete(s.normalized, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
}

func (s *LookupService) get(id string) (domain.Company, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.normalized[id]
	return c, ok
}

// Companies returns every cached company in sortOrder order.
func (s *LookupService) Companies() []domain.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Company, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.normalized[id])
	}
	return out
}

// FirstCompany returns the active company with the lowest sortOrder.
func (s *LookupService) FirstCompany() (domain.Company, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return domain.Company{}, false
	}
	return s.normalized[s.order[0]], true
}

// GetCompanyByID returns the cached company.
func (s *LookupService) GetCompanyByID(id string) (domain.Company, bool) {
	return s.get(id)
}

// GetTeamsByCompany returns the active teams in display order.
func (s *LookupService) GetTeamsByCompany(id string) []domain.Team {
	c, _ := s.get(id)
	return slices.Clone(orEmpty(c.Teams))
}

// GetAssetStatusByCompany returns the active asset statuses in display order.
func (s *LookupService) GetAssetStatusByCompany(id string) []domain.AssetStatus {
	c, _ := s.get(id)
	return slices.Clone(orEmpty(c.AssetStatus))
}

// GetTicketStatusByCompany returns the active ticket statuses in display order.
func (s *LookupService) GetTicketStatusByCompany(id string) []domain.TicketStatus {
	c, _ := s.get(id)
	return slices.Clone(orEmpty(c.TicketStatus))
}

// GetTicketCategoryByCompany returns the active categories in display order.
func (s *LookupService) GetTicketCategoryByCompany(id string) []domain.TicketCategory {
	c, _ := s.get(id)
	return slices.Clone(orEmpty(c.TicketCategory))
}

// GetOperatingSystemsByCompany returns the active OS families in display order.
func (s *LookupService) GetOperatingSystemsByCompany(id string) []domain.OperatingSystem {
	c, _ := s.get(id)
	return slices.Clone(orEmpty(c.OperatingSystems))
}

// GetRAMOptionsByCompany returns the RAM choices.
func (s *LookupService) GetRAMOptionsByCompany(id string) []string {
	c, _ := s.get(id)
	return slices.Clone(orEmpty(c.RAMOptions))
}

// GetDriveOptionsByCompany returns the drive choices.
func (s *LookupService) GetDriveOptionsByCompany(id string) []string {
	c, _ := s.get(id)
	return slices.Clone(orEmpty(c.DriveOptions))
}

// OpenTicketStatus returns the status new tickets start in.
func (s *LookupService) OpenTicketStatus(companyID string) (domain.TicketStatus, bool) {
	c, ok := s.get(companyID)
	if !ok {
		return domain.TicketStatus{}, false
	}
	return c.TicketStatusByKey(domain.SystemKeyOpen)
}

// AssetStatusBySystemKey returns the asset status carrying key.
func (s *LookupService) AssetStatusBySystemKey(companyID string, key domain.SystemKey) (domain.AssetStatus, bool) {
	c, ok := s.get(companyID)
	if !ok {
		return domain.AssetStatus{}, false
	}
	return c.AssetStatusByKey(key)
}

// TicketStatusLabel resolves a status id to its label, including inactive
// rows. Unknown ids are returned unchanged.
func (s *LookupService) TicketStatusLabel(companyID, statusID string) string {
	s.mu.RLock()
	c := s.raw[companyID]
	s.mu.RUnlock()
	if st, ok := c.TicketStatusByID(statusID); ok {
		return st.Status
	}
	return statusID
}

// AssetStatusLabel resolves an asset status id to its label, including
// inactive rows. Unknown ids are returned unchanged.
func (s *LookupService) AssetStatusLabel(companyID, statusID string) string {
	s.mu.RLock()
	c := s.raw[companyID]
	s.mu.RUnlock()
	if st, ok := c.AssetStatusByID(statusID); ok {
		return st.Status
	}
	return statusID
}

// CategoryLabel resolves a ticket category id to its label.
func (s *LookupService) CategoryLabel(companyID, categoryID string) string {
	s.mu.RLock()
	c := s.raw[companyID]
	s.mu.RUnlock()
	if cat, ok := c.CategoryByID(categoryID); ok {
		return cat.Category
	}
	return categoryID
}

// CreateCompany merges overrides onto the default template, persists it and
// adds it to the cache without a refetch.
func (s *LookupService) CreateCompany(ctx context.Context, actor Actor, overrides domain.CompanyOverrides) (*domain.Company, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	company := overrides.Apply(domain.DefaultCompany(s.newID))
	s.fillIDs(&company)
	if err := validateCompany(company); err != nil {
		return nil, err
	}
	if err := s.companies.Create(ctx, &company); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.put(company)
	s.logger.Info("company created", zap.String("company_id", company.ID), zap.String("code", company.Code))
	publishEvent(ctx, s.dispatcher, newEvent(events.EventCompanyChanged, company.ID, company.ID, actor.event(), nil))
	return &company, nil
}

// UpdateCompany rewrites the whole configuration document. System-keyed
// statuses cannot be removed, deactivated or re-keyed.
func (s *LookupService) UpdateCompany(ctx context.Context, actor Actor, company domain.Company) (*domain.Company, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	existing, err := s.companies.GetByID(ctx, company.ID)
	if err != nil {
		return nil, notFoundOr(err, "company", company.ID)
	}
	s.fillIDs(&company)
	if label := existing.ProtectedRemoval(company); label != "" {
		return nil, apperrors.NewProtectedStatus(label)
	}
	if err := validateCompany(company); err != nil {
		return nil, err
	}
	if err := s.companies.Update(ctx, &company); err != nil {
		return nil, notFoundOr(err, "company", company.ID)
	}
	s.put(company)
	publishEvent(ctx, s.dispatcher, newEvent(events.EventCompanyChanged, company.ID, company.ID, actor.event(), nil))
	return &company, nil
}

// DeleteCompany removes a company. confirm must equal the company code.
func (s *LookupService) DeleteCompany(ctx context.Context, actor Actor, id, confirm string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	existing, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "company", id)
	}
	if strings.TrimSpace(confirm) != existing.Code {
		return apperrors.NewConfirmationMismatch()
	}
	if err := s.companies.Delete(ctx, id); err != nil {
		return notFoundOr(err, "company", id)
	}
	s.mu.Lock()
	s.removeLocked(id)
	s.mu.Unlock()
	s.logger.Info("company deleted", zap.String("company_id", id), zap.String("by", actor.UID))
	publishEvent(ctx, s.dispatcher, newEvent(events.EventCompanyChanged, id, id, actor.event(), nil))
	return nil
}

// fillIDs mints ids for nested rows submitted without one.
func (s *LookupService) fillIDs(c *domain.Company) {
	for i := range c.Teams {
		if c.Teams[i].ID == "" {
			c.Teams[i].ID = s.newID()
		}
	}
	for i := range c.AssetStatus {
		if c.AssetStatus[i].ID == "" {
			c.AssetStatus[i].ID = s.newID()
		}
	}
	for i := range c.TicketCategory {
		if c.TicketCategory[i].ID == "" {
			c.TicketCategory[i].ID = s.newID()
		}
	}
	for i := range c.TicketStatus {
		if c.TicketStatus[i].ID == "" {
			c.TicketStatus[i].ID = s.newID()
		}
	}
	for i := range c.OperatingSystems {
		if c.OperatingSystems[i].ID == "" {
			c.OperatingSystems[i].ID = s.newID()
		}
	}
}

func validateCompany(c domain.Company) error {
	errs := fieldErrors{}
	errs.require("code", c.Code)
	errs.require("name", c.Name)
	if st, ok := c.TicketStatusByKey(domain.SystemKeyOpen); !ok || !st.IsActive {
		errs["ticketStatus"] = "an active OPEN status is required"
	}
	return errs.err("invalid company")
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
