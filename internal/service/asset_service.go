package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/events"
	"github.com/spec-kit/techdesk-service/internal/live"
	"github.com/spec-kit/techdesk-service/internal/repository"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

// AssetService manages the hardware inventory of each company.
type AssetService struct {
	assets     repository.AssetRepository
	employees  repository.EmployeeRepository
	lookup     *LookupService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	hub        *live.Hub[domain.Asset]
	listener   *live.Listener[domain.Asset]
	now        func() time.Time
}

// AssetDependencies groups what the asset registry needs.
type AssetDependencies struct {
	AssetRepo    repository.AssetRepository
	EmployeeRepo repository.EmployeeRepository
	Lookup       *LookupService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewAssetService constructs the registry and its live feed.
func NewAssetService(deps AssetDependencies) *AssetService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AssetService{
		assets:     deps.AssetRepo,
		employees:  deps.EmployeeRepo,
		lookup:     deps.Lookup,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
	s.hub = live.NewHub[domain.Asset]("assets", s.assets.ListByCompany, logger)
	s.listener = live.NewListener(s.hub)
	return s
}

// RegisterHandlers refreshes the live feed on asset changes, including
// those relayed from other instances.
func (s *AssetService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	refresh := func(_ context.Context, event events.Event) error {
		s.hub.Notify(event.CompanyID)
		return nil
	}
	s.dispatcher.Subscribe(events.EventAssetChanged, refresh)
	s.dispatcher.Subscribe(events.EventEmployeeDeleted, refresh)
}

// Hub exposes the live feed.
func (s *AssetService) Hub() *live.Hub[domain.Asset] { return s.hub }

// NewAssetListener returns a listener that holds at most one subscription.
func (s *AssetService) NewAssetListener() *live.Listener[domain.Asset] {
	return live.NewListener(s.hub)
}

// SubscribeToAssets replaces the service's live subscription with one for
// companyID.
func (s *AssetService) SubscribeToAssets(companyID string) *live.Subscription[domain.Asset] {
	return s.listener.Subscribe(companyID)
}

// UnsubscribeFromAssets tears down the service's live subscription.
func (s *AssetService) UnsubscribeFromAssets() {
	s.listener.Unsubscribe()
}

// AssetInput is the editable part of an asset.
type AssetInput struct {
	Name              string
	Model             string
	Tag               string
	Status            string
	AssignedTo        string
	OS                string
	OSVersion         string
	RAM               string
	Drive             string
	SerialNumber      string
	PurchaseDate      string
	Peripherals       string
	History           []domain.HistoryEntry
	InstalledSoftware []domain.Software
}

// GetAssetsByCompany returns every asset of the company, newest first.
func (s *AssetService) GetAssetsByCompany(ctx context.Context, companyID string) ([]domain.Asset, error) {
	assets, err := s.assets.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assets, nil
}

// GetAssetsByEmployee returns the assets assigned to the employee.
func (s *AssetService) GetAssetsByEmployee(ctx context.Context, employeeID string) ([]domain.Asset, error) {
	assets, err := s.assets.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assets, nil
}

// GetAssetByID returns one asset.
func (s *AssetService) GetAssetByID(ctx context.Context, id string) (*domain.Asset, error) {
	asset, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "asset", id)
	}
	return asset, nil
}

// GetAssetForActor returns an asset the actor may see: admins within their
// company, employees only their own.
func (s *AssetService) GetAssetForActor(ctx context.Context, actor Actor, id string) (*domain.Asset, error) {
	asset, err := s.GetAssetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(actor, asset) {
		return nil, apperrors.NewNotFound("asset", map[string]any{"id": id})
	}
	return asset, nil
}

func (s *AssetService) visible(actor Actor, asset *domain.Asset) bool {
	if actor.IsAdmin() {
		return asset.CompanyID == actor.CompanyID
	}
	return asset.AssignedTo == actor.UID
}

// List filters the company's assets by a search term and status id.
func (s *AssetService) List(ctx context.Context, companyID, search, status string) ([]domain.Asset, error) {
	assets, err := s.GetAssetsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return domain.FilterAssets(assets, search, status), nil
}

// CreateAsset validates and stores a new asset in the actor's company.
func (s *AssetService) CreateAsset(ctx context.Context, actor Actor, input AssetInput) (*domain.Asset, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	asset, err := s.prepare(ctx, actor.CompanyID, "", input)
	if err != nil {
		return nil, err
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		if errors.Is(err, repository.ErrDuplicateTag) {
			return nil, apperrors.NewDuplicateTag()
		}
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, actor, asset, events.AssetCreated)
	return asset, nil
}

// UpdateAsset validates and rewrites an asset.
func (s *AssetService) UpdateAsset(ctx context.Context, actor Actor, id string, input AssetInput) (*domain.Asset, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	existing, err := s.GetAssetForActor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	asset, err := s.prepare(ctx, existing.CompanyID, existing.ID, input)
	if err != nil {
		return nil, err
	}
	asset.ID = existing.ID
	asset.CreatedAt = existing.CreatedAt
	if err := s.assets.Update(ctx, asset); err != nil {
		if errors.Is(err, repository.ErrDuplicateTag) {
			return nil, apperrors.NewDuplicateTag()
		}
		return nil, notFoundOr(err, "asset", id)
	}
	s.publish(ctx, actor, asset, events.AssetUpdated)
	return asset, nil
}

// DeleteAsset removes an asset.
func (s *AssetService) DeleteAsset(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	asset, err := s.GetAssetForActor(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.assets.Delete(ctx, id); err != nil {
		return notFoundOr(err, "asset", id)
	}
	s.publish(ctx, actor, asset, events.AssetDeleted)
	return nil
}

// AppendHistory adds a dated note to the asset's service history. An empty
// date means today.
func (s *AssetService) AppendHistory(ctx context.Context, actor Actor, id string, entry domain.HistoryEntry) (*domain.Asset, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	entry.Note = strings.TrimSpace(entry.Note)
	if entry.Note == "" {
		return nil, apperrors.NewValidationError("invalid history entry", map[string]any{"note": "is required"})
	}
	if entry.Date == "" {
		entry.Date = s.now().UTC().Format(domain.PurchaseDateLayout)
	} else if _, err := time.Parse(domain.PurchaseDateLayout, entry.Date); err != nil {
		return nil, apperrors.NewValidationError("invalid history entry", map[string]any{"date": "must be YYYY-MM-DD"})
	}
	asset, err := s.GetAssetForActor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	asset.History = append(asset.History, entry)
	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, notFoundOr(err, "asset", id)
	}
	s.publish(ctx, actor, asset, events.AssetUpdated)
	return asset, nil
}

// UnassignEmployee returns every asset held by the employee to the
// company's in-stock status.
func (s *AssetService) UnassignEmployee(ctx context.Context, actor Actor, companyID, employeeID string) (int64, error) {
	inStock, ok := s.lookup.AssetStatusBySystemKey(companyID, domain.SystemKeyInStock)
	if !ok {
		return 0, apperrors.NewValidationError("company has no in-stock asset status", map[string]any{"company_id": companyID})
	}
	n, err := s.assets.UnassignEmployee(ctx, employeeID, inStock.ID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if n > 0 {
		publishEvent(ctx, s.dispatcher, newEvent(events.EventAssetChanged, companyID, "", actor.event(),
			events.AssetChangedPayload{Action: events.AssetUnassigned}))
	}
	s.logger.Info("assets unassigned", zap.String("employee_id", employeeID), zap.Int64("count", n))
	return n, nil
}

// prepare validates input against the company configuration and builds the
// asset to store.
func (s *AssetService) prepare(ctx context.Context, companyID, excludeID string, input AssetInput) (*domain.Asset, error) {
	input.Tag = strings.TrimSpace(input.Tag)
	errs := fieldErrors{}
	errs.require("name", input.Name)
	errs.require("tag", input.Tag)
	errs.require("status", input.Status)
	errs.require("purchaseDate", input.PurchaseDate)

	if input.PurchaseDate != "" {
		purchased, err := time.Parse(domain.PurchaseDateLayout, input.PurchaseDate)
		switch {
		case err != nil:
			errs["purchaseDate"] = "must be YYYY-MM-DD"
		case purchased.After(s.today()):
			errs["purchaseDate"] = "cannot be in the future"
		}
	}

	var status domain.AssetStatus
	if input.Status != "" {
		found := false
		for _, st := range s.lookup.GetAssetStatusByCompany(companyID) {
			if st.ID == input.Status {
				status, found = st, true
				break
			}
		}
		if !found {
			errs["status"] = "unknown asset status"
		}
	}

	if status.SystemKey == domain.SystemKeyInStock {
		input.AssignedTo = ""
	}
	if status.SystemKey == domain.SystemKeyAssigned && input.AssignedTo == "" {
		errs["assignedTo"] = "is required for assigned assets"
	}
	for i, h := range input.History {
		if strings.TrimSpace(h.Note) == "" {
			errs["history"] = "entry " + strconv.Itoa(i+1) + " needs a note"
			break
		}
	}
	if err := errs.err("invalid asset"); err != nil {
		return nil, err
	}

	asset := &domain.Asset{
		Name:              strings.TrimSpace(input.Name),
		Model:             strings.TrimSpace(input.Model),
		Tag:               input.Tag,
		TagLower:          domain.NormalizeTag(input.Tag),
		Status:            input.Status,
		OS:                input.OS,
		OSVersion:         input.OSVersion,
		RAM:               input.RAM,
		Drive:             input.Drive,
		SerialNumber:      strings.TrimSpace(input.SerialNumber),
		PurchaseDate:      input.PurchaseDate,
		Peripherals:       input.Peripherals,
		CompanyID:         companyID,
		History:           orEmpty(input.History),
		InstalledSoftware: orEmpty(input.InstalledSoftware),
	}

	if input.AssignedTo != "" {
		employee, err := s.employees.GetByID(ctx, input.AssignedTo)
		if err != nil && !isNotFound(err) {
			return nil, apperrors.MapError(err)
		}
		if err != nil || employee.CompanyID != companyID {
			return nil, apperrors.NewValidationError("invalid asset", map[string]any{"assignedTo": "unknown employee"})
		}
		asset.AssignedTo = employee.ID
		asset.AssignedToName = employee.Name
	}

	existing, err := s.assets.FindByTag(ctx, companyID, asset.TagLower)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, other := range existing {
		if other.ID != excludeID {
			return nil, apperrors.NewDuplicateTag()
		}
	}
	return asset, nil
}

func (s *AssetService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *AssetService) publish(ctx context.Context, actor Actor, asset *domain.Asset, action events.AssetAction) {
	publishEvent(ctx, s.dispatcher, newEvent(events.EventAssetChanged, asset.CompanyID, asset.ID, actor.event(),
		events.AssetChangedPayload{Action: action, Tag: asset.Tag}))
}
