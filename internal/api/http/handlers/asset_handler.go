package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/techdesk-service/internal/api/dto"
	"github.com/spec-kit/techdesk-service/internal/auth"
	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/export"
	"github.com/spec-kit/techdesk-service/internal/service"
	"github.com/spec-kit/techdesk-service/internal/session"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AssetHandler exposes asset inventory endpoints.
type AssetHandler struct {
	assets   *service.AssetService
	data     *service.DataService
	lookup   *service.LookupService
	sessions session.Store
	logger   *zap.Logger
}

// NewAssetHandler constructs handler.
func NewAssetHandler(assets *service.AssetService, data *service.DataService, lookup *service.LookupService,
	sessions session.Store, logger *zap.Logger) *AssetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetHandler{assets: assets, data: data, lookup: lookup, sessions: sessions, logger: logger}
}

func assetInput(req dto.AssetRequest) service.AssetInput {
	return service.AssetInput{
		Name:              req.Name,
		Model:             req.Model,
		Tag:               req.Tag,
		Status:            req.Status,
		AssignedTo:        req.AssignedTo,
		OS:                req.OS,
		OSVersion:         req.OSVersion,
		RAM:               req.RAM,
		Drive:             req.Drive,
		SerialNumber:      req.SerialNumber,
		PurchaseDate:      req.PurchaseDate,
		Peripherals:       req.Peripherals,
		History:           req.History,
		InstalledSoftware: req.InstalledSoftware,
	}
}

// List handles GET /admin/assets?search=&status=.
func (h *AssetHandler) List(c *fiber.Ctx) error {
	var q dto.AssetListQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	list, err := h.data.Assets(c.UserContext(), sessionOf(c), q.Search, q.Status)
	if err != nil {
		return err
	}
	return data(c, dto.AssetsFromDomain(list))
}

// Get handles GET /admin/assets/:id and GET /me/assets/:id.
func (h *AssetHandler) Get(c *fiber.Ctx) error {
	asset, err := h.data.AssetByID(c.UserContext(), sessionOf(c), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, dto.AssetFromDomain(asset))
}

// Mine handles GET /me/assets.
func (h *AssetHandler) Mine(c *fiber.Ctx) error {
	list, err := h.data.MyAssets(c.UserContext(), sessionOf(c))
	if err != nil {
		return err
	}
	return data(c, dto.AssetsFromDomain(list))
}

// Create handles POST /admin/assets.
func (h *AssetHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.AssetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	asset, err := h.assets.CreateAsset(c.UserContext(), actor, assetInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AssetFromDomain(asset)})
}

// Update handles PUT /admin/assets/:id.
func (h *AssetHandler) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.AssetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	asset, err := h.assets.UpdateAsset(c.UserContext(), actor, c.Params("id"), assetInput(req))
	if err != nil {
		return err
	}
	return data(c, dto.AssetFromDomain(asset))
}

// AddHistory handles POST /admin/assets/:id/history.
func (h *AssetHandler) AddHistory(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.HistoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	asset, err := h.assets.AppendHistory(c.UserContext(), actor, c.Params("id"),
		domain.HistoryEntry{Note: req.Note, Date: req.Date})
	if err != nil {
		return err
	}
	return data(c, dto.AssetFromDomain(asset))
}

// Delete handles DELETE /admin/assets/:id.
func (h *AssetHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.assets.DeleteAsset(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Export handles GET /admin/assets/export?columns=&search=&status=. An
// explicit column list is remembered for the rest of the session; without
// one the remembered list, or every column, is used.
func (h *AssetHandler) Export(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	st := principal.Session
	ctx := c.UserContext()

	keys := splitList(c.Query("columns"))
	if len(keys) > 0 {
		if _, err := export.ResolveColumns(keys); err != nil {
			return apperrors.NewValidationError(err.Error(), map[string]any{"columns": c.Query("columns")})
		}
		if ttl := sessionTTL(principal); ttl > 0 {
			if err := h.sessions.SaveExportColumns(ctx, st.TokenID, keys, ttl); err != nil {
				h.logger.Warn("export columns not remembered", zap.String("uid", st.UID), zap.Error(err))
			}
		}
	} else {
		saved, err := h.sessions.ExportColumns(ctx, st.TokenID)
		if err != nil {
			h.logger.Warn("export columns lookup failed", zap.String("uid", st.UID), zap.Error(err))
		}
		keys = saved
	}
	columns, err := export.ResolveColumns(keys)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	search, status := c.Query("search"), c.Query("status")
	assets, err := h.data.Assets(ctx, st, search, status)
	if err != nil {
		return err
	}
	rows := make([]export.Row, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, export.Row{Asset: a, StatusLabel: h.lookup.AssetStatusLabel(st.CompanyID, a.Status)})
	}

	company, _ := h.lookup.GetCompanyByID(st.CompanyID)
	buf, err := export.Build(export.Sheet{
		Title:   strings.TrimSpace(company.Name + " Asset Inventory"),
		Filters: h.filterSummary(st.CompanyID, search, status),
		Columns: columns,
		Rows:    rows,
	})
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="assets-%s.xlsx"`, time.Now().UTC().Format("20060102")))
	return c.Send(buf.Bytes())
}

func (h *AssetHandler) filterSummary(companyID, search, status string) string {
	parts := []string{}
	if status != "" {
		parts = append(parts, "Status: "+h.lookup.AssetStatusLabel(companyID, status))
	}
	if search != "" {
		parts = append(parts, "Search: "+search)
	}
	if len(parts) == 0 {
		return "Filters: none"
	}
	return "Filters: " + strings.Join(parts, ", ")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sessionTTL(p *auth.Principal) time.Duration {
	if p.Claims == nil {
		return 0
	}
	return p.Claims.Remaining(time.Now())
}
