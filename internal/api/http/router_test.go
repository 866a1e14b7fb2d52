package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/techdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/techdesk-service/internal/auth"
	"github.com/spec-kit/techdesk-service/internal/config"
	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/events"
	"github.com/spec-kit/techdesk-service/internal/repository/memory"
	"github.com/spec-kit/techdesk-service/internal/service"
	"github.com/spec-kit/techdesk-service/internal/session"
	"github.com/spec-kit/techdesk-service/internal/storage"
)

type testServer struct {
	app       *fiber.App
	company   domain.Company
	employees *service.EmployeeService
	admin     service.Actor
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	var cfg config.Config
	cfg.Auth.JWTSecret = "router-test"
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Uploads.PublicPrefix = "/uploads/tickets"

	repos := memory.NewStore().Set()
	dispatcher := events.NewInMemoryDispatcher(logger)
	sessions := session.NewMemoryStore()
	photos, err := storage.NewPhotoStore(t.TempDir(), cfg.Uploads.PublicPrefix, 1<<20)
	require.NoError(t, err)

	lookup := service.NewLookupService(service.LookupDependencies{CompanyRepo: repos.Companies, Dispatcher: dispatcher})
	authSvc := service.NewAuthService(cfg, service.AuthDependencies{
		Repos: repos, Lookup: lookup, Sessions: sessions, Dispatcher: dispatcher,
	})
	assets := service.NewAssetService(service.AssetDependencies{
		AssetRepo: repos.Assets, EmployeeRepo: repos.Employees, Lookup: lookup, Dispatcher: dispatcher,
	})
	tickets := service.NewTicketService(cfg, service.TicketDependencies{
		TicketRepo: repos.Tickets, EmployeeRepo: repos.Employees, Lookup: lookup, Photos: photos, Dispatcher: dispatcher,
	})
	employees := service.NewEmployeeService(service.EmployeeDependencies{
		EmployeeRepo: repos.Employees, IdentityRepo: repos.Identities, Lookup: lookup,
		Auth: authSvc, Assets: assets, Dispatcher: dispatcher,
	})
	admins := service.NewAdminService(service.AdminDependencies{
		AdminRepo: repos.Admins, Auth: authSvc, Lookup: lookup, Dispatcher: dispatcher,
	})
	data := service.NewDataService(lookup, employees, assets)
	lookup.Init(ctx)

	require.NoError(t, admins.Bootstrap(ctx, service.AdminInput{
		Name: "Alice", Email: "alice@acme.test", Password: "secret1", MailFromEmployee: true,
	}))
	company, ok := lookup.FirstCompany()
	require.True(t, ok)
	adminRecords, err := repos.Admins.List(ctx)
	require.NoError(t, err)

	app := fiber.New()
	RegisterMiddlewares(app, logger, nil, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("techdesk", "test", nil, nil, lookup.Ready()),
		Auth:           handlers.NewAuthHandler(authSvc),
		Companies:      handlers.NewCompanyHandler(lookup, data),
		Employees:      handlers.NewEmployeeHandler(employees, data),
		Admins:         handlers.NewAdminHandler(admins),
		Assets:         handlers.NewAssetHandler(assets, data, lookup, sessions, logger),
		Tickets:        handlers.NewTicketHandler(tickets),
		Uploads:        handlers.NewUploadHandler(photos),
		Provisioning:   handlers.NewProvisioningHandler(authSvc),
		Live:           handlers.NewLiveHandler(tickets, assets, lookup, logger, nil),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager(), authSvc),
		UploadDir:      photos.Dir(),
		UploadPrefix:   cfg.Uploads.PublicPrefix,
	})

	return &testServer{
		app:       app,
		company:   company,
		employees: employees,
		admin:     service.Actor{UID: adminRecords[0].UID, Name: "Alice", Role: domain.RoleAdmin, CompanyID: company.ID},
		uploadDir: photos.Dir(),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := s.do(t, fiber.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, fiber.StatusOK, status, body)
	return body["data"].(map[string]any)["token"].(string)
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}

func TestLoginFailuresUseErrorEnvelope(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "alice@acme.test", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = s.do(t, fiber.MethodGet, "/admin/tickets", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = s.do(t, fiber.MethodGet, "/no/such/route", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t)
	_, err := s.employees.CreateEmployee(context.Background(), s.admin, service.EmployeeInput{
		Name: "Eve", Email: "eve@acme.test", Team: s.company.Teams[0].ID,
	})
	require.NoError(t, err)
	adminToken := s.login(t, "alice@acme.test", "secret1")
	empToken := s.login(t, "eve@acme.test", domain.DefaultEmployeePassword)

	status, body := s.do(t, fiber.MethodGet, "/admin/employees", empToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = s.do(t, fiber.MethodGet, "/me", adminToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(t, fiber.MethodGet, "/me", empToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Eve", body["data"].(map[string]any)["name"])

	status, _ = s.do(t, fiber.MethodGet, "/admin/employees", adminToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, err := s.employees.CreateEmployee(context.Background(), s.admin, service.EmployeeInput{
		Name: "Eve", Email: "eve@acme.test", Team: s.company.Teams[0].ID,
	})
	require.NoError(t, err)
	adminToken := s.login(t, "alice@acme.test", "secret1")
	empToken := s.login(t, "eve@acme.test", domain.DefaultEmployeePassword)

	status, body := s.do(t, fiber.MethodPost, "/tickets", empToken, map[string]any{
		"title": "Laptop fan", "description": "loud", "category": s.company.TicketCategory[0].ID,
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	ticketID := body["data"].(map[string]any)["id"].(string)

	var resolved string
	for _, st := range s.company.TicketStatus {
		if st.Status == "Resolved" {
			resolved = st.ID
		}
	}
	status, body = s.do(t, fiber.MethodPatch, "/admin/tickets/"+ticketID, adminToken, map[string]any{
		"status": resolved, "comment": "replaced fan",
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["status_changed"])
	assert.Equal(t, true, body["comment_added"])
	assert.Equal(t, "Comment added and status updated", body["message"])

	status, body = s.do(t, fiber.MethodPatch, "/admin/tickets/"+ticketID, adminToken, map[string]any{"status": resolved})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "ALREADY_IN_STATUS", errorCode(body))

	status, body = s.do(t, fiber.MethodGet, "/tickets", empToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	list := body["data"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, resolved, list[0].(map[string]any)["status"])

	status, body = s.do(t, fiber.MethodGet, "/admin/tickets/stats", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["data"].(map[string]any)["total"])
}

func TestLogoutEndsSession(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@acme.test", "secret1")

	status, _ := s.do(t, fiber.MethodGet, "/auth/session", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, fiber.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, fiber.StatusNoContent, status)

	status, body := s.do(t, fiber.MethodGet, "/auth/session", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestAssetExportReturnsWorkbook(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@acme.test", "secret1")

	req := httptest.NewRequest(fiber.MethodGet, "/admin/assets/export?columns=tag,name", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment; filename=\"assets-")

	status, body := s.do(t, fiber.MethodGet, "/admin/assets/export?columns=tag,bogus", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestPhotoDeleteIsAdminOnly(t *testing.T) {
	s := newTestServer(t)
	_, err := s.employees.CreateEmployee(context.Background(), s.admin, service.EmployeeInput{
		Name: "Eve", Email: "eve@acme.test", Team: s.company.Teams[0].ID,
	})
	require.NoError(t, err)
	empToken := s.login(t, "eve@acme.test", domain.DefaultEmployeePassword)
	adminToken := s.login(t, "alice@acme.test", "secret1")

	path := filepath.Join(s.uploadDir, "shot.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	status, body := s.do(t, fiber.MethodDelete, "/uploads/tickets/shot.png", empToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))
	assert.FileExists(t, path)

	status, _ = s.do(t, fiber.MethodDelete, "/uploads/tickets/shot.png", adminToken, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	assert.NoFileExists(t, path)
}
