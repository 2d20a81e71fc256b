package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusdesk/complaint-service/internal/api/http/handlers"
	"github.com/campusdesk/complaint-service/internal/auth"
	"github.com/campusdesk/complaint-service/internal/config"
	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/observability"
	"github.com/campusdesk/complaint-service/internal/repository"
	"github.com/campusdesk/complaint-service/internal/scheduler"
	"github.com/campusdesk/complaint-service/internal/service"
)

type testEnv struct {
	app      *fiber.App
	store    *repository.MemoryStore
	tokens   *auth.TokenManager
	category *domain.Category
	admin    *domain.User
	staff    *domain.User
	user     *domain.User
	other    *domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	metrics := observability.NewMetrics()

	complaints := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: store.Complaints(),
		CategoryRepo:  store.Categories(),
		Metrics:       metrics,
	})
	assignments := service.NewAssignmentService(service.AssignmentDependencies{
		ComplaintRepo: store.Complaints(),
		CategoryRepo:  store.Categories(),
		UserRepo:      store.Users(),
		Policy: service.NewWorkloadPolicy(config.AssignmentConfig{
			RecommendThreshold: 5,
			AdminBonus:         0.5,
			GeneralDepartment:  "General",
		}),
		Metrics: metrics,
	})
	sched, err := scheduler.New(complaints, 60, scheduler.WithRestartDelay(0), scheduler.WithMetrics(metrics))
	require.NoError(t, err)
	assignments.SetWatcher(sched)
	t.Cleanup(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = sched.Close(closeCtx)
	})

	tokens := auth.NewTokenManager("test-secret", 60)
	env := &testEnv{store: store, tokens: tokens}

	env.category = &domain.Category{Name: "Facilities", Department: "Maintenance", ResolutionTimeHours: 24, IsActive: true}
	require.NoError(t, store.Categories().Create(ctx, env.category))

	addUser := func(name string, role domain.UserRole, department string, offset time.Duration) *domain.User {
		u := &domain.User{Name: name, Role: role, Department: department, Active: true, CreatedAt: time.Now().Add(offset)}
		require.NoError(t, store.Users().Create(ctx, u))
		return u
	}
	env.admin = addUser("admin", domain.RoleAdmin, "IT", 0)
	env.staff = addUser("wendy", domain.RoleStaff, "Maintenance", time.Second)
	env.user = addUser("sam", domain.RoleUser, "", 2*time.Second)
	env.other = addUser("olga", domain.RoleUser, "", 3*time.Second)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("complaint-service", "test", "memory", nil),
		Complaints:     handlers.NewComplaintsHandler(complaints),
		Escalations:    handlers.NewEscalationsHandler(complaints, sched),
		Assignments:    handlers.NewAssignmentHandler(assignments),
		Categories:     handlers.NewCategoriesHandler(service.NewCategoryService(store.Categories())),
		Reports:        handlers.NewReportsHandler(service.NewReportService(store.Reports())),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Users()),
		Metrics:        metrics,
	})
	env.app = app
	return env
}

func (e *testEnv) token(t *testing.T, u *domain.User) string {
	t.Helper()
	token, _, err := e.tokens.GenerateToken(u.ID, u.Role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path string, as *domain.User, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, as))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func (e *testEnv) createComplaint(t *testing.T, as *domain.User) map[string]any {
	t.Helper()
	status, body := e.do(t, fiber.MethodPost, "/complaints", as, map[string]any{
		"category_id": e.category.ID,
		"title":       "Broken heater",
		"priority":    "high",
	})
	require.Equal(t, fiber.StatusCreated, status)
	return body["data"].(map[string]any)
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, fiber.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "memory", body["store"])

	status, body = env.do(t, fiber.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "http_requests_total")
}

func TestUnknownRouteReturnsJSONError(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, fiber.MethodGet, "/nope", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, fiber.MethodPost, "/complaints", nil, map[string]any{"title": "x"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	req := httptest.NewRequest(fiber.MethodGet, "/complaints", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	status, body = env.do(t, fiber.MethodGet, "/admin/scheduler", env.staff, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = env.do(t, fiber.MethodGet, "/staff/complaints", env.user, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestComplaintLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	created := env.createComplaint(t, env.user)
	id := created["id"].(string)
	assert.Equal(t, "submitted", created["status"])
	assert.Regexp(t, `^CMP-`, created["ticket_ref"])

	status, _ := env.do(t, fiber.MethodGet, "/complaints/"+id, env.user, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body := env.do(t, fiber.MethodGet, "/complaints/"+id, env.other, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = env.do(t, fiber.MethodGet, "/complaints/ref/"+created["ticket_ref"].(string), env.staff, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, id, body["data"].(map[string]any)["id"])

	status, body = env.do(t, fiber.MethodPost, "/staff/complaints/"+id+"/status", env.staff, map[string]any{
		"status": "in_progress", "remarks": "looking into it",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "in_progress", body["data"].(map[string]any)["status"])

	status, body = env.do(t, fiber.MethodPost, "/staff/complaints/"+id+"/status", env.staff, map[string]any{"status": "in_progress"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(body))

	status, _ = env.do(t, fiber.MethodPost, "/staff/complaints/"+id+"/status", env.staff, map[string]any{"status": "resolved"})
	require.Equal(t, fiber.StatusOK, status)

	status, body = env.do(t, fiber.MethodPost, "/staff/complaints/"+id+"/reopen", env.staff, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "submitted", body["data"].(map[string]any)["status"])

	status, body = env.do(t, fiber.MethodGet, "/complaints", env.user, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestEscalationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(t, env.user)["id"].(string)

	status, body := env.do(t, fiber.MethodPost, "/admin/complaints/"+id+"/escalate", env.admin, map[string]any{"reason": "VIP customer"})
	require.Equal(t, fiber.StatusOK, status)
	escalation := body["data"].(map[string]any)["escalation"].(map[string]any)
	assert.Equal(t, true, escalation["is_escalated"])
	assert.Equal(t, "VIP customer", escalation["reason"])

	status, body = env.do(t, fiber.MethodPost, "/admin/complaints/"+id+"/escalate", env.admin, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "ALREADY_ESCALATED", errorCode(body))

	overdue := &domain.Complaint{
		TicketRef:  "CMP-OVERDUE1",
		Title:      "Old issue",
		CategoryID: env.category.ID,
		Priority:   domain.PriorityMedium,
		Status:     domain.StatusInProgress,
		Deadline:   time.Now().Add(-3 * time.Hour),
	}
	require.NoError(t, env.store.Complaints().Create(context.Background(), overdue))

	status, body = env.do(t, fiber.MethodGet, "/admin/escalations/pending", env.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	pending := body["data"].([]any)
	require.Len(t, pending, 1)
	assert.Equal(t, float64(3), pending[0].(map[string]any)["overdue_hours"])

	status, body = env.do(t, fiber.MethodPost, "/admin/escalations/sweep", env.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["data"].(map[string]any)["escalated_count"])

	status, body = env.do(t, fiber.MethodGet, "/admin/escalations/at-risk?buffer_hours=abc", env.admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestMalformedIdentifiersOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, fiber.MethodGet, "/complaints/not-a-uuid", env.user, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = env.do(t, fiber.MethodPost, "/admin/complaints/not-a-uuid/escalate", env.admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = env.do(t, fiber.MethodGet, "/staff/complaints?category_id=bogus", env.staff, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = env.do(t, fiber.MethodGet, "/staff/complaints?assignee_id=bogus", env.staff, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = env.do(t, fiber.MethodGet, "/admin/escalations/at-risk?buffer_hours=1e300", env.admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, _ = env.do(t, fiber.MethodGet, "/admin/escalations/at-risk?buffer_hours=8760", env.admin, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestSchedulerEndpoints(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, fiber.MethodPut, "/admin/scheduler/interval", env.admin, map[string]any{"minutes": 3})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INTERVAL", errorCode(body))

	status, body = env.do(t, fiber.MethodPut, "/admin/scheduler/interval", env.admin, map[string]any{"minutes": 120})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(120), body["data"].(map[string]any)["interval_minutes"])

	status, body = env.do(t, fiber.MethodPost, "/admin/scheduler/start", env.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["data"].(map[string]any)["active"])

	status, body = env.do(t, fiber.MethodPost, "/admin/scheduler/restart", env.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["data"].(map[string]any)["active"])

	status, body = env.do(t, fiber.MethodPost, "/admin/scheduler/stop", env.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["data"].(map[string]any)["active"])

	status, body = env.do(t, fiber.MethodGet, "/admin/scheduler", env.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(120), body["data"].(map[string]any)["interval_minutes"])
}

func TestAssignmentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	id := env.createComplaint(t, env.user)["id"].(string)

	status, body := env.do(t, fiber.MethodGet, "/admin/complaints/"+id+"/recommendations", env.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	ranked := body["data"].([]any)
	require.Len(t, ranked, 2)
	assert.Equal(t, env.admin.ID, ranked[0].(map[string]any)["staff_id"])

	status, body = env.do(t, fiber.MethodPost, "/admin/complaints/"+id+"/assign", env.admin, map[string]any{"staff_id": env.user.ID})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_ASSIGNEE", errorCode(body))

	status, body = env.do(t, fiber.MethodPost, "/admin/complaints/"+id+"/assign", env.admin, map[string]any{"staff_id": env.staff.ID})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, env.staff.ID, body["data"].(map[string]any)["assignee_id"])

	status, body = env.do(t, fiber.MethodPost, "/admin/complaints/"+id+"/unassign", env.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, body["data"].(map[string]any)["assignee_id"])

	status, body = env.do(t, fiber.MethodPost, "/admin/complaints/"+id+"/auto-assign", env.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	chosen := body["data"].(map[string]any)["chosen"].(map[string]any)
	assert.Equal(t, env.admin.ID, chosen["staff_id"])
}

func TestCategoryAndReportEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.createComplaint(t, env.user)

	status, body := env.do(t, fiber.MethodPost, "/admin/categories", env.admin, map[string]any{
		"name": "Parking", "department": "Security",
	})
	require.Equal(t, fiber.StatusCreated, status)
	parking := body["data"].(map[string]any)
	assert.Equal(t, true, parking["is_active"])

	status, body = env.do(t, fiber.MethodGet, "/categories", env.user, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 2)

	status, body = env.do(t, fiber.MethodDelete, "/admin/categories/"+env.category.ID, env.admin, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, _ = env.do(t, fiber.MethodDelete, "/admin/categories/"+parking["id"].(string), env.admin, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = env.do(t, fiber.MethodGet, "/admin/reports/overview", env.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	overview := body["data"].(map[string]any)
	assert.Equal(t, float64(1), overview["total"])
	assert.Len(t, overview["sla"], len(domain.AllPriorities))

	status, body = env.do(t, fiber.MethodGet, "/admin/reports/trends?granularity=week", env.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = env.do(t, fiber.MethodGet, "/admin/reports/status?from=yesterday", env.admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}
