package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/application"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/Droze-svj/click-platform-sub013/scheduling/recurrence"
	"github.com/Droze-svj/click-platform-sub013/scheduling/repository"
	"github.com/Droze-svj/click-platform-sub013/ui/rest/middleware"
	"github.com/Droze-svj/click-platform-sub013/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type staticContent map[string]domain.Content

func (s staticContent) GetContent(_ context.Context, id string) (domain.Content, error) {
	if c, ok := s[id]; ok {
		return c, nil
	}
	return domain.Content{}, fmt.Errorf("%w: %s", domain.ErrContentMissing, id)
}

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Results json.RawMessage `json:"results"`
}

func setupApp(t *testing.T) (*fiber.App, *repository.ScheduleGormRepository) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:rest_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewScheduleGormRepository(db)
	require.NoError(t, store.Init(context.Background()))

	clock := timeutils.NewFakeClock(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC))
	content := staticContent{"c1": {ID: "c1", Title: "Launch"}}
	detector := application.NewConflictDetector(store, 0)
	resolver := application.NewConflictResolver(detector, store, 0)
	optimizer := application.NewScheduleOptimizer(nil, nil, store, content, detector, resolver, nil, clock, application.OptimizerConfig{})

	scheduleService := usecase.NewScheduleService(store, content, recurrence.NewCalculator(0), detector, resolver,
		application.NewCalendarExporter(store, content, clock), nil, nil, clock)
	healthService := usecase.NewHealthService(application.NewScheduleHealthMonitor(store, clock), store, nil, "click-test", clock)

	app := fiber.New()
	app.Use(middleware.Recovery())
	api := app.Group("/api")
	InitRestSchedule(api, scheduleService)
	InitRestOptimizer(api, usecase.NewOptimizerService(optimizer, store, nil, clock))
	InitRestHealth(api, healthService)
	InitRestMonitoring(api, MonitoringSources{})
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, envelope) {
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
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp, env
}

func TestRuleEndpoints(t *testing.T) {
	app, _ := setupApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/schedule/rules", map[string]any{
		"user_id":    "user-1",
		"content_id": "c1",
		"platform":   "twitter",
		"frequency":  "daily",
		"times":      []string{"09:00"},
		"start_date": "2024-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "SUCCESS", env.Code)

	var created struct {
		Rule     domain.RecurrenceRule `json:"rule"`
		Upcoming []time.Time           `json:"upcoming"`
	}
	require.NoError(t, json.Unmarshal(env.Results, &created))
	assert.Len(t, created.Upcoming, 5)
	id := created.Rule.ID

	resp, env = doJSON(t, app, http.MethodPost, "/api/schedule/rules/"+id+"/pause", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var paused domain.RecurrenceRule
	require.NoError(t, json.Unmarshal(env.Results, &paused))
	assert.Equal(t, domain.RuleStatusPaused, paused.Status)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/schedule/rules/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPost, "/api/schedule/rules/"+id+"/resume", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	resp, env = doJSON(t, app, http.MethodGet, "/api/schedule/rules/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND_ERROR", env.Code)
}

func TestCreateRule_InvalidRuleIsBadRequest(t *testing.T) {
	app, _ := setupApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/schedule/rules", map[string]any{
		"user_id":    "user-1",
		"content_id": "c1",
		"platform":   "twitter",
		"frequency":  "hourly",
		"times":      []string{"09:00"},
		"start_date": "2024-01-01T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Message, "invalid recurrence rule")
}

func TestPostEndpoints(t *testing.T) {
	app, _ := setupApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/schedule/posts", map[string]any{
		"user_id":    "user-1",
		"content_id": "c1",
		"platform":   "twitter",
		"date":       "2024-01-02",
		"time":       "09:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var scheduled struct {
		Post domain.ScheduledPost `json:"post"`
	}
	require.NoError(t, json.Unmarshal(env.Results, &scheduled))

	resp, env = doJSON(t, app, http.MethodPost, "/api/schedule/posts", map[string]any{
		"user_id":    "user-1",
		"content_id": "c1",
		"platform":   "twitter",
		"date":       "2024-01-02",
		"time":       "10:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Post scheduled with 1 conflict(s)", env.Message)

	resp, env = doJSON(t, app, http.MethodGet, "/api/schedule/posts?user_id=user-1&from=2024-01-02&to=2024-01-03", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []domain.ScheduledPost
	require.NoError(t, json.Unmarshal(env.Results, &posts))
	assert.Len(t, posts, 2)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/schedule/posts?user_id=user-1&from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPost, "/api/schedule/posts/"+scheduled.Post.ID+"/status", map[string]any{"status": "posted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.ScheduledPost
	require.NoError(t, json.Unmarshal(env.Results, &updated))
	assert.Equal(t, domain.PostStatusPosted, updated.Status)

	resp, env = doJSON(t, app, http.MethodPost, "/api/schedule/posts/"+scheduled.Post.ID+"/resolve", map[string]any{"strategy": "sideways"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
}

func TestCalendarEndpoint(t *testing.T) {
	app, _ := setupApp(t)
	resp, _ := doJSON(t, app, http.MethodPost, "/api/schedule/posts", map[string]any{
		"user_id": "user-1", "content_id": "c1", "platform": "twitter", "date": "2024-01-02", "time": "09:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/schedule/calendar.ics?user_id=user-1", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/calendar; charset=utf-8", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "SUMMARY:Launch")
}

func TestSweepEndpoint_DisabledScheduler(t *testing.T) {
	app, _ := setupApp(t)
	resp, env := doJSON(t, app, http.MethodPost, "/api/schedule/sweep", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "SERVICE_UNAVAILABLE", env.Code)
}

func TestHealthEndpoints(t *testing.T) {
	app, _ := setupApp(t)

	resp, env := doJSON(t, app, http.MethodGet, "/api/health/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", env.Code)

	resp, env = doJSON(t, app, http.MethodGet, "/api/health/schedule?user_id=user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, env.Message, "0 posts in the next 7 days")

	resp, _ = doJSON(t, app, http.MethodGet, "/api/health/schedule", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOptimizerEndpoints(t *testing.T) {
	app, _ := setupApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/optimizer/predict", map[string]any{
		"user_id":  "user-1",
		"platform": "linkedin",
		"from":     "2024-01-02T00:00:00Z",
		"to":       "2024-01-03T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prediction application.Prediction
	require.NoError(t, json.Unmarshal(env.Results, &prediction))
	require.NotNil(t, prediction.Best)
	assert.Equal(t, "linkedin", prediction.Platform)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/optimizer/analytics?user_id=user-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/optimizer/optimize?days=7", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMonitoringEndpoints_Disabled(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/monitoring/sweeps", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/monitoring/websocket", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
