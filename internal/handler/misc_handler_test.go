package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aula-go-api/internal/config"
	"github.com/noah-isme/aula-go-api/internal/handler"
	"github.com/noah-isme/aula-go-api/internal/service"
)

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthCheckReportsProbes(t *testing.T) {
	cfg := config.Config{AppName: "Aula API", AppEnv: "test"}

	healthy := fiber.New()
	healthy.Get("/health", handler.HealthCheck(cfg, map[string]handler.HealthProbe{
		"database": func(context.Context) error { return nil },
	}))
	resp, body := doJSON(t, healthy, http.MethodGet, "/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(body.Data), `"database":"ok"`)

	degraded := fiber.New()
	degraded.Get("/health", handler.HealthCheck(cfg, map[string]handler.HealthProbe{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}))
	resp, body = doJSON(t, degraded, http.MethodGet, "/health", nil)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	require.False(t, body.Success)
	require.Contains(t, string(body.Data), `"status":"degraded"`)
}

func TestAgendaHandlerParsesWindow(t *testing.T) {
	svc := &mockAgendaService{}
	app := fiber.New()
	handler.NewAgendaHandler(svc, zerolog.Nop()).Register(app.Group("/agenda"))

	resp, _ := doJSON(t, app, http.MethodGet, "/agenda?from=2026-03-01&to=2026-03-31", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), svc.listReq.From)
	require.Equal(t, time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), svc.listReq.To)

	resp, _ = doJSON(t, app, http.MethodGet, "/agenda?from=March", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	svc.err = service.ErrInvalidDateRange
	resp, _ = doJSON(t, app, http.MethodGet, "/agenda?from=2026-04-01&to=2026-03-01", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReportHandlerSummary(t *testing.T) {
	svc := &mockReportService{}
	app := fiber.New()
	handler.NewReportHandler(svc, zerolog.Nop()).Register(app.Group("/reports"))

	resp, body := doJSON(t, app, http.MethodGet, "/reports/summary?course_id=c-1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "report generated", body.Message)
	require.Equal(t, "c-1", svc.courseID)

	svc.err = service.ErrCourseNotFound
	resp, _ = doJSON(t, app, http.MethodGet, "/reports/summary?course_id=missing", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
