package router_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-study-api/internal/batch"
	"github.com/noah-isme/gema-study-api/internal/config"
	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/handler"
	"github.com/noah-isme/gema-study-api/internal/router"
	"github.com/noah-isme/gema-study-api/internal/service"
)

type dashboardOnly struct {
	service.StudentTaskService
	calls int
}

func (d *dashboardOnly) Dashboard(context.Context, service.Actor) (dto.StudentDashboardResponse, error) {
	d.calls++
	return dto.StudentDashboardResponse{}, nil
}

func (d *dashboardOnly) Complete(context.Context, service.Actor, batch.Kind, uint, dto.CompleteRequest) (dto.CompleteResponse, error) {
	d.calls++
	return dto.CompleteResponse{}, nil
}

func fakeJWT(c *fiber.Ctx) error {
	role := c.Get("X-Test-Role")
	if role == "" {
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	c.Locals("user_id", uint(1))
	c.Locals("user_role", role)
	return c.Next()
}

func newApp(svc service.StudentTaskService, limiter fiber.Handler) *fiber.App {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "GEMA Study API"}, router.Dependencies{
		StudentTaskHandler: handler.NewStudentTaskHandler(svc, zerolog.Nop()),
		JWTMiddleware:      fakeJWT,
		CompletionLimiter:  limiter,
	})
	return app
}

func TestStudentRoutesRequireStudentRole(t *testing.T) {
	svc := &dashboardOnly{}
	app := newApp(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/student/dashboard", nil)
	req.Header.Set("X-Test-Role", "teacher")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/student/dashboard", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/student/dashboard", nil)
	req.Header.Set("X-Test-Role", "student")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "GEMA Study API", resp.Header.Get("X-Application"))
	require.Equal(t, 1, svc.calls)
}

func TestCompletionLimiterApplied(t *testing.T) {
	svc := &dashboardOnly{}
	limited := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusTooManyRequests) }
	app := newApp(svc, limited)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/student/tasks/quiz/1/complete", nil)
	req.Header.Set("X-Test-Role", "student")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.Zero(t, svc.calls)
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	app := newApp(&dashboardOnly{}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "notification_sweep_duration_seconds")
}
