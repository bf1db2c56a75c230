package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestObservabilityLogsOnlyPrefixedRoutes(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(CorrelationID())
	app.Use(Observability(zerolog.New(&buf), "/api"))
	app.Get("/api/student/tasks/:kind/:id", func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, uint(5))
		c.Locals(LocalUserRole, "student")
		return c.SendStatus(fiber.StatusNotFound)
	})
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Zero(t, buf.Len())

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/student/tasks/quiz/3", nil))
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "warn", line["level"])
	require.Equal(t, "/api/student/tasks/:kind/:id", line["route"])
	require.Equal(t, "quiz", line["kind"])
	require.Equal(t, float64(5), line["user_id"])
	require.Equal(t, float64(404), line["status"])
	require.NotEmpty(t, line["correlation_id"])
}
