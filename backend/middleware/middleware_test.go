package middleware

import (
	"net/http/httptest"
	"testing"

	"gitlearn/backend/models"
	"gitlearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func TestLoggingMiddlewareRequestID(t *testing.T) {
	log, logs := observed()
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	app.Use(LoggingMiddleware(log))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("request_id").(string))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-123", resp.Header.Get(HeaderRequestID))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(HeaderRequestID), 36)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
}

func TestLoggingMiddlewareErrors(t *testing.T) {
	log, logs := observed()
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	app.Use(LoggingMiddleware(log))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "nope")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return assert.AnError
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, assert.AnError.Error(), entries[1].ContextMap()["error"])
}

func TestRequireRoles(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role := c.Get("X-Role"); role != "" {
			c.Locals(userKey, &models.User{ID: 1, Role: role})
		}
		return c.Next()
	})
	app.Get("/", RequireRoles(models.RoleLecturer, models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		role   string
		status int
	}{
		{"", fiber.StatusUnauthorized},
		{models.RoleStudent, fiber.StatusForbidden},
		{models.RoleLecturer, fiber.StatusNoContent},
		{models.RoleAdmin, fiber.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run("role="+tt.role, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			if tt.role != "" {
				req.Header.Set("X-Role", tt.role)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
