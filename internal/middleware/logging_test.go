package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMiddlewarePropagatesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-123")
		c.Locals("userID", int64(7))
		c.Locals("traceID", "trace-abc")
		return c.Next()
	})
	app.Use(ContextMiddleware())

	var gotRID, gotTID string
	var gotUID int64
	app.Get("/", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		gotRID, _ = ctx.Value(RequestIDKey).(string)
		gotUID, _ = ctx.Value(UserIDKey).(int64)
		gotTID, _ = ctx.Value(TraceIDKey).(string)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-123", gotRID)
	assert.Equal(t, int64(7), gotUID)
	assert.Equal(t, "trace-abc", gotTID)
}

func TestContextMiddlewareIgnoresWrongTypes(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		// userID stored as a string must not leak into the context as int64
		c.Locals("userID", "not-an-int")
		return c.Next()
	})
	app.Use(ContextMiddleware())

	var present bool
	app.Get("/", func(c *fiber.Ctx) error {
		_, present = c.UserContext().Value(UserIDKey).(int64)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.False(t, present)
}

func TestStructuredLoggerPassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
