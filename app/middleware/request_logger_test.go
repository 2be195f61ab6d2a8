package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	app := fiber.New()
	app.Use(RequestLogger(logger))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(RequestIDKey).(string))
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	id := resp.Header.Get(fiber.HeaderXRequestID)
	assert.Len(t, id, 36)
	assert.Contains(t, buf.String(), "id="+id)
	assert.Contains(t, buf.String(), "status=200")

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(fiber.HeaderXRequestID, "client-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "client-id", resp.Header.Get(fiber.HeaderXRequestID))

	buf.Reset()
	resp, err = app.Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, buf.String(), "request failed")
	assert.Contains(t, buf.String(), "error=boom")
}
