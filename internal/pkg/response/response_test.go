package response

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMessage(t *testing.T) {
	assert.Equal(t, MessageOK, DefaultMessage(fiber.StatusOK))
	assert.Equal(t, MessageNotFound, DefaultMessage(fiber.StatusNotFound))
	assert.Equal(t, MessageServiceUnavailable, DefaultMessage(fiber.StatusServiceUnavailable))
	assert.Equal(t, MessageInternalServerError, DefaultMessage(fiber.StatusBadGateway))
	assert.Equal(t, MessageError, DefaultMessage(fiber.StatusTeapot))
}

func TestEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c fiber.Ctx) error {
		c.Locals(LocalRequestID, "rid-7")
		return OK(c, map[string]int{"n": 1})
	})
	app.Get("/odd", func(c fiber.Ctx) error { return Error(c, 42, "", nil) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":200,"message":"ok","data":{"n":1},"requestId":"rid-7"}`, string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/odd", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	var env SemanticResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, MessageInternalServerError, env.Message)
	assert.Empty(t, env.RequestID)
}
