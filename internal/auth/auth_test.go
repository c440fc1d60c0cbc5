package auth

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() (*fiber.App, *Manager) {
	m := New("test-secret", time.Hour)
	app := fiber.New()
	app.Post("/auth/guest", m.GuestHandler)
	api := app.Group("/api", m.Middleware())
	api.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"playerId": PlayerID(c),
			"name":     PlayerName(c),
		})
	})
	return app, m
}

func issueToken(t *testing.T, app *fiber.App, name string) (token, playerID string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/auth/guest", strings.NewReader(`{"name":"`+name+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Token    string `json:"token"`
		PlayerID string `json:"playerId"`
		Name     string `json:"name"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	require.NotEmpty(t, body.PlayerID)
	require.Equal(t, name, body.Name)
	return body.Token, body.PlayerID
}

func TestGuestTokenRoundTrip(t *testing.T) {
	app, _ := newTestApp()
	token, playerID := issueToken(t, app, "Alice")

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var me struct {
		PlayerID string `json:"playerId"`
		Name     string `json:"name"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, playerID, me.PlayerID)
	assert.Equal(t, "Alice", me.Name)
}

func TestGuestRequiresName(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest("POST", "/auth/guest", strings.NewReader(`{"name":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest("GET", "/api/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMiddlewareRejectsForgedToken(t *testing.T) {
	app, _ := newTestApp()

	other := New("other-secret", time.Hour)
	otherApp := fiber.New()
	otherApp.Post("/auth/guest", other.GuestHandler)
	req := httptest.NewRequest("POST", "/auth/guest", strings.NewReader(`{"name":"Eve"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := otherApp.Test(req)
	require.NoError(t, err)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	forged := httptest.NewRequest("GET", "/api/me", nil)
	forged.Header.Set("Authorization", "Bearer "+body.Token)
	resp, err = app.Test(forged)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLongNameTruncatedOnRuneBoundary(t *testing.T) {
	app, _ := newTestApp()

	// 40 two-byte runes: a byte-wise cut at 32 would land mid-rune and
	// produce invalid UTF-8.
	long := strings.Repeat("é", 40)
	req := httptest.NewRequest("POST", "/auth/guest", strings.NewReader(`{"name":"`+long+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, utf8.ValidString(body.Name))
	assert.Equal(t, maxNameRunes, utf8.RuneCountInString(body.Name))
	assert.Equal(t, strings.Repeat("é", maxNameRunes), body.Name)
}

func TestDistinctPlayersGetDistinctIDs(t *testing.T) {
	app, _ := newTestApp()
	_, id1 := issueToken(t, app, "Alice")
	_, id2 := issueToken(t, app, "Alice")
	assert.NotEqual(t, id1, id2)
}
