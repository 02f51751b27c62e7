package auth_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/auth"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(f fixture) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.FiberErrorHandler(logger.Nop())})
	api := app.Group("/api")
	api.Post("/auth/sign-up", auth.SignUpHandler(f.svc))
	api.Post("/auth/sign-in", auth.SignInHandler(f.svc))

	protected := api.Group("", auth.JWTMiddleware(f.issuer, f.revocations))
	protected.Post("/auth/sign-out", auth.SignOutHandler(f.svc))
	protected.Get("/auth/me", auth.MeHandler(f.svc))
	protected.Get("/admin-only", auth.RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestSignUpHandler_PasswordMismatch(t *testing.T) {
	app := newApp(newFixture(t))

	status, body := do(t, app, http.MethodPost, "/api/auth/sign-up",
		`{"first_name":"Sam","last_name":"Dube","email":"a@bar.co","password":"secret1","confirm_password":"secret2"}`, "")

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperror.CodeValidation, body["code"])
	assert.Equal(t, "Passwords do not match", body["error"])
}

func TestSignUpHandler_MissingFields(t *testing.T) {
	app := newApp(newFixture(t))

	status, body := do(t, app, http.MethodPost, "/api/auth/sign-up", `{"email":"a@bar.co"}`, "")

	assert.Equal(t, http.StatusBadRequest, status)
	details, _ := body["details"].(map[string]any)
	assert.Equal(t, "required", details["first_name"])
	assert.Equal(t, "required", details["password"])
}

func TestAuthFlow(t *testing.T) {
	f := newFixture(t)
	app := newApp(f)

	status, body := do(t, app, http.MethodPost, "/api/auth/sign-up",
		`{"first_name":"Sam","last_name":"Dube","email":"a@bar.co","password":"secret1","confirm_password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "admin", body["role"])
	assert.NotContains(t, body, "password_hash")

	status, body = do(t, app, http.MethodPost, "/api/auth/sign-in", `{"email":"a@bar.co","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	status, body = do(t, app, http.MethodGet, "/api/auth/me", "", token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@bar.co", body["email"])

	status, _ = do(t, app, http.MethodGet, "/admin-only", "", token)
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodPost, "/api/auth/sign-out", "", token)
	require.Equal(t, http.StatusNoContent, status)

	status, body = do(t, app, http.MethodGet, "/api/auth/me", "", token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Session has been signed out", body["error"])
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	app := newApp(newFixture(t))

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"garbage", "Bearer not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	f := newFixture(t)
	app := newApp(f)

	token, _, err := f.issuer.Issue(&models.Profile{ID: "u2", Email: "e@bar.co", Role: models.RoleEmployee})
	require.NoError(t, err)

	status, body := do(t, app, http.MethodGet, "/admin-only", "", token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apperror.CodeForbidden, body["code"])
}
