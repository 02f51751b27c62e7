package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/auth"
	"barstock-backend/internal/auth/authtest"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepo records how often lookups reach the store.
type countingRepo struct {
	*memRepo
	calls int
}

func (r *countingRepo) Get(ctx context.Context, id string) (*models.StockItem, error) {
	r.calls++
	return r.memRepo.Get(ctx, id)
}

func (r *countingRepo) Delete(ctx context.Context, id string) error {
	r.calls++
	return r.memRepo.Delete(ctx, id)
}

func TestStockItemHandlers(t *testing.T) {
	repo := &countingRepo{memRepo: &memRepo{rows: map[string]models.StockItem{}}}
	svc := NewService(repo, &auditSpy{}, logger.Nop())

	app := fiber.New(fiber.Config{ErrorHandler: apperror.FiberErrorHandler(logger.Nop())})
	app.Use(func(c *fiber.Ctx) error {
		auth.WithPrincipal(c, authtest.Principal(models.RoleManager))
		return c.Next()
	})
	app.Get("/stock-items", ListStockItemsHandler(svc))
	app.Post("/stock-items", CreateStockItemHandler(svc))
	app.Put("/stock-items/:id", UpdateStockItemHandler(svc))
	app.Delete("/stock-items/:id", DeleteStockItemHandler(svc))

	do := func(method, path, body string) (int, map[string]any) {
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, r)
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		out := map[string]any{}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return resp.StatusCode, out
	}

	status, body := do(http.MethodPost, "/stock-items", `{"name":"Castle Lager","category":"Beer","unit":"bottle"}`)
	require.Equal(t, http.StatusCreated, status)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	status, body = do(http.MethodPost, "/stock-items", `{"name":"Tonic","unit":"can"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	details, _ := body["details"].(map[string]any)
	assert.Equal(t, "required", details["category"])

	status, body = do(http.MethodPut, "/stock-items/"+id, `{"name":"Castle Lager","category":"Beer","unit":"case"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "case", body["unit"])

	t.Run("malformed id is not found without touching the store", func(t *testing.T) {
		before := repo.calls
		status, body := do(http.MethodPut, "/stock-items/abc", `{"name":"a","category":"b","unit":"c"}`)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, apperror.CodeNotFound, body["code"])

		status, body = do(http.MethodDelete, "/stock-items/abc", "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, apperror.CodeNotFound, body["code"])
		assert.Equal(t, before, repo.calls)
	})

	status, _ = do(http.MethodDelete, "/stock-items/"+id, "")
	assert.Equal(t, http.StatusNoContent, status)
}
