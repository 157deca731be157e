package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	testCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", shared.ErrInvalidQuantity, http.StatusBadRequest, "ERR_INVALID_QUANTITY"},
		{"not found", shared.ErrNotFound.WithMessage("Order %s not found", "R1"), http.StatusNotFound, "ERR_NOT_FOUND"},
		{"conflict", shared.ErrConcurrencyConflict, http.StatusConflict, "ERR_CONCURRENCY_CONFLICT"},
		{"failure", shared.NewFailureError("NO_SOURCE", "nowhere to ship from"), http.StatusUnprocessableEntity, "ERR_NO_SOURCE"},
		{"wrapped domain error", errors.Join(errors.New("tx"), shared.ErrInsufficientStock), http.StatusConflict, "ERR_INSUFFICIENT_STOCK"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := newContext(http.MethodGet, "/")
			c.Request.Header.Set("X-Request-ID", "req-1")

			h.HandleError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.code, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}

	t.Run("unexpected errors do not leak", func(t *testing.T) {
		c, w := newContext(http.MethodGet, "/")
		h.HandleError(c, errors.New("pq: password authentication failed"))
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("nil is a no-op", func(t *testing.T) {
		c, w := newContext(http.MethodGet, "/")
		h.HandleError(c, nil)
		assert.Empty(t, w.Body.String())
	})
}

func TestBaseHandler_UUIDParam(t *testing.T) {
	h := &BaseHandler{}

	t.Run("valid", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/")
		c.Params = gin.Params{{Key: "id", Value: "6f1c1d2e-8a4b-4f1e-9a55-0f5d2b1c3a4e"}}
		id, ok := h.uuidParam(c, "id")
		assert.True(t, ok)
		assert.Equal(t, "6f1c1d2e-8a4b-4f1e-9a55-0f5d2b1c3a4e", id.String())
	})

	t.Run("invalid", func(t *testing.T) {
		c, w := newContext(http.MethodGet, "/")
		c.Params = gin.Params{{Key: "unit_id", Value: "42"}}
		_, ok := h.uuidParam(c, "unit_id")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid unit_id", decodeResponse(t, w).Error.Message)
	})
}

func TestPaged(t *testing.T) {
	t.Run("carries pagination meta", func(t *testing.T) {
		c, w := newContext(http.MethodGet, "/")
		page := shared.NewPaginated([]string{"a", "b"}, 5, 1, 2)
		Paged(c, &page)

		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(5), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("empty pages render an empty list", func(t *testing.T) {
		c, w := newContext(http.MethodGet, "/")
		page := shared.NewPaginated[string](nil, 0, 1, 20)
		Paged(c, &page)
		assert.Contains(t, w.Body.String(), `"data":[]`)
	})
}

func TestPageFilter(t *testing.T) {
	assert.Equal(t, shared.DefaultFilter(), pageFilter{}.toFilter())

	f := pageFilter{Page: 3, PageSize: 50, OrderBy: "occurred_at", OrderDir: "asc"}.toFilter()
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 50, f.PageSize)
	assert.Equal(t, "occurred_at", f.OrderBy)
	assert.Equal(t, "asc", f.OrderDir)
}
