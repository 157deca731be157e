package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/resys/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	mockDB.ExpectationsWereMet(t)
}

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)

	for _, table := range []string{"stock_locations", "stock_items", "stock_movements", "orders", "inventory_units", "shipments", "outbox_entries"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestTestContext(t *testing.T) {
	tc := NewTestContext(t)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)

	tc.SetRequestID("req-123")
	val, exists := tc.Context.Get("X-Request-ID")
	assert.True(t, exists)
	assert.Equal(t, "req-123", val)

	tc.SetHeader("X-Store-ID", "store-1")
	assert.Equal(t, "store-1", tc.Context.Request.Header.Get("X-Store-ID"))

	tc.Context.Status(http.StatusAccepted)
	assert.Equal(t, http.StatusAccepted, tc.ResponseCode())
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("a"), NewTestUUID("a"))
	assert.NotEqual(t, NewTestUUID("a"), NewTestUUID("b"))
	assert.Equal(t, NewTestUUID("test-store"), TestStoreID())
}

func TestContextWithTimeout(t *testing.T) {
	ctx := ContextWithTimeout(t, 10*time.Millisecond)
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should time out")
	}
}

func TestAssertEventually(t *testing.T) {
	done := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(done)
	}()

	AssertEventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestAssertNever(t *testing.T) {
	AssertNever(t, func() bool { return false }, 30*time.Millisecond, 10*time.Millisecond)
}

func TestRunHTTPTestCases(t *testing.T) {
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"number": "R123"}})
	}

	RunHTTPTestCases(t, handler, []HTTPTestCase{
		{Name: "status only", ExpectedStatus: http.StatusOK},
		{
			Name:           "body keys",
			Method:         http.MethodPost,
			Body:           map[string]any{"quantity": 2},
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   map[string]any{"success": true},
			Validate: func(t *testing.T, tc *TestContext) {
				AssertSuccessResponse(t, tc)
			},
		},
	})
}

func TestJSONResponseAs(t *testing.T) {
	type response struct {
		Key string `json:"key"`
	}

	tc := NewTestContext(t)
	tc.Context.JSON(http.StatusOK, gin.H{"key": "value"})

	assert.Equal(t, "value", JSONResponse(t, tc)["key"])
	assert.Equal(t, "value", JSONResponseAs[response](t, tc).Key)
}

func TestAssertErrorResponse(t *testing.T) {
	tc := NewTestContext(t)
	tc.Context.JSON(http.StatusConflict, gin.H{
		"success": false,
		"error":   gin.H{"code": "INSUFFICIENT_PAYMENT", "message": "not covered"},
	})

	AssertErrorResponse(t, tc, "INSUFFICIENT_PAYMENT")
}

func TestToJSONReader(t *testing.T) {
	require.NotNil(t, ToJSONReader(t, map[string]string{"key": "value"}))
}

func TestAPIClient(t *testing.T) {
	engine := gin.New()
	engine.POST("/api/v1/echo", func(c *gin.Context) {
		var body map[string]string
		_ = c.ShouldBindJSON(&body)
		body["store"] = c.GetHeader("X-Store-ID")
		c.JSON(http.StatusOK, dto.NewSuccessResponse(body))
	})
	engine.GET("/api/v1/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("ERR_MISSING", "gone", "req-1"))
	})
	client := NewAPIClient(t, engine, "/api/v1")

	t.Run("expect decodes the data", func(t *testing.T) {
		w := client.Do(http.MethodPost, "/echo", gin.H{"name": "ada"}, map[string]string{"X-Store-ID": "store-1"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]string{"name": "ada", "store": "store-1"}, Decode[map[string]string](t, w).Data)

		got := Expect[map[string]string](client, http.StatusOK, http.MethodPost, "/echo", gin.H{"name": "bob"})
		assert.Equal(t, "bob", got["name"])
	})

	t.Run("error cases", func(t *testing.T) {
		info := AssertErrorResponse(t, client.Do(http.MethodGet, "/missing", nil), http.StatusNotFound, "ERR_MISSING")
		assert.Equal(t, "gone", info.Message)

		RunHTTPTestCases(NewAPIClient(t, engine, "/api/v1"), []HTTPTestCase{
			{Name: "default method is GET", Path: "/missing", ExpectedStatus: http.StatusNotFound, ExpectedCode: "ERR_MISSING"},
		})
	})
}
