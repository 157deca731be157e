package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/resys/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is the response body every API endpoint answers with
type Envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

// APIClient sends requests through a gin engine under a path prefix
type APIClient struct {
	T      *testing.T
	Engine *gin.Engine
	Prefix string
}

// NewAPIClient creates a client for routes mounted under prefix, e.g. "/api/v1"
func NewAPIClient(t *testing.T, engine *gin.Engine, prefix string) *APIClient {
	return &APIClient{T: t, Engine: engine, Prefix: prefix}
}

// Do sends a request with an optional JSON body
func (c *APIClient) Do(method, path string, body any, headers ...map[string]string) *httptest.ResponseRecorder {
	c.T.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = ToJSONReader(c.T, body)
	}
	req := httptest.NewRequest(method, c.Prefix+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for k, v := range h {
			req.Header.Set(k, v)
		}
	}

	w := httptest.NewRecorder()
	c.Engine.ServeHTTP(w, req)
	return w
}

// Decode parses a response envelope
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) Envelope[T] {
	t.Helper()

	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// Expect sends a request, requires the status and returns the decoded data
func Expect[T any](c *APIClient, status int, method, path string, body any) T {
	c.T.Helper()

	w := c.Do(method, path, body)
	require.Equal(c.T, status, w.Code, w.Body.String())
	env := Decode[T](c.T, w)
	require.True(c.T, env.Success, w.Body.String())
	return env.Data
}

// AssertErrorResponse checks a failed request's status, error code and request ID
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, status int, code string) *dto.ErrorInfo {
	t.Helper()

	assert.Equal(t, status, w.Code, w.Body.String())
	env := Decode[any](t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error, w.Body.String())
	assert.Equal(t, code, env.Error.Code)
	assert.NotEmpty(t, env.Error.RequestID)
	return env.Error
}

// HTTPTestCase is one request and the error it must produce
type HTTPTestCase struct {
	Name           string
	Method         string
	Path           string
	Body           any
	ExpectedStatus int
	ExpectedCode   string
}

// RunHTTPTestCases runs each case as a subtest against the client
func RunHTTPTestCases(c *APIClient, cases []HTTPTestCase) {
	c.T.Helper()

	for _, tc := range cases {
		c.T.Run(tc.Name, func(t *testing.T) {
			method := tc.Method
			if method == "" {
				method = http.MethodGet
			}
			sub := &APIClient{T: t, Engine: c.Engine, Prefix: c.Prefix}
			AssertErrorResponse(t, sub.Do(method, tc.Path, tc.Body), tc.ExpectedStatus, tc.ExpectedCode)
		})
	}
}

// ToJSONReader converts a value to a JSON io.Reader
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
