package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(RequestIDKey, "req-1")
	return c, rec
}

func TestSuccess(t *testing.T) {
	c, rec := newContext()
	Success(c, 0, map[string]string{"accessToken": "tok"}, "ok", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "req-1", body["request_id"])
	assert.Equal(t, "tok", body["data"].(map[string]any)["accessToken"])
	assert.NotContains(t, body, "error")
	assert.NotContains(t, body, "meta")
}

func TestError(t *testing.T) {
	c, rec := newContext()
	resp := Error[any](c, 0, "invalid payload", map[string]string{"email": "is required"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid payload", body["message"])
	assert.Equal(t, "is required", body["error"].(map[string]any)["email"])
	assert.NotContains(t, body, "data")
}
