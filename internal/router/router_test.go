package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/partner-auth-service/config"
	"github.com/oksasatya/partner-auth-service/internal/container"
	"github.com/oksasatya/partner-auth-service/pkg/helpers"
	"github.com/oksasatya/partner-auth-service/pkg/validation"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	cfg := &config.Config{
		AppName:            "partner-auth-service",
		Env:                "test",
		StoreDriver:        "memory",
		JWTAccessSecret:    "access",
		JWTRefreshSecret:   "refresh",
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         7 * 24 * time.Hour,
		BcryptCost:         bcrypt.MinCost,
		MaxSessions:        10,
		RequestTimeout:     5 * time.Second,
		CORSAllowedOrigins: "http://app.test",
		ESIdentitiesIndex:  "identities",
		MetricsEnabled:     true,
	}
	require.NoError(t, cfg.Validate())

	c, err := container.New(context.Background(), cfg, helpers.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Queue)
	assert.Nil(t, c.ES)

	return NewEngine(c)
}

func serve(r http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == helpers.RefreshCookieName {
			return ck.Name + "=" + ck.Value
		}
	}
	t.Fatal("refresh cookie not set")
	return ""
}

func TestRoutes_SessionLifecycle(t *testing.T) {
	r := newTestEngine(t)

	rec := serve(r, http.MethodPost, "/api/auth/register", `{"email":"alice@x.com","password":"secret1","name":"Alice"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	r1 := refreshCookie(t, rec)

	var body struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	bearer := http.Header{"Authorization": {"Bearer " + body.Data.AccessToken}}

	rec = serve(r, http.MethodGet, "/api/auth/me", "", bearer)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(r, http.MethodPost, "/api/auth/refresh", "", http.Header{"Cookie": {r1}})
	require.Equal(t, http.StatusOK, rec.Code)
	r2 := refreshCookie(t, rec)

	rec = serve(r, http.MethodPost, "/api/auth/refresh", "", http.Header{"Cookie": {r1}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, http.MethodGet, "/api/admin/identities/search?q=a", "", bearer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	logoutHeader := http.Header{"Authorization": bearer["Authorization"], "Cookie": {r2}}
	rec = serve(r, http.MethodPost, "/api/auth/logout", "", logoutHeader)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(r, http.MethodPost, "/api/auth/refresh", "", http.Header{"Cookie": {r2}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_Healthz(t *testing.T) {
	r := newTestEngine(t)
	rec := serve(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRoutes_CORSPreflight(t *testing.T) {
	r := newTestEngine(t)
	rec := serve(r, http.MethodOptions, "/api/auth/refresh", "", http.Header{
		"Origin":                        {"http://app.test"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRoutes_MetricsPrivateOnly(t *testing.T) {
	r := newTestEngine(t)

	rec := serve(r, http.MethodPost, "/api/auth/refresh", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// httptest requests come from 192.0.2.1
	rec = serve(r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// forwarding headers from an untrusted public peer change nothing
	rec = serve(r, http.MethodGet, "/metrics", "", http.Header{
		"X-Real-Ip":        {"10.0.0.5"},
		"X-Forwarded-For":  {"10.0.0.5"},
		"Cf-Connecting-Ip": {"127.0.0.1"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "10.0.0.5:41000"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `partner_auth_session_events_total{event="refresh",outcome="rejected"} 1`)
	assert.Contains(t, body, `partner_auth_http_requests_total{method="POST",route="/api/auth/refresh",status="401"} 1`)
}
