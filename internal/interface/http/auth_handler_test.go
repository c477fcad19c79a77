package handlers

import (
	"bytes"
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

	"github.com/oksasatya/partner-auth-service/internal/application"
	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
	"github.com/oksasatya/partner-auth-service/internal/infrastructure/memory"
	"github.com/oksasatya/partner-auth-service/internal/interface/middleware"
	"github.com/oksasatya/partner-auth-service/pkg/helpers"
	"github.com/oksasatya/partner-auth-service/pkg/validation"
)

type testServer struct {
	engine *gin.Engine
	repo   *memory.IdentityRepository
	svc    *application.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	repo := memory.NewIdentityRepository()
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	svc := application.NewService(repo, jwt, helpers.NewBcryptHasher(bcrypt.MinCost), helpers.NewNopLogger(), 10)
	errs := middleware.ErrorWriter{Debug: true}

	auth := NewAuthHandler(svc, helpers.NewCookie("", false), errs, nil)
	admin := NewAdminHandler(svc, errs)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	api := r.Group("/api")
	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", auth.Login)
	api.POST("/auth/refresh", auth.Refresh)
	protected := api.Group("/")
	protected.Use(middleware.Auth(svc, errs))
	protected.GET("/auth/me", auth.Me)
	protected.POST("/auth/logout", auth.Logout)
	protected.GET("/admin/identities/search", middleware.RequireRoles(errs, entity.RoleAdmin), admin.SearchIdentities)

	return &testServer{engine: r, repo: repo, svc: svc}
}

type result struct {
	code    int
	body    map[string]any
	refresh *http.Cookie
}

func (s *testServer) call(t *testing.T, method, path string, payload any, bearer string, refresh *http.Cookie) result {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if refresh != nil {
		req.AddCookie(&http.Cookie{Name: refresh.Name, Value: refresh.Value})
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	out := result{code: rec.Code}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.body), rec.Body.String())
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == helpers.RefreshCookieName {
			out.refresh = ck
		}
	}
	return out
}

func accessToken(t *testing.T, r result) string {
	t.Helper()
	data, ok := r.body["data"].(map[string]any)
	require.True(t, ok, "data missing: %v", r.body)
	tok, _ := data["accessToken"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func registerAlice(t *testing.T, s *testServer) result {
	t.Helper()
	res := s.call(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "alice@x.com",
		"password": "secret1",
		"name":     "Alice",
	}, "", nil)
	require.Equal(t, http.StatusCreated, res.code, res.body)
	return res
}

func TestRegister_SetsCookieAndReturnsIdentity(t *testing.T) {
	s := newTestServer(t)
	res := registerAlice(t, s)

	require.NotNil(t, res.refresh)
	assert.True(t, res.refresh.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, res.refresh.SameSite)
	assert.Equal(t, helpers.RefreshCookiePath, res.refresh.Path)
	assert.Greater(t, res.refresh.MaxAge, 0)

	data := res.body["data"].(map[string]any)
	user := data["user"].(map[string]any)
	assert.Equal(t, "alice@x.com", user["email"])
	assert.Equal(t, "partner", user["role"])
	assert.NotContains(t, user, "refreshTokens")
	assert.NotContains(t, user, "passwordDigest")
	assert.NotContains(t, data, "refreshToken", "refresh token must only travel in the cookie")
	accessToken(t, res)
}

func TestRegister_Failures(t *testing.T) {
	s := newTestServer(t)
	registerAlice(t, s)

	tests := []struct {
		name    string
		payload map[string]any
		status  int
	}{
		{name: "duplicate", payload: map[string]any{"email": "ALICE@x.com", "password": "secret1", "name": "A"}, status: http.StatusConflict},
		{name: "bad email", payload: map[string]any{"email": "nope", "password": "secret1", "name": "A"}, status: http.StatusBadRequest},
		{name: "short password", payload: map[string]any{"email": "bob@x.com", "password": "123", "name": "B"}, status: http.StatusBadRequest},
		{name: "missing name", payload: map[string]any{"email": "bob@x.com", "password": "secret1"}, status: http.StatusBadRequest},
		{name: "blank name", payload: map[string]any{"email": "bob@x.com", "password": "secret1", "name": "   "}, status: http.StatusBadRequest},
		{name: "password over 72 bytes", payload: map[string]any{"email": "bob@x.com", "password": strings.Repeat("p", 73), "name": "B"}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.call(t, http.MethodPost, "/api/auth/register", tt.payload, "", nil)
			assert.Equal(t, tt.status, res.code)
			assert.Equal(t, false, res.body["success"])
			assert.Nil(t, res.refresh)
		})
	}
}

func TestRefreshRotationScenario(t *testing.T) {
	s := newTestServer(t)
	reg := registerAlice(t, s)
	a1, r1 := accessToken(t, reg), reg.refresh

	first := s.call(t, http.MethodPost, "/api/auth/refresh", nil, "", r1)
	require.Equal(t, http.StatusOK, first.code, first.body)
	a2, r2 := accessToken(t, first), first.refresh
	require.NotNil(t, r2)
	assert.NotEqual(t, r1.Value, r2.Value)
	assert.NotEqual(t, a1, a2)

	replay := s.call(t, http.MethodPost, "/api/auth/refresh", nil, "", r1)
	assert.Equal(t, http.StatusUnauthorized, replay.code)
	assert.Equal(t, "invalid refresh token", replay.body["message"])

	again := s.call(t, http.MethodPost, "/api/auth/refresh", nil, "", r2)
	assert.Equal(t, http.StatusOK, again.code)
}

func TestRefresh_MissingAndGarbageCookie(t *testing.T) {
	s := newTestServer(t)

	res := s.call(t, http.MethodPost, "/api/auth/refresh", nil, "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "missing token", res.body["message"])

	res = s.call(t, http.MethodPost, "/api/auth/refresh", nil, "", &http.Cookie{Name: helpers.RefreshCookieName, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "invalid refresh token", res.body["message"])
}

func TestLogin_IdenticalFailures(t *testing.T) {
	s := newTestServer(t)
	registerAlice(t, s)

	unknown := s.call(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "nobody@x.com", "password": "secret1"}, "", nil)
	wrong := s.call(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "alice@x.com", "password": "wrong-pass"}, "", nil)

	assert.Equal(t, http.StatusUnauthorized, unknown.code)
	assert.Equal(t, unknown.code, wrong.code)
	assert.Equal(t, unknown.body["message"], wrong.body["message"])
	assert.Equal(t, unknown.body["error"], wrong.body["error"])
}

func TestLogin_AddsSession(t *testing.T) {
	s := newTestServer(t)
	reg := registerAlice(t, s)

	login := s.call(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "alice@x.com", "password": "secret1"}, "", nil)
	require.Equal(t, http.StatusOK, login.code, login.body)
	require.NotNil(t, login.refresh)

	// both devices hold a valid refresh token
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/auth/refresh", nil, "", reg.refresh).code)
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/auth/refresh", nil, "", login.refresh).code)
}

func TestMeAndLogout(t *testing.T) {
	s := newTestServer(t)
	reg := registerAlice(t, s)
	access := accessToken(t, reg)

	me := s.call(t, http.MethodGet, "/api/auth/me", nil, access, nil)
	require.Equal(t, http.StatusOK, me.code)
	user := me.body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "alice@x.com", user["email"])

	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodGet, "/api/auth/me", nil, "", nil).code)
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodGet, "/api/auth/me", nil, "bogus", nil).code)

	out := s.call(t, http.MethodPost, "/api/auth/logout", nil, access, reg.refresh)
	require.Equal(t, http.StatusOK, out.code)
	require.NotNil(t, out.refresh)
	assert.Empty(t, out.refresh.Value)
	assert.Less(t, out.refresh.MaxAge, 0)

	// the revoked refresh token is dead, the stateless access token is not
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodPost, "/api/auth/refresh", nil, "", reg.refresh).code)
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/auth/me", nil, access, nil).code)

	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodPost, "/api/auth/logout", nil, "", nil).code)
}

func TestAdminSearch_RequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	reg := registerAlice(t, s)

	res := s.call(t, http.MethodGet, "/api/admin/identities/search?q=alice", nil, accessToken(t, reg), nil)
	assert.Equal(t, http.StatusForbidden, res.code)

	out, err := s.svc.Register(context.Background(), application.RegisterInput{
		Email: "root@x.com", Password: "secret1", Name: "Root", Role: entity.RoleAdmin,
	})
	require.NoError(t, err)

	res = s.call(t, http.MethodGet, "/api/admin/identities/search?q=alice", nil, out.Tokens.AccessToken, nil)
	assert.Equal(t, http.StatusOK, res.code)
	items := res.body["data"].(map[string]any)["items"].([]any)
	assert.Empty(t, items, "no indexer configured")
}
