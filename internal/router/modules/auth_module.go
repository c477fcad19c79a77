package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/partner-auth-service/internal/interface/http"
	"github.com/oksasatya/partner-auth-service/internal/interface/middleware"
)

// AuthModule wires the session endpoints.
// Public: POST /api/auth/register, /api/auth/login, /api/auth/refresh
// Protected: GET /api/auth/me, POST /api/auth/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	Authn   middleware.Authenticator
	Errs    middleware.ErrorWriter
	RDB     *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, authn middleware.Authenticator, errs middleware.ErrorWriter, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, Authn: authn, Errs: errs, RDB: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	registerLimiter := middleware.RateLimit(m.RDB, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/auth")
	auth.Use(middleware.Auth(m.Authn, m.Errs))
	auth.Use(middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/me", m.Handler.Me)
		auth.POST("/logout", m.Handler.Logout)
	}
}
