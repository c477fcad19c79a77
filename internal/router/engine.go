package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/partner-auth-service/internal/container"
	"github.com/oksasatya/partner-auth-service/internal/interface/middleware"
)

// NewEngine builds the gin engine with global middleware and every module registered.
func NewEngine(c *container.Container) *gin.Engine {
	cfg := c.Config

	trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxyList())
	if err != nil {
		c.Logger.WithError(err).Warn("ignoring trusted proxies; forwarding headers will not be read")
		trusted = nil
	}

	r := gin.New()
	// keep gin's own ClientIP (access log) consistent with RealIP
	if len(trusted) == 0 {
		_ = r.SetTrustedProxies(nil)
	} else if err := r.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP(trusted))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	// CORS: credentials are required for the refresh cookie
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) > 0 {
		r.Use(cors.New(corsCfg))
	}
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}
	if c.Metrics != nil {
		r.Use(c.Metrics.Middleware())
	}

	reg := NewRegistry(r)
	// coarse per-IP budget over all of /api; routes add tighter ones
	reg.Use(middleware.RateLimit(c.Redis, 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()))
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}
