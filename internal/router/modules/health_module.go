package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/partner-auth-service/internal/interface/http"
	"github.com/oksasatya/partner-auth-service/internal/interface/middleware"
)

type HealthModule struct {
	Handler *handlers.HealthHandler
	RDB     *redis.Client
}

func NewHealthModule(h *handlers.HealthHandler, rdb *redis.Client) *HealthModule {
	return &HealthModule{Handler: h, RDB: rdb}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	// liveness checks from inside the cluster are never limited
	rl := middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/healthz", rl, m.Handler.Healthz)
}
