package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
	handlers "github.com/oksasatya/partner-auth-service/internal/interface/http"
	"github.com/oksasatya/partner-auth-service/internal/interface/middleware"
)

// AdminModule exposes admin-only routes under /api/admin.
type AdminModule struct {
	Handler *handlers.AdminHandler
	Authn   middleware.Authenticator
	Errs    middleware.ErrorWriter
	RDB     *redis.Client
}

func NewAdminModule(h *handlers.AdminHandler, authn middleware.Authenticator, errs middleware.ErrorWriter, rdb *redis.Client) *AdminModule {
	return &AdminModule{Handler: h, Authn: authn, Errs: errs, RDB: rdb}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(
		middleware.Auth(m.Authn, m.Errs),
		middleware.RequireRoles(m.Errs, entity.RoleAdmin),
		middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		admin.GET("/identities/search", m.Handler.SearchIdentities)
	}
}
