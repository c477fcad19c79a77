package router

import (
	"github.com/oksasatya/partner-auth-service/internal/container"
	handlers "github.com/oksasatya/partner-auth-service/internal/interface/http"
	"github.com/oksasatya/partner-auth-service/internal/router/modules"
)

// InitModules builds the handlers from c and registers every module.
// This function should be called once during application startup.
func InitModules(r *Registry, c *container.Container) {
	authHandler := handlers.NewAuthHandler(c.Session, c.Cookies, c.Errors, c.Logger)
	authHandler.Metrics = c.Metrics
	adminHandler := handlers.NewAdminHandler(c.Session, c.Errors)
	healthHandler := handlers.NewHealthHandler(c.Store, c.Logger)

	r.Add(modules.NewAuthModule(authHandler, c.Session, c.Errors, c.Redis))
	r.Add(modules.NewAdminModule(adminHandler, c.Session, c.Errors, c.Redis))
	r.AddRoot(modules.NewHealthModule(healthHandler, c.Redis))
	if c.Metrics != nil {
		r.AddRoot(modules.NewMetricsModule(c.Metrics, c.Errors))
	}
}
