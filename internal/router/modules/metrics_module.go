package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/partner-auth-service/internal/application"
	"github.com/oksasatya/partner-auth-service/internal/interface/middleware"
	"github.com/oksasatya/partner-auth-service/pkg/metrics"
)

type MetricsModule struct {
	Metrics *metrics.Metrics
	Errs    middleware.ErrorWriter
}

func NewMetricsModule(m *metrics.Metrics, errs middleware.ErrorWriter) *MetricsModule {
	return &MetricsModule{Metrics: m, Errs: errs}
}

func (m *MetricsModule) Register(rg *gin.RouterGroup) {
	rg.GET("/metrics", func(c *gin.Context) {
		// scrapers reach the pod directly from inside the cluster
		if !middleware.PrivatePeer(c) {
			m.Errs.Abort(c, application.ErrForbidden)
			return
		}
		c.Next()
	}, gin.WrapH(m.Metrics.Handler()))
}
