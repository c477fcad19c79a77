package container

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/partner-auth-service/config"
	"github.com/oksasatya/partner-auth-service/internal/application"
	"github.com/oksasatya/partner-auth-service/internal/domain/repository"
	"github.com/oksasatya/partner-auth-service/internal/infrastructure/memory"
	"github.com/oksasatya/partner-auth-service/internal/infrastructure/messaging"
	pginfra "github.com/oksasatya/partner-auth-service/internal/infrastructure/postgres"
	"github.com/oksasatya/partner-auth-service/internal/infrastructure/search"
	"github.com/oksasatya/partner-auth-service/internal/interface/middleware"
	"github.com/oksasatya/partner-auth-service/pkg/helpers"
	"github.com/oksasatya/partner-auth-service/pkg/metrics"
)

// Container holds the constructed components shared by the router modules.
// It is built once in main and passed explicitly; nothing here is global.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	Store   repository.IdentityRepository
	Redis   *redis.Client
	Queue   *helpers.RabbitQueue
	ES      *elasticsearch.Client
	JWT     *helpers.JWTManager
	Hasher  *helpers.BcryptHasher
	Session *application.Service
	Cookies *helpers.Manager
	Errors  middleware.ErrorWriter
	Metrics *metrics.Metrics

	closers []func()
}

// New wires the store, token codec, hasher and optional Redis, RabbitMQ and
// Elasticsearch integrations according to cfg.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	c := &Container{Config: cfg, Logger: logger}

	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory identity store; data is lost on restart")
		c.Store = memory.NewIdentityRepository()
	default:
		dsn := cfg.PostgresDSN()
		if err := pginfra.Migrate(dsn, cfg.MigrationsDir, logger); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := pginfra.NewPool(ctx, dsn, pginfra.PoolOptions{
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		c.Store = pginfra.NewIdentityRepository(pool)
	}

	if rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); rdb != nil {
		c.Redis = rdb
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	c.JWT = helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	c.Hasher = helpers.NewBcryptHasher(cfg.BcryptCost)
	c.Session = application.NewService(c.Store, c.JWT, c.Hasher, logger, cfg.MaxSessions)
	c.Cookies = helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)
	c.Errors = middleware.ErrorWriter{Debug: !cfg.IsProduction(), Logger: logger}
	if cfg.MetricsEnabled {
		c.Metrics = metrics.New("partner_auth")
	}

	if cfg.RabbitMQURL != "" {
		q, err := helpers.DialRabbitQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			// notifications are best effort; run without them
			logger.WithError(err).Warn("rabbitmq unavailable; auth notifications disabled")
		} else {
			c.Queue = q
			c.closers = append(c.closers, q.Close)
			c.Session.Notifier = messaging.NewEmailNotifier(q, cfg.AppName)
		}
	}

	es, err := helpers.NewESClient(helpers.ESOptions{
		Addrs:    cfg.ESAddrs(),
		Username: cfg.ElasticsearchUser,
		Password: cfg.ElasticsearchPass,
	})
	if err != nil {
		logger.WithError(err).Warn("elasticsearch client init failed; identity search disabled")
	} else if es != nil {
		c.ES = es
		idx := search.NewIdentityIndex(es, cfg.ESIdentitiesIndex)
		if err := idx.EnsureIndex(ctx); err != nil {
			// documents still index with dynamic mapping
			logger.WithError(err).Warn("identity index mapping not applied")
		}
		c.Session.Indexer = idx
	}

	return c, nil
}

// Close releases connections in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
