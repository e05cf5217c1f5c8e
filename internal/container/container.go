// Package container builds the configured identity backend and the stores on
// top of it.
package container

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-identity-docstore/config"
	"github.com/oksasatya/go-identity-docstore/internal/application"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
	esinfra "github.com/oksasatya/go-identity-docstore/internal/infrastructure/elasticsearch"
	"github.com/oksasatya/go-identity-docstore/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-identity-docstore/internal/infrastructure/postgres"
	"github.com/oksasatya/go-identity-docstore/internal/infrastructure/rabbitmq"
	redisinfra "github.com/oksasatya/go-identity-docstore/internal/infrastructure/redis"
	"github.com/oksasatya/go-identity-docstore/internal/metrics"
	"github.com/oksasatya/go-identity-docstore/pkg/helpers"
)

// Container owns the backend clients and the stores built on them.
type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Users   *application.UserStore
	Roles   *application.RoleStore
	Metrics *prometheus.Registry // nil unless metrics are enabled

	closers []func()
}

type providers struct {
	users repository.SessionProvider[*entity.User]
	roles repository.SessionProvider[*entity.Role]
}

// New connects to the configured backend. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}
	newID, err := helpers.IDGenerator(cfg.IDStrategy, cfg.IDPrefix)
	if err != nil {
		return nil, err
	}

	p, err := c.backend(ctx, newID)
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.MetricsEnabled {
		c.Metrics = prometheus.NewRegistry()
		m := metrics.New(c.Metrics)
		p.users = metrics.Instrument(p.users, m, entity.Users.Name)
		p.roles = metrics.Instrument(p.roles, m, entity.Roles.Name)
	}

	opts := []application.Option{
		application.WithLogger(logger),
		application.WithClaimQueryLimit(cfg.ClaimQueryLimit),
	}
	if cfg.ConcurrencyCheck {
		opts = append(opts, application.WithConcurrencyCheck())
	}
	if cfg.RabbitMQURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		c.closers = append(c.closers, pub.Close)
		opts = append(opts, application.WithEventPublisher(pub))
	}

	if c.Users, err = application.NewUserStore(p.users, opts...); err != nil {
		c.Close()
		return nil, err
	}
	if c.Roles, err = application.NewRoleStore(p.roles, opts...); err != nil {
		c.Close()
		return nil, err
	}
	logger.WithFields(logrus.Fields{"backend": cfg.Backend, "id_strategy": cfg.IDStrategy}).Debug("identity stores ready")
	return c, nil
}

func (c *Container) backend(ctx context.Context, newID repository.IDGenerator) (providers, error) {
	cfg := c.Config
	switch cfg.Backend {
	case config.BackendMemory:
		return providers{
			users: memory.NewStore(entity.Users, newID),
			roles: memory.NewStore(entity.Roles, newID),
		}, nil

	case config.BackendRedis:
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return providers{}, fmt.Errorf("connect redis: %w", err)
		}
		return providers{
			users: redisinfra.NewStore(rdb, entity.Users, cfg.KeyPrefix, newID),
			roles: redisinfra.NewStore(rdb, entity.Roles, cfg.KeyPrefix, newID),
		}, nil

	case config.BackendPostgres:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return providers{}, fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		return providers{
			users: pginfra.NewDocStore(pool, entity.Users, newID),
			roles: pginfra.NewDocStore(pool, entity.Roles, newID),
		}, nil

	case config.BackendElasticsearch:
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			return providers{}, fmt.Errorf("connect elasticsearch: %w", err)
		}
		users := esinfra.NewStore(es, entity.Users, cfg.KeyPrefix, newID)
		roles := esinfra.NewStore(es, entity.Roles, cfg.KeyPrefix, newID)
		for _, ensure := range []func(context.Context) error{users.EnsureIndex, roles.EnsureIndex} {
			if err := ensure(ctx); err != nil {
				return providers{}, err
			}
		}
		return providers{users: users, roles: roles}, nil

	default:
		return providers{}, fmt.Errorf("unknown identity backend %q", cfg.Backend)
	}
}

// Close releases backend clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
