package identityservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/magabrotheeeer/identity-service/internal/cache"
	"github.com/magabrotheeeer/identity-service/internal/config"
	"github.com/magabrotheeeer/identity-service/internal/lib/jwt"
	"github.com/magabrotheeeer/identity-service/internal/lib/metrics"
	"github.com/magabrotheeeer/identity-service/internal/lib/password"
	"github.com/magabrotheeeer/identity-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/identity-service/internal/services/accounts"
	"github.com/magabrotheeeer/identity-service/internal/services/auth"
	"github.com/magabrotheeeer/identity-service/internal/services/identity"
	"github.com/magabrotheeeer/identity-service/internal/services/profile"
	"github.com/magabrotheeeer/identity-service/internal/storage"
)

// Core — собранные зависимости сервиса, общие для сервера и CLI.
type Core struct {
	Repo     storage.Repository
	Facade   *identity.Facade
	Tokens   *jwt.HMACMaker
	Registry *prometheus.Registry

	log     *slog.Logger
	closers []func() error
}

// NewCore открывает хранилище и, если они настроены, кеш Redis и публикацию в RabbitMQ.
func NewCore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Core, error) {
	const op = "identityservice.NewCore"

	repo, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	core := &Core{
		Repo:     repo,
		Registry: prometheus.NewRegistry(),
		log:      logger,
		closers:  []func() error{repo.Close},
	}
	logger.Info("storage opened", slog.String("driver", cfg.Driver))

	opts := []accounts.Option{accounts.WithLimit(cfg.Limit)}

	if cfg.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			_ = core.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		core.closers = append(core.closers, c.Close)
		opts = append(opts, accounts.WithCache(c, cfg.CacheTTL))
		logger.Info("redis cache enabled", slog.String("address", cfg.AddressRedis))
	}

	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.Retries, cfg.RetryDelay)
		if err != nil {
			_ = core.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		core.closers = append(core.closers, conn.Close)
		ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.IdentityQueues())
		if err != nil {
			_ = core.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		core.closers = append(core.closers, ch.Close)
		opts = append(opts, accounts.WithPublisher(rabbitmq.NewPublisher(ch, cfg.Exchange)))
		logger.Info("event publishing enabled", slog.String("exchange", cfg.Exchange))
	}

	hasher := password.NewHasher(cfg.BcryptCost)
	accountService := accounts.New(logger, repo, hasher, opts...)

	authService, err := auth.New(logger, accountService, hasher)
	if err != nil {
		_ = core.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	core.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewRecorder(core.Registry)

	core.Facade = identity.New(logger, accountService, authService, profile.New(logger, accountService), rec)
	core.Tokens = jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	return core, nil
}

// Close освобождает ресурсы в обратном порядке открытия.
func (c *Core) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
