package identityservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"google.golang.org/grpc"

	"github.com/magabrotheeeer/identity-service/internal/config"
	"github.com/magabrotheeeer/identity-service/internal/grpc/server"
	"github.com/magabrotheeeer/identity-service/internal/http/middlewarectx"
)

const healthInterval = 10 * time.Second

type App struct {
	core       *Core
	server     *http.Server
	grpcServer *grpc.Server
	grpcAddr   string
	health     *server.Health
	logger     *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	core, err := NewCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	limiter := middlewarectx.NewIPLimiter(cfg.RPS, cfg.Burst)
	RegisterRoutes(router, logger, core.Facade, core.Tokens, core.Tokens, core.Repo, limiter, core.Registry)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	grpcServer := grpc.NewServer()
	h := server.NewHealth(logger, core.Repo)
	h.Register(grpcServer)

	return &App{
		core:       core,
		server:     srv,
		grpcServer: grpcServer,
		grpcAddr:   cfg.GRPCAddress,
		health:     h,
		logger:     logger,
	}, nil
}

// Handler возвращает HTTP-маршрутизатор приложения.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", a.grpcAddr)
	if err != nil {
		_ = a.core.Close()
		return fmt.Errorf("identityservice.Run: %w", err)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go a.health.Watch(watchCtx, healthInterval)

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()
	go func() {
		a.logger.Info("gRPC health server listening on", slog.String("address", lis.Addr().String()))
		errCh <- a.grpcServer.Serve(lis)
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	a.logger.Info("shutting down servers gracefully")
	a.health.Shutdown()
	a.grpcServer.GracefulStop()
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	if err := a.core.Close(); err != nil {
		a.logger.Error("failed to close resources", slog.Any("err", err))
	}
	return runErr
}
