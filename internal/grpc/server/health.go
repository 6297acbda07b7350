// Package server поднимает gRPC-сервер с протоколом grpc.health.v1.
//
// Состояние сервиса идентификации определяется доступностью хранилища
// учётных записей и периодически обновляется в фоне.
package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/identity-service/internal/lib/sl"
)

// ServiceName — имя сервиса в ответах grpc.health.v1.
const ServiceName = "identity.Identity"

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health обновляет статус gRPC health-сервера по результатам Ping.
type Health struct {
	log    *slog.Logger
	store  Pinger
	health *health.Server
}

// NewHealth создаёт Health. До первой проверки статус NOT_SERVING.
func NewHealth(log *slog.Logger, store Pinger) *Health {
	h := &Health{
		log:    log,
		store:  store,
		health: health.NewServer(),
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Register регистрирует health-сервис на gRPC-сервере.
func (h *Health) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
}

// Check проверяет хранилище и обновляет статус.
func (h *Health) Check(ctx context.Context) {
	const op = "grpc.Health.Check"
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("storage is unavailable", slog.String("op", op), sl.Err(err))
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

// Watch вызывает Check каждые interval до отмены ctx.
func (h *Health) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Shutdown переводит все сервисы в NOT_SERVING перед остановкой.
func (h *Health) Shutdown() {
	h.health.Shutdown()
}

func (h *Health) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}
