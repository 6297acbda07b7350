// Package storage выбирает реализацию хранилища учётных записей по конфигурации.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/identity-service/internal/config"
	"github.com/magabrotheeeer/identity-service/internal/models"
	"github.com/magabrotheeeer/identity-service/internal/storage/memory"
	"github.com/magabrotheeeer/identity-service/internal/storage/postgresql"
	"github.com/magabrotheeeer/identity-service/internal/storage/sqlite"
)

// Repository — хранилище учётных записей с двумя уникальными индексами.
// Insert, InsertLimited и UpdateProfile выполняют проверку и запись одним атомарным шагом.
type Repository interface {
	Insert(ctx context.Context, acc models.Account) error
	InsertLimited(ctx context.Context, acc models.Account, limit int) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateProfile(ctx context.Context, id string, p models.Profile, at time.Time) (*models.Account, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open открывает хранилище, выбранное в cfg.Driver.
func Open(ctx context.Context, cfg config.Storage) (Repository, error) {
	const op = "storage.Open"

	switch cfg.Driver {
	case config.DriverMemory, "":
		return memory.New(), nil
	case config.DriverPostgres:
		s, err := postgresql.New(ctx, cfg.DSN, cfg.MaxConnections)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, cfg.Driver)
	}
}
