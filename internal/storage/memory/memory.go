// Package memory реализует хранилище учётных записей в памяти процесса.
//
// Уникальность имени пользователя и email обеспечивается двумя индексами,
// которые проверяются и изменяются под одной блокировкой записи.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/magabrotheeeer/identity-service/internal/models"
)

// Storage хранит учётные записи в map с индексами по username и email.
type Storage struct {
	mu         sync.RWMutex
	byID       map[string]models.Account
	byUsername map[string]string
	byEmail    map[string]string
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		byID:       make(map[string]models.Account),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

// Insert атомарно проверяет уникальность и сохраняет учётную запись.
func (s *Storage) Insert(ctx context.Context, acc models.Account) error {
	return s.InsertLimited(ctx, acc, 0)
}

// InsertLimited работает как Insert, но отказывает с models.ErrRegistrationClosed,
// если записей уже limit или больше. limit <= 0 снимает ограничение.
func (s *Storage) InsertLimited(ctx context.Context, acc models.Account, limit int) error {
	const op = "storage.memory.Insert"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if limit > 0 && len(s.byID) >= limit {
		return fmt.Errorf("%s: %w", op, models.ErrRegistrationClosed)
	}
	if _, ok := s.byUsername[acc.Username]; ok {
		return fmt.Errorf("%s: %w", op, models.ErrUsernameTaken)
	}
	if _, ok := s.byEmail[acc.Email]; ok {
		return fmt.Errorf("%s: %w", op, models.ErrEmailTaken)
	}
	if _, ok := s.byID[acc.ID]; ok {
		return fmt.Errorf("%s: duplicate id %s", op, acc.ID)
	}

	s.byID[acc.ID] = acc
	s.byUsername[acc.Username] = acc.ID
	s.byEmail[acc.Email] = acc.ID
	return nil
}

// GetByID возвращает учётную запись по идентификатору.
func (s *Storage) GetByID(ctx context.Context, id string) (*models.Account, error) {
	const op = "storage.memory.GetByID"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(op, id)
}

// GetByUsername возвращает учётную запись по имени пользователя.
func (s *Storage) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	const op = "storage.memory.GetByUsername"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(op, s.byUsername[username])
}

// GetByEmail возвращает учётную запись по email.
func (s *Storage) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.memory.GetByEmail"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(op, s.byEmail[email])
}

// UpdateProfile заменяет профиль учётной записи целиком.
func (s *Storage) UpdateProfile(ctx context.Context, id string, p models.Profile, at time.Time) (*models.Account, error) {
	const op = "storage.memory.UpdateProfile"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
	}
	acc.FullName = p.FullName
	acc.DisplayName = p.DisplayName
	acc.Birthdate = p.Birthdate
	acc.CountryAlpha2 = p.CountryAlpha2
	acc.UpdatedAt = &at
	s.byID[id] = acc

	out := acc
	updated := at
	out.UpdatedAt = &updated
	return &out, nil
}

// Count возвращает количество учётных записей.
func (s *Storage) Count(ctx context.Context) (int, error) {
	const op = "storage.memory.Count"
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Ping всегда успешен.
func (s *Storage) Ping(context.Context) error {
	return nil
}

// Close ничего не освобождает.
func (s *Storage) Close() error {
	return nil
}

func (s *Storage) get(op, id string) (*models.Account, error) {
	acc, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
	}
	if acc.UpdatedAt != nil {
		at := *acc.UpdatedAt
		acc.UpdatedAt = &at
	}
	return &acc, nil
}
