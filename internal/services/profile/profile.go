// Package profile обновляет профиль учётной записи.
//
// Обновление либо применяется целиком, либо не применяется вовсе:
// любые нарушения обнаруживаются до обращения к хранилищу.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/identity-service/internal/lib/sl"
	"github.com/magabrotheeeer/identity-service/internal/models"
	"github.com/magabrotheeeer/identity-service/internal/validation"
)

// Store атомарно заменяет профиль учётной записи.
type Store interface {
	UpdateProfile(ctx context.Context, id string, p models.Profile) (*models.Account, error)
}

// Service управляет профилями.
type Service struct {
	log   *slog.Logger
	store Store
}

// New создаёт Service.
func New(log *slog.Logger, store Store) *Service {
	return &Service{log: log, store: store}
}

// UpdateProfile проверяет и применяет новый профиль.
// Ошибки проверки оборачиваются в models.ErrValidationFailed вместе с ошибкой поля.
func (s *Service) UpdateProfile(ctx context.Context, id string, in models.ProfileInput) (*models.Account, error) {
	const op = "profile.UpdateProfile"

	if err := validation.ValidateProfileUpdate(in); err != nil {
		s.log.Debug("profile rejected", sl.Op(op), slog.String("account_id", id), sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrValidationFailed, err)
	}
	birthdate, err := validation.ParseBirthdate(in.Birthdate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrValidationFailed, err)
	}

	fullName := strings.TrimSpace(in.FullName)
	acc, err := s.store.UpdateProfile(ctx, id, models.Profile{
		FullName:      fullName,
		DisplayName:   models.DisplayName(fullName),
		Birthdate:     birthdate,
		CountryAlpha2: in.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}
