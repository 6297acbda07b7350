// Package auth проверяет учётные данные пользователя.
//
// Неизвестный идентификатор и неверный пароль дают одну и ту же ошибку
// models.ErrAuthenticationFailed; настоящая причина попадает только в лог.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/identity-service/internal/lib/sl"
	"github.com/magabrotheeeer/identity-service/internal/models"
)

// AccountFinder ищет учётную запись по имени пользователя или email.
type AccountFinder interface {
	FindByCredentialIdentifier(ctx context.Context, identifier string) (*models.Account, error)
}

// PasswordComparer сверяет пароль с хешем.
type PasswordComparer interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Service аутентифицирует пользователей.
type Service struct {
	log       *slog.Logger
	accounts  AccountFinder
	passwords PasswordComparer
	dummyHash string
}

// New создаёт Service. Для неизвестных идентификаторов пароль сверяется
// с заранее вычисленным хешем, чтобы время ответа не выдавало наличие учётной записи.
func New(log *slog.Logger, accounts AccountFinder, passwords PasswordComparer) (*Service, error) {
	const op = "auth.New"
	dummy, err := passwords.Hash("identity-service-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Service{
		log:       log,
		accounts:  accounts,
		passwords: passwords,
		dummyHash: dummy,
	}, nil
}

// Authenticate возвращает субъекта и учётную запись для пары идентификатор/пароль.
func (s *Service) Authenticate(ctx context.Context, identifier, secret string) (models.AuthenticatedSubject, *models.Account, error) {
	const op = "auth.Authenticate"
	log := s.log.With(sl.Op(op))

	if identifier == "" || secret == "" {
		log.Debug("empty credentials")
		return models.AuthenticatedSubject{}, nil, fmt.Errorf("%s: %w", op, models.ErrAuthenticationFailed)
	}

	acc, err := s.accounts.FindByCredentialIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, models.ErrAccountNotFound) {
			return models.AuthenticatedSubject{}, nil, fmt.Errorf("%s: %w", op, err)
		}
		_ = s.passwords.Compare(s.dummyHash, secret)
		log.Debug("unknown identifier", sl.Err(err))
		return models.AuthenticatedSubject{}, nil, fmt.Errorf("%s: %w", op, models.ErrAuthenticationFailed)
	}

	if err := s.passwords.Compare(acc.CredentialHash, secret); err != nil {
		log.Debug("password mismatch", slog.String("account_id", acc.ID), sl.Err(err))
		return models.AuthenticatedSubject{}, nil, fmt.Errorf("%s: %w", op, models.ErrAuthenticationFailed)
	}

	return models.AuthenticatedSubject{AccountID: acc.ID}, acc, nil
}
