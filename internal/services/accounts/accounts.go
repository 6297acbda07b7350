// Package accounts — хранилище учётных записей уровня бизнес-логики.
//
// Service проверяет входные данные, хеширует пароль, присваивает идентификатор
// и передаёт запись в Repository, который атомарно проверяет уникальность.
// После успешной записи публикуется событие, ошибки публикации только логируются.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/identity-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/identity-service/internal/lib/sl"
	"github.com/magabrotheeeer/identity-service/internal/models"
	"github.com/magabrotheeeer/identity-service/internal/validation"
)

// Repository — хранилище учётных записей.
type Repository interface {
	InsertLimited(ctx context.Context, acc models.Account, limit int) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateProfile(ctx context.Context, id string, p models.Profile, at time.Time) (*models.Account, error)
	Count(ctx context.Context) (int, error)
}

// Hasher хеширует пароли.
type Hasher interface {
	Hash(password string) (string, error)
}

// Cache кеширует внешнее представление учётных записей.
// SetIfVersion не сохраняет значение, если после Version ключ был инвалидирован.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Version(ctx context.Context, key string) (int64, error)
	SetIfVersion(ctx context.Context, key string, version int64, value any, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

// Publisher публикует события учётных записей.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Service управляет учётными записями.
type Service struct {
	log       *slog.Logger
	repo      Repository
	hasher    Hasher
	cache     Cache
	cacheTTL  time.Duration
	publisher Publisher
	limit     int
	now       func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithCache включает кеширование представлений учётных записей.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithPublisher включает публикацию событий.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLimit ограничивает число учётных записей. 0 снимает ограничение.
func WithLimit(limit int) Option {
	return func(s *Service) { s.limit = limit }
}

// New создаёт Service.
func New(log *slog.Logger, repo Repository, hasher Hasher, opts ...Option) *Service {
	s := &Service{
		log:    log,
		repo:   repo,
		hasher: hasher,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create создаёт учётную запись и возвращает её.
func (s *Service) Create(ctx context.Context, in models.CreateAccountInput) (*models.Account, error) {
	const op = "accounts.Create"

	if err := validation.ValidateCreate(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	birthdate, err := validation.ParseBirthdate(in.Birthdate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Быстрый отказ до хеширования; окончательно лимит проверяет InsertLimited.
	ok, err := s.CanRegister(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrRegistrationClosed)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fullName := strings.TrimSpace(in.FullName)
	acc := models.Account{
		ID:             uuid.NewString(),
		Username:       in.Username,
		Email:          in.Email,
		CredentialHash: hash,
		FullName:       fullName,
		DisplayName:    models.DisplayName(fullName),
		Birthdate:      birthdate,
		CountryAlpha2:  in.Country,
		LanguageCode:   models.DefaultLanguageCode,
		CreatedAt:      s.now().UTC(),
	}
	if err = s.repo.InsertLimited(ctx, acc, s.limit); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, rabbitmq.RoutingAccountCreated, &acc)
	return &acc, nil
}

// FindByCredentialIdentifier ищет учётную запись сначала по имени пользователя, затем по email.
// Сравнение регистрозависимое.
func (s *Service) FindByCredentialIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	const op = "accounts.FindByCredentialIdentifier"
	if identifier == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
	}

	acc, err := s.repo.GetByUsername(ctx, identifier)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, models.ErrAccountNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	acc, err = s.repo.GetByEmail(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// Get возвращает учётную запись по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (*models.Account, error) {
	const op = "accounts.Get"
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// Summary возвращает внешнее представление учётной записи, читая кеш, если он включён.
// Запись, прочитанная до параллельного UpdateProfile, в кеш не попадает.
func (s *Service) Summary(ctx context.Context, id string) (models.AccountSummary, error) {
	const op = "accounts.Summary"
	log := s.log.With(sl.Op(op))

	var (
		version   int64
		fillCache = s.cache != nil
	)
	if s.cache != nil {
		var cached models.AccountSummary
		found, err := s.cache.Get(ctx, cacheKey(id), &cached)
		if err != nil {
			log.Warn("failed to read account from cache", sl.Err(err))
		}
		if found {
			return cached, nil
		}
		if version, err = s.cache.Version(ctx, cacheKey(id)); err != nil {
			log.Warn("failed to read cache version", sl.Err(err))
			fillCache = false
		}
	}

	acc, err := s.Get(ctx, id)
	if err != nil {
		return models.AccountSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	summary := acc.Summary()

	if fillCache {
		stored, err := s.cache.SetIfVersion(ctx, cacheKey(id), version, summary, s.cacheTTL)
		if err != nil {
			log.Warn("failed to write account to cache", sl.Err(err))
		} else if !stored {
			log.Debug("account changed while loading, cache not filled")
		}
	}
	return summary, nil
}

// UpdateProfile атомарно заменяет профиль учётной записи.
// Данные профиля должны быть проверены вызывающей стороной.
func (s *Service) UpdateProfile(ctx context.Context, id string, p models.Profile) (*models.Account, error) {
	const op = "accounts.UpdateProfile"

	acc, err := s.repo.UpdateProfile(ctx, id, p, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
			s.log.Warn("failed to invalidate cached account", sl.Op(op), sl.Err(err))
		}
	}
	s.publish(ctx, rabbitmq.RoutingProfileUpdated, acc)
	return acc, nil
}

// Count возвращает количество учётных записей.
func (s *Service) Count(ctx context.Context) (int, error) {
	const op = "accounts.Count"
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// CanRegister сообщает, не достигнут ли лимит учётных записей.
func (s *Service) CanRegister(ctx context.Context) (bool, error) {
	if s.limit <= 0 {
		return true, nil
	}
	n, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	return n < s.limit, nil
}

func (s *Service) publish(ctx context.Context, routingKey string, acc *models.Account) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, acc.Event(s.now().UTC())); err != nil {
		s.log.Warn("failed to publish account event",
			slog.String("routing_key", routingKey),
			slog.String("account_id", acc.ID),
			sl.Err(err),
		)
	}
}

func cacheKey(id string) string {
	return "account:" + id
}
