// Package identity — фасад команд и запросов сервиса идентификации.
//
// Фасад вызывает хранилище учётных записей, аутентификатор и менеджер профилей,
// а их результаты превращает в ответы с фиксированными сообщениями.
// Внешнее сообщение об ошибке одно на операцию; подробный тип ошибки
// доступен через errors.Is, models.KindOf и попадает в лог и метрики.
package identity

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/identity-service/internal/lib/metrics"
	"github.com/magabrotheeeer/identity-service/internal/lib/sl"
	"github.com/magabrotheeeer/identity-service/internal/models"
)

// Сообщения операций.
const (
	MsgUserCreated          = "User created successfully"
	MsgCreateFailed         = "Failed to create user"
	MsgUserAuthenticated    = "User authenticated successfully"
	MsgAuthenticationFailed = "Failed to authenticate user"
	MsgProfileUpdated       = "Profile updated successfully"
	MsgUpdateFailed         = "Failed to update profile"
	MsgUserFound            = "User found"
	MsgGetFailed            = "Failed to get user"
)

// Имена операций для логов и метрик.
const (
	OpCreateAccount = "create_account"
	OpAuthenticate  = "authenticate"
	OpUpdateProfile = "update_profile"
	OpGetAccount    = "get_account"
)

// AccountStore создаёт и читает учётные записи.
type AccountStore interface {
	Create(ctx context.Context, in models.CreateAccountInput) (*models.Account, error)
	Summary(ctx context.Context, id string) (models.AccountSummary, error)
	CanRegister(ctx context.Context) (bool, error)
}

// Authenticator проверяет учётные данные.
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, secret string) (models.AuthenticatedSubject, *models.Account, error)
}

// ProfileManager обновляет профили.
type ProfileManager interface {
	UpdateProfile(ctx context.Context, id string, in models.ProfileInput) (*models.Account, error)
}

// Failure — ошибка операции фасада. Error возвращает внешнее сообщение,
// Unwrap — исходную доменную ошибку.
type Failure struct {
	Message string
	Kind    models.Kind
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// CreateResult — результат создания учётной записи.
type CreateResult struct {
	AccountID string `json:"id"`
	Message   string `json:"message"`
}

// AuthResult — результат аутентификации.
type AuthResult struct {
	Subject models.AuthenticatedSubject `json:"subject"`
	Account models.AccountSummary       `json:"account"`
	Message string                      `json:"message"`
}

// UpdateResult — результат обновления профиля.
type UpdateResult struct {
	Account models.AccountSummary `json:"account"`
	Message string                `json:"message"`
}

// Facade — единая точка входа для CLI, HTTP и тестов.
type Facade struct {
	log      *slog.Logger
	accounts AccountStore
	auth     Authenticator
	profiles ProfileManager
	metrics  *metrics.Recorder
}

// New создаёт Facade. rec может быть nil.
func New(log *slog.Logger, accounts AccountStore, auth Authenticator, profiles ProfileManager, rec *metrics.Recorder) *Facade {
	return &Facade{
		log:      log,
		accounts: accounts,
		auth:     auth,
		profiles: profiles,
		metrics:  rec,
	}
}

// CreateAccount создаёт учётную запись.
func (f *Facade) CreateAccount(ctx context.Context, in models.CreateAccountInput) (CreateResult, error) {
	acc, err := f.accounts.Create(ctx, in)
	if err != nil {
		return CreateResult{}, f.fail(OpCreateAccount, MsgCreateFailed, err, slog.String("username", in.Username))
	}
	f.succeed(OpCreateAccount, slog.String("account_id", acc.ID))
	return CreateResult{AccountID: acc.ID, Message: MsgUserCreated}, nil
}

// Authenticate проверяет пару идентификатор/пароль.
func (f *Facade) Authenticate(ctx context.Context, identifier, secret string) (AuthResult, error) {
	subject, acc, err := f.auth.Authenticate(ctx, identifier, secret)
	if err != nil {
		return AuthResult{}, f.fail(OpAuthenticate, MsgAuthenticationFailed, err)
	}
	f.succeed(OpAuthenticate, slog.String("account_id", subject.AccountID))
	return AuthResult{Subject: subject, Account: acc.Summary(), Message: MsgUserAuthenticated}, nil
}

// UpdateProfile обновляет профиль учётной записи id.
func (f *Facade) UpdateProfile(ctx context.Context, id string, in models.ProfileInput) (UpdateResult, error) {
	acc, err := f.profiles.UpdateProfile(ctx, id, in)
	if err != nil {
		return UpdateResult{}, f.fail(OpUpdateProfile, MsgUpdateFailed, err, slog.String("account_id", id))
	}
	f.succeed(OpUpdateProfile, slog.String("account_id", id))
	return UpdateResult{Account: acc.Summary(), Message: MsgProfileUpdated}, nil
}

// GetAccount возвращает внешнее представление учётной записи.
func (f *Facade) GetAccount(ctx context.Context, id string) (models.AccountSummary, error) {
	summary, err := f.accounts.Summary(ctx, id)
	if err != nil {
		return models.AccountSummary{}, f.fail(OpGetAccount, MsgGetFailed, err, slog.String("account_id", id))
	}
	f.succeed(OpGetAccount)
	return summary, nil
}

// CanRegister сообщает, открыта ли регистрация. Ошибка хранилища считается закрытой регистрацией.
func (f *Facade) CanRegister(ctx context.Context) bool {
	ok, err := f.accounts.CanRegister(ctx)
	if err != nil {
		f.log.Error("failed to check registration limit", sl.Err(err))
		return false
	}
	return ok
}

func (f *Facade) fail(operation, message string, err error, attrs ...any) error {
	kind := models.KindOf(err)
	attrs = append(attrs, slog.String("operation", operation), sl.Kind(kind), sl.Err(err))
	if kind == models.KindInternal {
		f.log.Error("operation failed", attrs...)
	} else {
		f.log.Info("operation rejected", attrs...)
	}
	f.metrics.Observe(operation, string(kind))
	return &Failure{Message: message, Kind: kind, Err: err}
}

func (f *Facade) succeed(operation string, attrs ...any) {
	f.log.Info("operation succeeded", append(attrs, slog.String("operation", operation))...)
	f.metrics.Observe(operation, "")
}
