// Package postgresql реализует хранилище учётных записей на PostgreSQL.
//
// Уникальность обеспечивают ограничения accounts_username_key и accounts_email_key;
// нарушение ограничения переводится в models.ErrUsernameTaken или models.ErrEmailTaken.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/identity-service/internal/migrations"
	"github.com/magabrotheeeer/identity-service/internal/models"
)

const (
	usernameConstraint = "accounts_username_key"
	emailConstraint    = "accounts_email_key"
)

// registrationLockKey — ключ pg_advisory_xact_lock, сериализующий регистрации при включённом лимите.
const registrationLockKey int64 = 0x1d3e7717

const accountColumns = `id, username, email, credential_hash, full_name, display_name,
	birthdate, country_alpha2, language_code, created_at, updated_at`

// Storage хранит учётные записи в таблице accounts.
type Storage struct {
	DB *sql.DB
}

// New подключается к PostgreSQL и применяет миграции.
func New(ctx context.Context, dsn string, maxConns int) (*Storage, error) {
	const op = "storage.postgresql.New"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.RunPostgres(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{DB: db}, nil
}

// Insert сохраняет учётную запись. Проверка уникальности выполняется самой базой.
func (s *Storage) Insert(ctx context.Context, acc models.Account) error {
	return s.InsertLimited(ctx, acc, 0)
}

// InsertLimited сохраняет учётную запись, если записей меньше limit.
// Подсчёт и вставка выполняются в одной транзакции под advisory-блокировкой,
// поэтому параллельные регистрации не превышают лимит. limit <= 0 снимает ограничение.
func (s *Storage) InsertLimited(ctx context.Context, acc models.Account, limit int) error {
	const op = "storage.postgresql.Insert"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if limit <= 0 {
		if err := insertAccount(ctx, s.DB, acc); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, registrationLockKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var n int
	if err = tx.QueryRowContext(ctx, `SELECT count(*) FROM accounts`).Scan(&n); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n >= limit {
		return fmt.Errorf("%s: %w", op, models.ErrRegistrationClosed)
	}
	if err = insertAccount(ctx, tx, acc); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAccount(ctx context.Context, db execer, acc models.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := db.ExecContext(ctx, query,
		acc.ID, acc.Username, acc.Email, acc.CredentialHash, acc.FullName, acc.DisplayName,
		acc.Birthdate, acc.CountryAlpha2, acc.LanguageCode, acc.CreatedAt, acc.UpdatedAt)
	return mapUniqueViolation(err)
}

// GetByID возвращает учётную запись по идентификатору.
func (s *Storage) GetByID(ctx context.Context, id string) (*models.Account, error) {
	const op = "storage.postgresql.GetByID"
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
	}
	return s.getBy(ctx, op, "id", id)
}

// GetByUsername возвращает учётную запись по имени пользователя.
func (s *Storage) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.getBy(ctx, "storage.postgresql.GetByUsername", "username", username)
}

// GetByEmail возвращает учётную запись по email.
func (s *Storage) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getBy(ctx, "storage.postgresql.GetByEmail", "email", email)
}

// UpdateProfile обновляет профиль одним запросом UPDATE ... RETURNING.
func (s *Storage) UpdateProfile(ctx context.Context, id string, p models.Profile, at time.Time) (*models.Account, error) {
	const op = "storage.postgresql.UpdateProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrAccountNotFound)
	}

	query := `UPDATE accounts
			  SET full_name = $2, display_name = $3, birthdate = $4, country_alpha2 = $5, updated_at = $6
			  WHERE id = $1
			  RETURNING ` + accountColumns
	row := s.DB.QueryRowContext(ctx, query, id, p.FullName, p.DisplayName, p.Birthdate, p.CountryAlpha2, at)
	acc, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// Count возвращает количество учётных записей.
func (s *Storage) Count(ctx context.Context) (int, error) {
	const op = "storage.postgresql.Count"
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT count(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// Ping проверяет соединение с базой.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

func (s *Storage) getBy(ctx context.Context, op, column, value string) (*models.Account, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + column + ` = $1`
	acc, err := scanAccount(s.DB.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		acc       models.Account
		updatedAt sql.NullTime
	)
	err := row.Scan(&acc.ID, &acc.Username, &acc.Email, &acc.CredentialHash, &acc.FullName,
		&acc.DisplayName, &acc.Birthdate, &acc.CountryAlpha2, &acc.LanguageCode, &acc.CreatedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	acc.Birthdate = acc.Birthdate.UTC()
	if updatedAt.Valid {
		t := updatedAt.Time
		acc.UpdatedAt = &t
	}
	return &acc, nil
}

func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case usernameConstraint:
		return models.ErrUsernameTaken
	case emailConstraint:
		return models.ErrEmailTaken
	default:
		return err
	}
}
