// Package sqlite реализует хранилище учётных записей на встроенной SQLite (modernc.org/sqlite).
// Используется CLI и локальными запусками без внешней базы данных.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/magabrotheeeer/identity-service/internal/migrations"
	"github.com/magabrotheeeer/identity-service/internal/models"
)

const accountColumns = `id, username, email, credential_hash, full_name, display_name,
	birthdate, country_alpha2, language_code, created_at, updated_at`

// Storage хранит учётные записи в файле SQLite.
type Storage struct {
	db *sql.DB
}

// New открывает файл базы по пути path и применяет миграции.
func New(ctx context.Context, path string) (*Storage, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite", dsnWithPragmas(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// Один писатель на файл; запросы выстраиваются в очередь пула.
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.RunSQLite(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{db: db}, nil
}

// Insert сохраняет учётную запись, полагаясь на ограничения UNIQUE таблицы.
func (s *Storage) Insert(ctx context.Context, acc models.Account) error {
	return s.InsertLimited(ctx, acc, 0)
}

// InsertLimited сохраняет учётную запись, если записей меньше limit.
// Подсчёт выполняется в том же операторе INSERT ... SELECT, что и вставка.
// limit <= 0 снимает ограничение.
func (s *Storage) InsertLimited(ctx context.Context, acc models.Account, limit int) error {
	const op = "storage.sqlite.Insert"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	args := []any{
		acc.ID, acc.Username, acc.Email, acc.CredentialHash, acc.FullName, acc.DisplayName,
		acc.Birthdate.Format(models.DateLayout), acc.CountryAlpha2, acc.LanguageCode,
		formatTime(acc.CreatedAt), formatTimePtr(acc.UpdatedAt),
	}
	query := `INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if limit > 0 {
		query = `INSERT INTO accounts (` + accountColumns + `)
				 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
				 WHERE (SELECT count(*) FROM accounts) < ?`
		args = append(args, limit)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapUniqueViolation(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrRegistrationClosed)
	}
	return nil
}

// GetByID возвращает учётную запись по идентификатору.
func (s *Storage) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return s.getBy(ctx, "storage.sqlite.GetByID", "id", id)
}

// GetByUsername возвращает учётную запись по имени пользователя.
func (s *Storage) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.getBy(ctx, "storage.sqlite.GetByUsername", "username", username)
}

// GetByEmail возвращает учётную запись по email.
func (s *Storage) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getBy(ctx, "storage.sqlite.GetByEmail", "email", email)
}

// UpdateProfile обновляет профиль одним запросом UPDATE ... RETURNING.
func (s *Storage) UpdateProfile(ctx context.Context, id string, p models.Profile, at time.Time) (*models.Account, error) {
	const op = "storage.sqlite.UpdateProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET full_name = ?, display_name = ?, birthdate = ?, country_alpha2 = ?, updated_at = ?
			  WHERE id = ?
			  RETURNING ` + accountColumns
	row := s.db.QueryRowContext(ctx, query,
		p.FullName, p.DisplayName, p.Birthdate.Format(models.DateLayout), p.CountryAlpha2, formatTime(at), id)
	acc, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// Count возвращает количество учётных записей.
func (s *Storage) Count(ctx context.Context) (int, error) {
	const op = "storage.sqlite.Count"
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// Ping проверяет доступность файла базы.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает базу.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) getBy(ctx context.Context, op, column, value string) (*models.Account, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + column + ` = ?`
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		acc                  models.Account
		birthdate, createdAt string
		updatedAt            sql.NullString
	)
	err := row.Scan(&acc.ID, &acc.Username, &acc.Email, &acc.CredentialHash, &acc.FullName,
		&acc.DisplayName, &birthdate, &acc.CountryAlpha2, &acc.LanguageCode, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	if acc.Birthdate, err = time.Parse(models.DateLayout, birthdate); err != nil {
		return nil, fmt.Errorf("parse birthdate: %w", err)
	}
	if acc.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if updatedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, updatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		acc.UpdatedAt = &t
	}
	return &acc, nil
}

const pragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

// dsnWithPragmas добавляет прагмы к пути, сохраняя уже заданные параметры.
func dsnWithPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + pragmas
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func mapUniqueViolation(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}
	msg := sqliteErr.Error()
	if !strings.Contains(msg, "UNIQUE") {
		return err
	}
	switch {
	case strings.Contains(msg, "accounts.username"):
		return models.ErrUsernameTaken
	case strings.Contains(msg, "accounts.email"):
		return models.ErrEmailTaken
	default:
		return err
	}
}
