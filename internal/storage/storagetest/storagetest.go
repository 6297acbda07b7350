// Package storagetest содержит общий набор проверок для реализаций хранилища
// учётных записей и фабрику тестовых данных.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/identity-service/internal/models"
)

// Repository — методы хранилища, которые проверяет набор.
type Repository interface {
	Insert(ctx context.Context, acc models.Account) error
	InsertLimited(ctx context.Context, acc models.Account, limit int) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateProfile(ctx context.Context, id string, p models.Profile, at time.Time) (*models.Account, error)
	Count(ctx context.Context) (int, error)
}

// NewAccount возвращает заполненную учётную запись с новым идентификатором.
func NewAccount(username, email string) models.Account {
	return models.Account{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		CredentialHash: "$2a$04$hash",
		FullName:       "Test User",
		DisplayName:    "Test",
		Birthdate:      time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		CountryAlpha2:  "US",
		LanguageCode:   models.DefaultLanguageCode,
		CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
	}
}

// Run выполняет набор проверок. newRepo должен возвращать пустое хранилище.
func Run(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("insert and lookup", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		acc := NewAccount("alice", "alice@example.com")
		require.NoError(t, repo.Insert(ctx, acc))

		for name, get := range map[string]func() (*models.Account, error){
			"by id":       func() (*models.Account, error) { return repo.GetByID(ctx, acc.ID) },
			"by username": func() (*models.Account, error) { return repo.GetByUsername(ctx, "alice") },
			"by email":    func() (*models.Account, error) { return repo.GetByEmail(ctx, "alice@example.com") },
		} {
			got, err := get()
			require.NoError(t, err, name)
			assert.Equal(t, acc.ID, got.ID, name)
			assert.Equal(t, acc.Username, got.Username, name)
			assert.Equal(t, acc.Email, got.Email, name)
			assert.Equal(t, acc.CredentialHash, got.CredentialHash, name)
			assert.Equal(t, acc.FullName, got.FullName, name)
			assert.Equal(t, acc.DisplayName, got.DisplayName, name)
			assert.True(t, acc.Birthdate.Equal(got.Birthdate), name)
			assert.Equal(t, acc.CountryAlpha2, got.CountryAlpha2, name)
			assert.Equal(t, acc.LanguageCode, got.LanguageCode, name)
			assert.Nil(t, got.UpdatedAt, name)
		}
	})

	t.Run("not found", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
		_, err = repo.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
		_, err = repo.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
	})

	t.Run("lookups are case sensitive", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Insert(ctx, NewAccount("alice", "alice@example.com")))

		_, err := repo.GetByUsername(ctx, "Alice")
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
		_, err = repo.GetByEmail(ctx, "ALICE@example.com")
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
	})

	t.Run("unique username and email", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Insert(ctx, NewAccount("alice", "alice@example.com")))

		err := repo.Insert(ctx, NewAccount("alice", "other@example.com"))
		assert.ErrorIs(t, err, models.ErrUsernameTaken)

		err = repo.Insert(ctx, NewAccount("bob", "alice@example.com"))
		assert.ErrorIs(t, err, models.ErrEmailTaken)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("concurrent inserts with same username", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = repo.Insert(ctx, NewAccount("carol", fmt.Sprintf("carol%d@example.com", i)))
			}(i)
		}
		wg.Wait()

		var ok, taken int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, models.ErrUsernameTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, workers-1, taken)
	})

	t.Run("concurrent inserts with same email", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = repo.Insert(ctx, NewAccount(fmt.Sprintf("dave%d", i), "dave@example.com"))
			}(i)
		}
		wg.Wait()

		var ok int
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, models.ErrEmailTaken)
		}
		assert.Equal(t, 1, ok)
	})

	t.Run("registration limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.InsertLimited(ctx, NewAccount("alice", "alice@example.com"), 2))
		require.NoError(t, repo.InsertLimited(ctx, NewAccount("bob", "bob@example.com"), 2))

		err := repo.InsertLimited(ctx, NewAccount("carol", "carol@example.com"), 2)
		assert.ErrorIs(t, err, models.ErrRegistrationClosed)
		_, err = repo.GetByUsername(ctx, "carol")
		assert.ErrorIs(t, err, models.ErrAccountNotFound)

		require.NoError(t, repo.InsertLimited(ctx, NewAccount("dave", "dave@example.com"), 0))
	})

	t.Run("concurrent inserts under registration limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const (
			workers = 8
			limit   = 3
		)
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				acc := NewAccount(fmt.Sprintf("frank%d", i), fmt.Sprintf("frank%d@example.com", i))
				errs[i] = repo.InsertLimited(ctx, acc, limit)
			}(i)
		}
		wg.Wait()

		var ok int
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, models.ErrRegistrationClosed)
		}
		assert.Equal(t, limit, ok)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, limit, n)
	})

	t.Run("update profile", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		acc := NewAccount("alice", "alice@example.com")
		require.NoError(t, repo.Insert(ctx, acc))

		at := time.Now().UTC().Truncate(time.Millisecond)
		profile := models.Profile{
			FullName:      "Alice Liddell",
			DisplayName:   "Alice",
			Birthdate:     time.Date(1991, 2, 3, 0, 0, 0, 0, time.UTC),
			CountryAlpha2: "GB",
		}
		updated, err := repo.UpdateProfile(ctx, acc.ID, profile, at)
		require.NoError(t, err)
		assert.Equal(t, "Alice Liddell", updated.FullName)
		assert.Equal(t, "GB", updated.CountryAlpha2)
		require.NotNil(t, updated.UpdatedAt)
		assert.True(t, at.Equal(*updated.UpdatedAt))

		got, err := repo.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice Liddell", got.FullName)
		assert.Equal(t, "Alice", got.DisplayName)
		assert.True(t, profile.Birthdate.Equal(got.Birthdate))
		assert.Equal(t, "GB", got.CountryAlpha2)
		assert.Equal(t, acc.Username, got.Username)
		assert.Equal(t, acc.Email, got.Email)
		assert.Equal(t, acc.CredentialHash, got.CredentialHash)
	})

	t.Run("update unknown account", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.UpdateProfile(context.Background(), uuid.NewString(), models.Profile{
			FullName: "X", DisplayName: "X", Birthdate: time.Now(), CountryAlpha2: "US",
		}, time.Now())
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := newRepo(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := repo.Insert(ctx, NewAccount("erin", "erin@example.com"))
		assert.ErrorIs(t, err, context.Canceled)
		_, err = repo.GetByUsername(ctx, "erin")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
