package profile_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/identity-service/internal/models"
	"github.com/magabrotheeeer/identity-service/internal/services/profile"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) UpdateProfile(ctx context.Context, id string, p models.Profile) (*models.Account, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_UpdateProfile(t *testing.T) {
	tests := []struct {
		name       string
		input      models.ProfileInput
		setupMocks func(m *StoreMock)
		wantErr    error
		wantField  models.Kind
	}{
		{
			name:  "success",
			input: models.ProfileInput{FullName: " Alice  Liddell ", Birthdate: "1991-02-03", Country: "GB"},
			setupMocks: func(m *StoreMock) {
				m.On("UpdateProfile", mock.Anything, "id-1", models.Profile{
					FullName:      "Alice  Liddell",
					DisplayName:   "Alice",
					Birthdate:     time.Date(1991, 2, 3, 0, 0, 0, 0, time.UTC),
					CountryAlpha2: "GB",
				}).Return(&models.Account{ID: "id-1", FullName: "Alice  Liddell"}, nil).Once()
			},
		},
		{
			name:       "empty full name and birthdate",
			input:      models.ProfileInput{FullName: "", Birthdate: "", Country: "US"},
			setupMocks: func(*StoreMock) {},
			wantErr:    models.ErrValidationFailed,
			wantField:  models.KindInvalidFullName,
		},
		{
			name:       "empty birthdate",
			input:      models.ProfileInput{FullName: "Alice", Birthdate: "", Country: "US"},
			setupMocks: func(*StoreMock) {},
			wantErr:    models.ErrValidationFailed,
			wantField:  models.KindInvalidBirthdate,
		},
		{
			name:       "bad country",
			input:      models.ProfileInput{FullName: "Alice", Birthdate: "1990-01-01", Country: "usa"},
			setupMocks: func(*StoreMock) {},
			wantErr:    models.ErrValidationFailed,
			wantField:  models.KindInvalidCountry,
		},
		{
			name:  "unknown account",
			input: models.ProfileInput{FullName: "Alice", Birthdate: "1990-01-01", Country: "US"},
			setupMocks: func(m *StoreMock) {
				m.On("UpdateProfile", mock.Anything, "id-1", mock.Anything).
					Return(nil, models.ErrAccountNotFound).Once()
			},
			wantErr: models.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(StoreMock)
			tt.setupMocks(store)
			svc := profile.New(newNoopLogger(), store)

			acc, err := svc.UpdateProfile(context.Background(), "id-1", tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, acc)
				if tt.wantField != "" {
					assert.Equal(t, tt.wantField, models.FieldKind(err))
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, "id-1", acc.ID)
			}
			store.AssertExpectations(t)
		})
	}
}
