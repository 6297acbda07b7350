package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/identity-service/internal/models"
	"github.com/magabrotheeeer/identity-service/internal/services/identity"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CreateAccount(ctx context.Context, in models.CreateAccountInput) (identity.CreateResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(identity.CreateResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func failure(kind models.Kind, err error) error {
	return &identity.Failure{Message: identity.MsgCreateFailed, Kind: kind, Err: err}
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	input := models.CreateAccountInput{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "Secr3t!pass",
		FullName:  "Alice A",
		Birthdate: "1990-01-01",
		Country:   "US",
	}

	tests := []struct {
		name           string
		requestBody    any
		result         identity.CreateResult
		mockErr        error
		callService    bool
		wantStatusCode int
		wantStatus     string
		wantError      string
		wantCode       string
	}{
		{
			name:           "valid registration",
			requestBody:    input,
			result:         identity.CreateResult{AccountID: "acc-1", Message: identity.MsgUserCreated},
			callService:    true,
			wantStatusCode: http.StatusCreated,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "invalid request body",
		},
		{
			name:           "username taken",
			requestBody:    input,
			mockErr:        failure(models.KindUsernameTaken, models.ErrUsernameTaken),
			callService:    true,
			wantStatusCode: http.StatusConflict,
			wantStatus:     "Error",
			wantError:      "Failed to create user",
			wantCode:       "UsernameTaken",
		},
		{
			name:           "invalid email",
			requestBody:    input,
			mockErr:        failure(models.KindInvalidEmail, models.ErrInvalidEmail),
			callService:    true,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
			wantError:      "Failed to create user",
			wantCode:       "InvalidEmail",
		},
		{
			name:           "storage failure",
			requestBody:    input,
			mockErr:        failure(models.KindInternal, errors.New("db down")),
			callService:    true,
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
			wantError:      "Failed to create user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callService {
				svc.On("CreateAccount", mock.Anything, input).Return(tt.result, tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), svc)

			var body []byte
			switch v := tt.requestBody.(type) {
			case string:
				body = []byte(v)
			default:
				var err error
				body, err = json.Marshal(v)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
				assert.Nil(t, got["data"])
			} else {
				data, ok := got["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "acc-1", data["id"])
				assert.Equal(t, "User created successfully", data["message"])
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, got["code"])
			} else {
				assert.Nil(t, got["code"])
			}

			svc.AssertExpectations(t)
		})
	}
}
