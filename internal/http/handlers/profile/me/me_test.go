package me

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/identity-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/identity-service/internal/models"
	"github.com/magabrotheeeer/identity-service/internal/services/identity"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) GetAccount(ctx context.Context, id string) (models.AccountSummary, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.AccountSummary), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestMeHandler(t *testing.T) {
	tests := []struct {
		name           string
		accountID      string
		setup          func(*ServiceMock)
		wantStatusCode int
		wantUsername   string
	}{
		{
			name:      "found",
			accountID: "acc-1",
			setup: func(m *ServiceMock) {
				m.On("GetAccount", mock.Anything, "acc-1").
					Return(models.AccountSummary{ID: "acc-1", Username: "alice"}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantUsername:   "alice",
		},
		{
			name:      "deleted account",
			accountID: "acc-2",
			setup: func(m *ServiceMock) {
				m.On("GetAccount", mock.Anything, "acc-2").Return(models.AccountSummary{}, &identity.Failure{
					Message: identity.MsgGetFailed,
					Kind:    models.KindAccountNotFound,
					Err:     models.ErrAccountNotFound,
				}).Once()
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "no account in context",
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.setup != nil {
				tt.setup(svc)
			}

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.accountID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.AccountID, tt.accountID))
			}
			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantUsername != "" {
				var got struct {
					Data models.AccountSummary `json:"data"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, tt.wantUsername, got.Data.Username)
			}
			svc.AssertExpectations(t)
		})
	}
}
