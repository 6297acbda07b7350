package login

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/identity-service/internal/models"
	"github.com/magabrotheeeer/identity-service/internal/services/identity"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Authenticate(ctx context.Context, identifier, secret string) (identity.AuthResult, error) {
	args := m.Called(ctx, identifier, secret)
	return args.Get(0).(identity.AuthResult), args.Error(1)
}

type TokenIssuerMock struct {
	mock.Mock
}

func (m *TokenIssuerMock) GenerateToken(accountID, username string) (string, error) {
	args := m.Called(accountID, username)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	okResult := identity.AuthResult{
		Subject: models.AuthenticatedSubject{AccountID: "acc-1"},
		Account: models.AccountSummary{ID: "acc-1", Username: "alice"},
		Message: identity.MsgUserAuthenticated,
	}
	authFailed := &identity.Failure{
		Message: identity.MsgAuthenticationFailed,
		Kind:    models.KindAuthenticationFailed,
		Err:     models.ErrAuthenticationFailed,
	}

	tests := []struct {
		name           string
		body           string
		setup          func(*ServiceMock, *TokenIssuerMock)
		wantStatusCode int
		wantError      string
		wantToken      string
	}{
		{
			name: "valid credentials",
			body: `{"identifier":"alice","password":"Secr3t!pass"}`,
			setup: func(s *ServiceMock, ti *TokenIssuerMock) {
				s.On("Authenticate", mock.Anything, "alice", "Secr3t!pass").Return(okResult, nil).Once()
				ti.On("GenerateToken", "acc-1", "alice").Return("tok", nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantToken:      "tok",
		},
		{
			name:           "invalid json body",
			body:           "{",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "missing password",
			body:           `{"identifier":"alice"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Password is a required field",
		},
		{
			name: "wrong password",
			body: `{"identifier":"alice","password":"nope"}`,
			setup: func(s *ServiceMock, _ *TokenIssuerMock) {
				s.On("Authenticate", mock.Anything, "alice", "nope").Return(identity.AuthResult{}, authFailed).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "Failed to authenticate user",
		},
		{
			name: "token issue failure",
			body: `{"identifier":"alice","password":"Secr3t!pass"}`,
			setup: func(s *ServiceMock, ti *TokenIssuerMock) {
				s.On("Authenticate", mock.Anything, "alice", "Secr3t!pass").Return(okResult, nil).Once()
				ti.On("GenerateToken", "acc-1", "alice").Return("", errors.New("sign")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "Failed to authenticate user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tokens := new(TokenIssuerMock)
			if tt.setup != nil {
				tt.setup(svc, tokens)
			}
			handler := New(newNoopLogger(), svc, tokens)

			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, "Error", got["status"])
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, "OK", got["status"])
				data := got["data"].(map[string]any)
				assert.Equal(t, tt.wantToken, data["token"])
				assert.Equal(t, "acc-1", data["account_id"])
				assert.Equal(t, "User authenticated successfully", data["message"])
			}

			svc.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}
