package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func TestMaker_GenerateAndParse(t *testing.T) {
	ttl := 15 * time.Minute
	maker := NewMaker(testSecret, ttl)

	tests := []struct {
		name      string
		accountID string
		username  string
	}{
		{name: "regular account", accountID: "0b6f3b4e-7a55-4c4c-9d4a-2f1f6a1c9e01", username: "alice"},
		{name: "username with separators", accountID: "5f0c3a52-2b7e-4b8f-8f3e-9c1d1e2a3b4c", username: "bob.b-c_d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.accountID, tt.username)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.accountID, claims.AccountID())
			assert.Equal(t, tt.username, claims.Username)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(ttl), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestMaker_ParseInvalid(t *testing.T) {
	maker := NewMaker(testSecret, 15*time.Minute)

	valid, err := maker.GenerateToken("id-1", "alice")
	require.NoError(t, err)
	expired, err := NewMaker(testSecret, -time.Hour).GenerateToken("id-1", "alice")
	require.NoError(t, err)
	foreign, err := NewMaker("another_secret", time.Hour).GenerateToken("id-1", "alice")
	require.NoError(t, err)
	noSubject, err := maker.GenerateToken("", "alice")
	require.NoError(t, err)
	otherIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "id-1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "malformed", token: "invalid.token.here"},
		{name: "expired", token: expired},
		{name: "wrong secret", token: foreign},
		{name: "tampered", token: valid + "tampered"},
		{name: "missing subject", token: noSubject},
		{name: "other issuer", token: otherIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestMaker_RejectsNoneAlgorithm(t *testing.T) {
	maker := NewMaker(testSecret, time.Hour)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "id-1", Issuer: "identity-service"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = maker.ParseToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
