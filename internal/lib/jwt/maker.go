// Package jwt выпускает и проверяет токены сессии для аутентифицированного субъекта.
package jwt

import (
	"errors"
	"time"
)

// ErrInvalidToken возвращается для повреждённого, просроченного или чужого токена.
var ErrInvalidToken = errors.New("invalid token")

// Maker описывает выпуск и разбор токенов.
type Maker interface {
	GenerateToken(accountID, username string) (string, error)
	ParseToken(tokenStr string) (*Claims, error)
}

// HMACMaker подписывает токены HS256 общим секретом.
type HMACMaker struct {
	secretKey []byte
	tokenTTL  time.Duration
	issuer    string
}

// NewMaker создаёт HMACMaker.
func NewMaker(secretKey string, ttl time.Duration) *HMACMaker {
	return &HMACMaker{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		issuer:    "identity-service",
	}
}
