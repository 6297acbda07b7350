package login

import (
	"context"

	"github.com/magabrotheeeer/identity-service/internal/services/identity"
)

// Service аутентифицирует пользователя.
type Service interface {
	Authenticate(ctx context.Context, identifier, secret string) (identity.AuthResult, error)
}

// TokenIssuer выпускает токен сессии.
type TokenIssuer interface {
	GenerateToken(accountID, username string) (string, error)
}
