package register

import (
	"context"

	"github.com/magabrotheeeer/identity-service/internal/models"
	"github.com/magabrotheeeer/identity-service/internal/services/identity"
)

// Service создаёт учётные записи.
type Service interface {
	CreateAccount(ctx context.Context, in models.CreateAccountInput) (identity.CreateResult, error)
}
