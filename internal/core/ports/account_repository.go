package ports

import (
	"context"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// AccountRepository persists accounts. Implementations look accounts up by
// normalized email and return domain.ErrAccountNotFound when nothing matches.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Activate flips a pending account to active. It returns
	// domain.ErrAlreadyActive when the account is not pending anymore.
	Activate(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, account *domain.Account) error
}

// TokenRepository persists confirmation tokens, at most one per account.
type TokenRepository interface {
	// Replace stores token as the only token of its account, dropping any
	// previously issued one.
	Replace(ctx context.Context, token *domain.ConfirmationToken) error
	// TakeByKey deletes the token with the given key and returns it. It
	// returns domain.ErrTokenNotFound when no such token exists.
	TakeByKey(ctx context.Context, key string) (*domain.ConfirmationToken, error)
	FindByKey(ctx context.Context, key string) (*domain.ConfirmationToken, error)
}

// TxManager runs fn inside a transaction. Repositories called with the ctx
// passed to fn take part in it; the transaction commits when fn returns nil
// and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
