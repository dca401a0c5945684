package ports

import (
	"context"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to Register.
type RegisterInput struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
	Company   string `json:"company"    validate:"required"`
	Position  string `json:"position"   validate:"required"`
}

// UpdateProfileInput carries a partial profile update. Empty fields are left
// unchanged.
type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Company   string
	Position  string
	Password  string
}

// AccountService defines the account use cases.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	Confirm(ctx context.Context, email, key string) error
	ResendConfirmation(ctx context.Context, email string) error
	Authenticate(ctx context.Context, email, password string) (string, *domain.Account, error)
	GetProfile(ctx context.Context, principal domain.Principal) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, principal domain.Principal, in UpdateProfileInput) (*domain.Profile, error)
}
