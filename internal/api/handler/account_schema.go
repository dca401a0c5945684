package handler

import "github.com/99minutos/accounts-api/internal/core/domain"

// statusResponse is the envelope every account endpoint answers with.
// Errors is a field→message map for validation failures and a plain string
// otherwise.
type statusResponse struct {
	Status bool `json:"Status"`
	Errors any  `json:"Errors,omitempty"`
}

type loginResponse struct {
	Status bool   `json:"Status"`
	Token  string `json:"Token"`
}

type detailsResponse struct {
	Status bool `json:"Status"`
	*domain.Profile
}

// --- Request types ---

type confirmRequest struct {
	Email string `json:"email" validate:"required"`
	Token string `json:"token" validate:"required"`
}

type resendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateDetailsRequest struct {
	FirstName string `json:"first_name" validate:"omitempty,max=100"`
	LastName  string `json:"last_name"  validate:"omitempty,max=100"`
	Company   string `json:"company"    validate:"omitempty,max=200"`
	Position  string `json:"position"   validate:"omitempty,max=200"`
	Password  string `json:"password"   validate:"omitempty,max=72"`
}

const (
	msgInvalidPayload   = "invalid payload"
	msgMissingArguments = "All required arguments must be provided"
	msgInvalidConfirm   = "Invalid token or email"
	msgUnauthenticated  = "Unable to authenticate"
)
