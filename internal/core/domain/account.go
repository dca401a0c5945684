package domain

import (
	"strings"
	"time"
)

// Account models a registered user. An account is either pending
// (IsActive=false) or active; it becomes active once, through confirmation.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Company      string    `json:"company"`
	Position     string    `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public view of an account returned by the details endpoint.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Position  string `json:"position"`
	IsActive  bool   `json:"is_active"`
}

// Profile returns the public view of the account.
func (a *Account) Profile() *Profile {
	return &Profile{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Position:  a.Position,
		IsActive:  a.IsActive,
	}
}

// NormalizeEmail lower-cases and trims an address. Accounts are stored and
// looked up by the normalized form, which makes uniqueness case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameEmail compares two addresses case-insensitively.
func SameEmail(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}
