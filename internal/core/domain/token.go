package domain

import "time"

// ConfirmationToken is a single-use secret proving control of the email an
// account was registered with. It holds a non-owning reference to the account;
// at most one token exists per account.
type ConfirmationToken struct {
	Key       string    `json:"-"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}
