package ports

import (
	"context"
	"time"
)

// ConfirmationNotice is emitted when a confirmation token is issued so the
// mail service can deliver it to the account owner.
type ConfirmationNotice struct {
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Notifier delivers a confirmation notice downstream.
type Notifier interface {
	Notify(ctx context.Context, notice ConfirmationNotice) error
}

// NoticeQueue accepts notices for asynchronous delivery.
type NoticeQueue interface {
	Enqueue(notice ConfirmationNotice)
}
