package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/core/ports"
)

var _ ports.Notifier = LogNotifier{}

// LogNotifier writes notices to the log instead of a broker. Used in
// development when RABBITMQ_URL is not set; the token is logged so the
// account can be confirmed by hand.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, notice ports.ConfirmationNotice) error {
	n.Log.Info().
		Str("account_id", notice.AccountID).
		Str("email", notice.Email).
		Str("token", notice.Token).
		Msg("confirmation notice")
	return nil
}
