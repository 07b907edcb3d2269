package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/posa/jerseyapp/internal/model"
)

// DefaultOrderURL is where parents are sent to order uniforms
const DefaultOrderURL = "https://your-order-url.com"

var ErrNoRecipient = errors.New("notification has no recipient")

// Confirmation is the message sent to a parent after a player is registered
type Confirmation struct {
	Recipient    string
	PlayerName   string
	JerseyNumber int
	OrderURL     string
	// Registration is nil for players added by hand
	Registration *model.Registration
	PromoCode    string
}

// Notifier delivers confirmations. Implementations report failure through the
// returned error and never panic.
type Notifier interface {
	SendConfirmation(ctx context.Context, c Confirmation) error
}

// Nop drops every confirmation
type Nop struct{}

var _ Notifier = Nop{}

func (Nop) SendConfirmation(ctx context.Context, c Confirmation) error {
	return nil
}

// LogNotifier writes confirmations to the log instead of sending mail.
// Used in development.
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With(slog.String("component", "notifier"))}
}

func (n *LogNotifier) SendConfirmation(ctx context.Context, c Confirmation) error {
	if c.Recipient == "" {
		return ErrNoRecipient
	}

	attrs := []any{
		slog.String("to", c.Recipient),
		slog.String("player", c.PlayerName),
		slog.Int("jersey", c.JerseyNumber),
		slog.String("order_url", c.OrderURL),
	}
	if c.Registration != nil {
		attrs = append(attrs,
			slog.String("program", c.Registration.Program),
			slog.String("division", c.Registration.Division),
		)
	}
	if c.PromoCode != "" {
		attrs = append(attrs, slog.String("promo_code", c.PromoCode))
	}

	n.logger.InfoContext(ctx, "confirmation email", attrs...)
	return nil
}
