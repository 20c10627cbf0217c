// Package messaging delivers payment reminders to clients over the
// configured provider webhooks (e-mail, SMS, WhatsApp).
package messaging

import (
	"context"
	"fmt"

	"windykator/internal/ledger"
)

// Message is one reminder to deliver. Recipient carries the channel-specific
// address (e-mail address or phone number).
type Message struct {
	Channel       ledger.Channel
	Level         int
	Recipient     string
	ClientName    string
	InvoiceNumber string
	Amount        float64
}

// Sender delivers a single reminder over one channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Body renders the reminder text for the message's escalation level.
func (m Message) Body() string {
	switch m.Level {
	case 1:
		return fmt.Sprintf(
			"Szanowni Państwo, uprzejmie przypominamy o płatności za fakturę %s na kwotę %.2f EUR.",
			m.InvoiceNumber, m.Amount)
	case 2:
		return fmt.Sprintf(
			"Szanowni Państwo, ponownie przypominamy o zaległej płatności za fakturę %s na kwotę %.2f EUR. Prosimy o pilne uregulowanie należności.",
			m.InvoiceNumber, m.Amount)
	default:
		return fmt.Sprintf(
			"Szanowni Państwo, to ostateczne wezwanie do zapłaty za fakturę %s na kwotę %.2f EUR. Brak wpłaty skutkuje skierowaniem sprawy do windykacji.",
			m.InvoiceNumber, m.Amount)
	}
}
