package messaging

import (
	"context"

	"windykator/internal/common"
	"windykator/internal/config"
	"windykator/internal/ledger"
)

// Dispatcher routes reminders to the sender registered for their channel.
type Dispatcher struct {
	senders map[ledger.Channel]Sender
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{senders: make(map[ledger.Channel]Sender)}
}

// NewDispatcherFromConfig wires one webhook sender per configured gateway URL.
// Channels without a URL stay unregistered and fail at dispatch time.
func NewDispatcherFromConfig(cfg *config.Config) *Dispatcher {
	d := NewDispatcher()
	if cfg.EmailGatewayURL != "" {
		d.Register(ledger.ChannelEmail, NewWebhookSender(cfg.EmailGatewayURL))
	}
	if cfg.SMSGatewayURL != "" {
		d.Register(ledger.ChannelSMS, NewWebhookSender(cfg.SMSGatewayURL))
	}
	if cfg.WhatsAppGatewayURL != "" {
		d.Register(ledger.ChannelWhatsApp, NewWebhookSender(cfg.WhatsAppGatewayURL))
	}
	return d
}

// Register binds a sender to a channel, replacing any previous one.
func (d *Dispatcher) Register(ch ledger.Channel, s Sender) {
	d.senders[ch] = s
}

// Send delivers the message over its channel's sender.
// Returns common.ErrUnknownChannel when no sender is registered.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	s, ok := d.senders[msg.Channel]
	if !ok {
		return common.ErrUnknownChannel
	}
	return s.Send(ctx, msg)
}
