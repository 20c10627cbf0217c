package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"windykator/internal/clientflags"
	"windykator/internal/common"
	"windykator/internal/eligibility"
	"windykator/internal/ledger"
	"windykator/internal/logging"
	"windykator/internal/messaging"
	"windykator/internal/models"
	"windykator/internal/repositories/repomanager"
)

// ReminderAction is one reminder the engine decided is due.
type ReminderAction struct {
	InvoiceID     int64          `json:"invoice_id"`
	ClientID      int64          `json:"client_id"`
	ClientName    string         `json:"client_name"`
	InvoiceNumber string         `json:"invoice_number"`
	Channel       ledger.Channel `json:"channel"`
	Level         int            `json:"level"`
	Recipient     string         `json:"recipient"`
	Amount        float64        `json:"amount"`
}

// ReminderOutcome is the result of attempting one action.
type ReminderOutcome struct {
	ReminderAction
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// ReminderReport summarizes one reminder run.
type ReminderReport struct {
	DryRun   bool              `json:"dry_run"`
	Planned  int               `json:"planned"`
	Sent     int               `json:"sent"`
	Failed   int               `json:"failed"`
	Outcomes []ReminderOutcome `json:"outcomes"`
}

// ReminderService plans and executes reminder runs over the mirrored
// invoice set.
type ReminderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	saas        SaaSClient
	dispatcher  *messaging.Dispatcher
	engine      *eligibility.Engine
	logger      logging.Logger
	writeDelay  time.Duration
}

// NewReminderService constructs a ReminderService.
func NewReminderService(db *sql.DB, m repomanager.RepositoryManager, saas SaaSClient,
	dispatcher *messaging.Dispatcher, engine *eligibility.Engine, logger logging.Logger,
	writeDelay time.Duration) *ReminderService {
	return &ReminderService{
		db:          db,
		repomanager: m,
		saas:        saas,
		dispatcher:  dispatcher,
		engine:      engine,
		logger:      logger,
		writeDelay:  writeDelay,
	}
}

// Plan walks all outstanding invoices and returns every reminder that is due
// at the given moment: per invoice and channel, at most the lowest due level.
// Only clients enrolled in the workflow are considered.
func (s *ReminderService) Plan(ctx context.Context, now time.Time) ([]ReminderAction, error) {
	invs, err := s.repomanager.Invoices(s.db).ListOutstanding(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list outstanding invoices: %w", err)
	}

	clientRepo := s.repomanager.Clients(s.db)
	clientCache := map[int64]*models.Client{}

	var actions []ReminderAction
	for _, inv := range invs {
		client, ok := clientCache[inv.ClientID]
		if !ok {
			client, err = clientRepo.Get(ctx, inv.ClientID)
			if errors.Is(err, common.ErrorNotFound) {
				s.logger.Warn(ctx, "invoice without mirrored client", "invoice_id", inv.ID, "client_id", inv.ClientID)
				continue
			}
			if err != nil {
				return nil, err
			}
			clientCache[inv.ClientID] = client
		}

		if !clientflags.Parse(client.Note).Windykacja {
			continue
		}

		for _, ch := range ledger.Channels {
			for _, level := range ledger.Levels() {
				if !s.engine.NeedsReminder(inv, ch, level, now) {
					continue
				}
				actions = append(actions, ReminderAction{
					InvoiceID:     inv.ID,
					ClientID:      client.ID,
					ClientName:    client.Name,
					InvoiceNumber: inv.Number,
					Channel:       ch,
					Level:         level,
					Recipient:     recipient(client, ch),
					Amount:        inv.Outstanding(),
				})
				break // one level per channel per run
			}
		}
	}
	return actions, nil
}

// Run plans and, unless dryRun is set, delivers the due reminders. Each
// successful delivery is recorded in the invoice's note on the SaaS first
// and mirrored afterwards. One failing action never aborts the rest.
func (s *ReminderService) Run(ctx context.Context, now time.Time, dryRun bool) (*ReminderReport, error) {
	actions, err := s.Plan(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &ReminderReport{DryRun: dryRun, Planned: len(actions)}
	if dryRun {
		for _, a := range actions {
			report.Outcomes = append(report.Outcomes, ReminderOutcome{ReminderAction: a})
		}
		return report, nil
	}

	for i, a := range actions {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				return report, err
			}
		}
		outcome := s.execute(ctx, a, now)
		if outcome.Sent {
			report.Sent++
		}
		if outcome.Error != "" {
			report.Failed++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	s.logger.Info(ctx, "reminder run finished",
		"planned", report.Planned, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

// execute sends one reminder and writes the ledger update back. A delivery
// that succeeded but could not be recorded on the SaaS is still reported as
// sent, with the write error attached, so the operator can reconcile by hand.
func (s *ReminderService) execute(ctx context.Context, a ReminderAction, now time.Time) ReminderOutcome {
	outcome := ReminderOutcome{ReminderAction: a}

	err := s.dispatcher.Send(ctx, messaging.Message{
		Channel:       a.Channel,
		Level:         a.Level,
		Recipient:     a.Recipient,
		ClientName:    a.ClientName,
		InvoiceNumber: a.InvoiceNumber,
		Amount:        a.Amount,
	})
	if err != nil {
		outcome.Error = err.Error()
		s.logger.Error(ctx, "reminder delivery failed",
			"invoice_id", a.InvoiceID, "channel", a.Channel, "level", a.Level, "error", err)
		return outcome
	}
	outcome.Sent = true

	if err := s.recordSend(ctx, a.InvoiceID, a.Channel, a.Level, now); err != nil {
		outcome.Error = err.Error()
		s.logger.Error(ctx, "reminder sent but not recorded",
			"invoice_id", a.InvoiceID, "channel", a.Channel, "level", a.Level, "error", err)
	}
	return outcome
}

// recordSend marks one (channel, level) cell as sent in the invoice note.
// The note is re-read from the SaaS to avoid clobbering manual edits made
// since the last sync.
func (s *ReminderService) recordSend(ctx context.Context, invoiceID int64, ch ledger.Channel, level int, at time.Time) error {
	inv, err := s.saas.GetInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}

	newNote, err := ledger.SetFlag(inv.InternalNote, ch, level, true, at)
	if err != nil {
		return err
	}
	if err := s.saas.UpdateInvoiceNote(ctx, invoiceID, newNote); err != nil {
		return fmt.Errorf("failed to update invoice %d note: %w", invoiceID, err)
	}

	s.mirrorInvoiceNote(ctx, invoiceID, newNote)
	return nil
}

// SetStop toggles the per-invoice opt-out that freezes all further reminders.
func (s *ReminderService) SetStop(ctx context.Context, invoiceID int64, stop bool) error {
	inv, err := s.saas.GetInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}

	newNote := ledger.SetStop(inv.InternalNote, stop)
	if newNote == inv.InternalNote {
		return nil
	}
	if err := s.saas.UpdateInvoiceNote(ctx, invoiceID, newNote); err != nil {
		return fmt.Errorf("failed to update invoice %d note: %w", invoiceID, err)
	}

	s.mirrorInvoiceNote(ctx, invoiceID, newNote)
	return nil
}

func (s *ReminderService) mirrorInvoiceNote(ctx context.Context, invoiceID int64, note string) {
	l, _ := ledger.Parse(note)
	hasThird := l != nil && l.HasThirdLevelReminder()
	err := s.repomanager.Invoices(s.db).UpdateNote(ctx, invoiceID, note, hasThird)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "failed to mirror invoice note", "invoice_id", invoiceID, "error", err)
	}
}

// pause sleeps the configured delay between consecutive SaaS writes.
func (s *ReminderService) pause(ctx context.Context) error {
	if s.writeDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.writeDelay):
		return nil
	}
}

// recipient picks the channel-specific address from the client record.
func recipient(c *models.Client, ch ledger.Channel) string {
	if ch == ledger.ChannelEmail {
		return c.Email
	}
	return c.Phone
}
