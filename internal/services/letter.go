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
	"windykator/internal/models"
	"windykator/internal/repositories/repomanager"
)

// LetterStore archives registered-letter documents. *letterarchive.Archive
// satisfies it.
type LetterStore interface {
	Store(ctx context.Context, invoiceID int64, doc []byte, contentType string) (string, error)
	PresignedGetURL(ctx context.Context, key string) (string, error)
}

// LetterCandidate is one client due the registered-letter escalation, with
// the invoices that made them qualify.
type LetterCandidate struct {
	Client      *models.Client    `json:"client"`
	Invoices    []*models.Invoice `json:"invoices"`
	Outstanding float64           `json:"outstanding"`
}

// LetterService manages the registered-letter stage of the workflow.
type LetterService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	saas        SaaSClient
	store       LetterStore
	engine      *eligibility.Engine
	logger      logging.Logger
}

// NewLetterService constructs a LetterService.
func NewLetterService(db *sql.DB, m repomanager.RepositoryManager, saas SaaSClient,
	store LetterStore, engine *eligibility.Engine, logger logging.Logger) *LetterService {
	return &LetterService{db: db, repomanager: m, saas: saas, store: store, engine: engine, logger: logger}
}

// Candidates returns every client currently due a registered letter,
// evaluated over the local mirror. Only clients holding an invoice with the
// materialized third-reminder flag can qualify, so the scan starts there
// instead of walking every client.
func (s *LetterService) Candidates(ctx context.Context) ([]*LetterCandidate, error) {
	invRepo := s.repomanager.Invoices(s.db)
	flagged, err := invRepo.ListWithThirdReminder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalated invoices: %w", err)
	}

	clientRepo := s.repomanager.Clients(s.db)
	seen := make(map[int64]bool)
	var result []*LetterCandidate
	for _, escalated := range flagged {
		if seen[escalated.ClientID] {
			continue
		}
		seen[escalated.ClientID] = true

		client, err := clientRepo.Get(ctx, escalated.ClientID)
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "escalated invoice references unmirrored client",
				"invoice_id", escalated.ID, "client_id", escalated.ClientID)
			continue
		}
		if err != nil {
			return nil, err
		}

		invs, err := invRepo.ListByClient(ctx, client.ID)
		if err != nil {
			return nil, err
		}
		if !s.engine.QualifiesForLetterEscalation(client, invs) {
			continue
		}

		var qualifying []*models.Invoice
		for _, inv := range invs {
			if s.engine.QualifiesForThirdReminderEscalation(inv) {
				qualifying = append(qualifying, inv)
			}
		}
		result = append(result, &LetterCandidate{
			Client:      client,
			Invoices:    qualifying,
			Outstanding: eligibility.ClientOutstanding(invs),
		})
	}
	return result, nil
}

// MarkSent records a dispatched registered letter: every listed invoice gets
// the sent status with the given date, the client's letter flag is raised,
// and an optional scanned document is archived. Returns the storage key of
// the archived document, if any.
func (s *LetterService) MarkSent(ctx context.Context, clientID int64, invoiceIDs []int64,
	date time.Time, doc []byte, contentType string) (string, error) {
	if len(invoiceIDs) == 0 {
		return "", errors.New("no invoices given")
	}

	for _, id := range invoiceIDs {
		if err := s.rewriteInvoice(ctx, id, func(note string) string {
			return ledger.SetLetterSent(note, date)
		}); err != nil {
			return "", err
		}
	}

	if err := s.setClientLetterFlag(ctx, clientID); err != nil {
		return "", err
	}

	var key string
	if len(doc) > 0 {
		var err error
		key, err = s.store.Store(ctx, invoiceIDs[0], doc, contentType)
		if err != nil {
			// The workflow state is already recorded; losing the scan copy
			// is recoverable by re-uploading.
			s.logger.Error(ctx, "failed to archive letter document", "client_id", clientID, "error", err)
		}
	}
	return key, nil
}

// MarkIgnored excludes an invoice from letter escalation. An already-sent
// invoice keeps its send date so the collections clock is not reset on a
// later restore.
func (s *LetterService) MarkIgnored(ctx context.Context, invoiceID int64, now time.Time) error {
	return s.rewriteInvoice(ctx, invoiceID, func(note string) string {
		preserveDate := ledger.ParseLetter(note).Status == ledger.LetterSent
		return ledger.SetLetterIgnored(note, preserveDate, now)
	})
}

// Restore puts an ignored invoice back into the awaiting-letter bucket.
// It undoes the ignore, not the send.
func (s *LetterService) Restore(ctx context.Context, invoiceID int64) error {
	return s.rewriteInvoice(ctx, invoiceID, ledger.SetLetterRestored)
}

// DocumentURL returns a short-lived download URL for an archived letter.
func (s *LetterService) DocumentURL(ctx context.Context, key string) (string, error) {
	return s.store.PresignedGetURL(ctx, key)
}

// rewriteInvoice applies a note transformation SaaS-first, then mirrors.
func (s *LetterService) rewriteInvoice(ctx context.Context, invoiceID int64, fn func(string) string) error {
	inv, err := s.saas.GetInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}

	newNote := fn(inv.InternalNote)
	if newNote == inv.InternalNote {
		return nil
	}
	if err := s.saas.UpdateInvoiceNote(ctx, invoiceID, newNote); err != nil {
		return fmt.Errorf("failed to update invoice %d note: %w", invoiceID, err)
	}

	l, _ := ledger.Parse(newNote)
	hasThird := l != nil && l.HasThirdLevelReminder()
	err = s.repomanager.Invoices(s.db).UpdateNote(ctx, invoiceID, newNote, hasThird)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "failed to mirror invoice note", "invoice_id", invoiceID, "error", err)
	}
	return nil
}

func (s *LetterService) setClientLetterFlag(ctx context.Context, clientID int64) error {
	client, err := s.saas.GetClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to fetch client %d: %w", clientID, err)
	}

	yes := true
	newNote := clientflags.Apply(client.Note, clientflags.Update{ListPolecony: &yes})
	if newNote == client.Note {
		return nil
	}
	if err := s.saas.UpdateClientNote(ctx, clientID, newNote); err != nil {
		return fmt.Errorf("failed to update client %d note: %w", clientID, err)
	}

	err = s.repomanager.Clients(s.db).UpdateNote(ctx, clientID, newNote)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "failed to mirror client note", "client_id", clientID, "error", err)
	}
	return nil
}
