// Package syncer pulls the full client and invoice sets from the invoicing
// SaaS into the local PostgreSQL mirror and reconciles note-ledger state
// along the way.
package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"windykator/internal/ledger"
	"windykator/internal/logging"
	"windykator/internal/models"
	"windykator/internal/repositories/repomanager"
	"windykator/internal/services"
)

// Report summarizes one sync pass.
type Report struct {
	Clients      int `json:"clients"`
	Invoices     int `json:"invoices"`
	NotesUpdated int `json:"notes_updated"`
	Duplicates   int `json:"duplicates"`
	Errors       int `json:"errors"`
}

// Syncer mirrors SaaS data locally. One failing item is counted and skipped;
// the pass always runs to the end.
type Syncer struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	saas        services.SaaSClient
	logger      logging.Logger
}

// New constructs a Syncer.
func New(db *sql.DB, m repomanager.RepositoryManager, saas services.SaaSClient, logger logging.Logger) *Syncer {
	return &Syncer{db: db, repomanager: m, saas: saas, logger: logger}
}

// Sync runs one full pass: clients first, then invoices.
func (s *Syncer) Sync(ctx context.Context, now time.Time) (*Report, error) {
	report := &Report{}

	if err := s.syncClients(ctx, report); err != nil {
		return nil, err
	}
	if err := s.syncInvoices(ctx, now, report); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "sync finished",
		"clients", report.Clients, "invoices", report.Invoices,
		"notes_updated", report.NotesUpdated, "duplicates", report.Duplicates, "errors", report.Errors)
	return report, nil
}

func (s *Syncer) syncClients(ctx context.Context, report *Report) error {
	clients, err := s.saas.GetAllClients(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch clients: %w", err)
	}

	repo := s.repomanager.Clients(s.db)
	for _, client := range clients {
		if err := repo.Upsert(ctx, client); err != nil {
			report.Errors++
			s.logger.Error(ctx, "failed to mirror client", "client_id", client.ID, "error", err)
			continue
		}
		report.Clients++
	}
	return nil
}

func (s *Syncer) syncInvoices(ctx context.Context, now time.Time, report *Report) error {
	page, err := s.saas.GetAllInvoices(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch invoices: %w", err)
	}

	repo := s.repomanager.Invoices(s.db)
	byHash := make(map[string][]int64, len(page.Invoices))
	for _, inv := range page.Invoices {
		hash := ledger.ContentHash(inv.Number, inv.ClientID, inv.PriceGross)
		byHash[hash] = append(byHash[hash], inv.ID)

		note, changed := s.reconcileNote(ctx, inv, page.ExternalSends, now)
		if changed {
			if err := s.saas.UpdateInvoiceNote(ctx, inv.ID, note); err != nil {
				// The SaaS note is the system of record. Mirror what it still
				// holds; the next pass reconciles again.
				report.Errors++
				s.logger.Error(ctx, "failed to write reconciled note", "invoice_id", inv.ID, "error", err)
				note = inv.InternalNote
			} else {
				report.NotesUpdated++
			}
		}
		inv.InternalNote = note

		l, found := ledger.Parse(note)
		inv.HasThirdReminder = found && l.HasThirdLevelReminder()

		if err := repo.Upsert(ctx, inv); err != nil {
			report.Errors++
			s.logger.Error(ctx, "failed to mirror invoice", "invoice_id", inv.ID, "error", err)
			continue
		}
		report.Invoices++
	}

	s.reportDuplicates(ctx, byHash, report)
	return nil
}

// reportDuplicates flags invoices sharing a content hash, meaning the same
// number, client and gross amount was invoiced more than once. Detection is
// best-effort: duplicates are logged for the operator, never rewritten.
func (s *Syncer) reportDuplicates(ctx context.Context, byHash map[string][]int64, report *Report) {
	for hash, ids := range byHash {
		if len(ids) < 2 {
			continue
		}
		report.Duplicates += len(ids)
		s.logger.Warn(ctx, "invoices share identical content", "hash", hash, "invoice_ids", ids)
	}
}

// reconcileNote applies the two sync-time ledger fixups: synthesizing the
// level-1 email send from the SaaS's own delivery record, and re-stamping
// the content hash when the invoice's identifying fields changed since
// reminders were recorded. Untouched notes come back verbatim.
func (s *Syncer) reconcileNote(ctx context.Context, inv *models.Invoice, externalSends map[int64]time.Time, now time.Time) (string, bool) {
	note := inv.InternalNote

	if at, ok := externalSends[inv.ID]; ok {
		note = ledger.InitializeFromExternalSend(note, true, at)
	}

	if l, found := ledger.Parse(note); found {
		hash := ledger.ContentHash(inv.Number, inv.ClientID, inv.PriceGross)
		if l.Hash != hash {
			if l.Hash != "" {
				s.logger.Warn(ctx, "invoice content changed since reminders were recorded",
					"invoice_id", inv.ID, "number", inv.Number)
			}
			note = ledger.SetVerification(note, hash, now)
		}
	}

	return note, note != inv.InternalNote
}
