package invoices

import (
	"context"

	"windykator/internal/models"
)

// Repository is the mirror-store interface for invoice rows.
type Repository interface {
	// Upsert mirrors an invoice row from the SaaS.
	Upsert(ctx context.Context, invoice *models.Invoice) error

	// ListByClient returns the client's invoices ordered by id.
	ListByClient(ctx context.Context, clientID int64) ([]*models.Invoice, error)

	// ListOutstanding returns all invoices that still carry debt
	// (unpaid, not canceled, positive outstanding amount).
	ListOutstanding(ctx context.Context) ([]*models.Invoice, error)

	// ListWithThirdReminder returns invoices whose materialized
	// has_third_reminder column is set.
	ListWithThirdReminder(ctx context.Context) ([]*models.Invoice, error)

	// UpdateNote rewrites the internal note together with the
	// materialized has_third_reminder column derived from it.
	UpdateNote(ctx context.Context, id int64, internalNote string, hasThirdReminder bool) error
}
