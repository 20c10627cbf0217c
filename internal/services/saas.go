// Package services contains the back-office business logic: client flag
// management, reminder runs, registered-letter escalation, and the
// collections handoff. Writes always go to the invoicing SaaS first; the
// local mirror follows and a mirror failure never masks a SaaS success.
package services

import (
	"context"

	"windykator/internal/fakturownia"
	"windykator/internal/models"
)

// SaaSClient is the slice of the invoicing SaaS API the services need.
// *fakturownia.Client satisfies it.
type SaaSClient interface {
	GetAllClients(ctx context.Context) ([]*models.Client, error)
	GetAllInvoices(ctx context.Context) (*fakturownia.InvoicePage, error)
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	GetInvoice(ctx context.Context, id int64) (*models.Invoice, error)
	UpdateClientNote(ctx context.Context, id int64, note string) error
	UpdateInvoiceNote(ctx context.Context, id int64, internalNote string) error
}

var _ SaaSClient = (*fakturownia.Client)(nil)
