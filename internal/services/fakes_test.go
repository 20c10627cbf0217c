package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"windykator/internal/common"
	"windykator/internal/dbx"
	"windykator/internal/fakturownia"
	"windykator/internal/logging"
	"windykator/internal/messaging"
	"windykator/internal/models"
	"windykator/internal/repositories/clients"
	"windykator/internal/repositories/invoices"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeSaaS is an in-memory stand-in for the invoicing SaaS. NoteUpdates
// records write order for asserting SaaS-first semantics.
type fakeSaaS struct {
	clients  map[int64]*models.Client
	invoices map[int64]*models.Invoice

	ClientNoteUpdates  []int64
	InvoiceNoteUpdates []int64

	FailClientUpdate  bool
	FailInvoiceUpdate bool

	ExternalSends map[int64]time.Time
}

func newFakeSaaS() *fakeSaaS {
	return &fakeSaaS{
		clients:  map[int64]*models.Client{},
		invoices: map[int64]*models.Invoice{},
	}
}

func (f *fakeSaaS) GetAllClients(ctx context.Context) ([]*models.Client, error) {
	var out []*models.Client
	for _, c := range f.clients {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeSaaS) GetAllInvoices(ctx context.Context) (*fakturownia.InvoicePage, error) {
	page := &fakturownia.InvoicePage{ExternalSends: f.ExternalSends}
	if page.ExternalSends == nil {
		page.ExternalSends = map[int64]time.Time{}
	}
	for _, inv := range f.invoices {
		page.Invoices = append(page.Invoices, inv)
	}
	return page, nil
}

func (f *fakeSaaS) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeSaaS) GetInvoice(ctx context.Context, id int64) (*models.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeSaaS) UpdateClientNote(ctx context.Context, id int64, note string) error {
	if f.FailClientUpdate {
		return fmt.Errorf("%w: gateway timeout", common.ErrSaaSWrite)
	}
	c, ok := f.clients[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.Note = note
	f.ClientNoteUpdates = append(f.ClientNoteUpdates, id)
	return nil
}

func (f *fakeSaaS) UpdateInvoiceNote(ctx context.Context, id int64, internalNote string) error {
	if f.FailInvoiceUpdate {
		return fmt.Errorf("%w: gateway timeout", common.ErrSaaSWrite)
	}
	inv, ok := f.invoices[id]
	if !ok {
		return common.ErrorNotFound
	}
	inv.InternalNote = internalNote
	f.InvoiceNoteUpdates = append(f.InvoiceNoteUpdates, id)
	return nil
}

// fakeClientRepo / fakeInvoiceRepo are in-memory mirror repositories.
type fakeClientRepo struct {
	rows map[int64]*models.Client
}

func (r *fakeClientRepo) Upsert(ctx context.Context, c *models.Client) error {
	cp := *c
	r.rows[c.ID] = &cp
	return nil
}

func (r *fakeClientRepo) Get(ctx context.Context, id int64) (*models.Client, error) {
	c, ok := r.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClientRepo) List(ctx context.Context) ([]*models.Client, error) {
	var out []*models.Client
	for _, c := range r.rows {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeClientRepo) UpdateNote(ctx context.Context, id int64, note string) error {
	c, ok := r.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.Note = note
	return nil
}

type fakeInvoiceRepo struct {
	rows map[int64]*models.Invoice
}

func (r *fakeInvoiceRepo) Upsert(ctx context.Context, inv *models.Invoice) error {
	cp := *inv
	r.rows[inv.ID] = &cp
	return nil
}

func (r *fakeInvoiceRepo) ListByClient(ctx context.Context, clientID int64) ([]*models.Invoice, error) {
	var out []*models.Invoice
	for _, inv := range r.rows {
		if inv.ClientID == clientID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) ListOutstanding(ctx context.Context) ([]*models.Invoice, error) {
	var out []*models.Invoice
	for _, inv := range r.rows {
		if inv.Status != models.StatusPaid && inv.Kind != models.KindCanceled && inv.Outstanding() > 0 {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) ListWithThirdReminder(ctx context.Context) ([]*models.Invoice, error) {
	var out []*models.Invoice
	for _, inv := range r.rows {
		if inv.HasThirdReminder {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) UpdateNote(ctx context.Context, id int64, internalNote string, hasThirdReminder bool) error {
	inv, ok := r.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	inv.InternalNote = internalNote
	inv.HasThirdReminder = hasThirdReminder
	return nil
}

// fakeRepoManager vends the in-memory repositories regardless of the DBTX.
type fakeRepoManager struct {
	clientRepo  *fakeClientRepo
	invoiceRepo *fakeInvoiceRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		clientRepo:  &fakeClientRepo{rows: map[int64]*models.Client{}},
		invoiceRepo: &fakeInvoiceRepo{rows: map[int64]*models.Invoice{}},
	}
}

func (m *fakeRepoManager) Clients(db dbx.DBTX) clients.Repository { return m.clientRepo }
func (m *fakeRepoManager) Invoices(db dbx.DBTX) invoices.Repository { return m.invoiceRepo }
func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

// fakeSender records dispatched messages.
type fakeSender struct {
	sent []messaging.Message
	fail bool
}

func (s *fakeSender) Send(ctx context.Context, msg messaging.Message) error {
	if s.fail {
		return errors.New("gateway down")
	}
	s.sent = append(s.sent, msg)
	return nil
}
