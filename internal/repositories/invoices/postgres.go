// Package invoices provides the PostgreSQL-backed repository mirroring
// invoice rows from the invoicing SaaS, including the materialized
// has_third_reminder column.
package invoices

import (
	"context"
	"fmt"

	"windykator/internal/common"
	"windykator/internal/dbx"
	"windykator/internal/models"
)

const selectColumns = `id, client_id, number, status, kind, price_gross, paid,
	internal_note, has_third_reminder, issued_at, updated_at`

// PostgresRepository implements invoice storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert mirrors an invoice row by id, overwriting all mirrored columns.
func (r *PostgresRepository) Upsert(ctx context.Context, invoice *models.Invoice) error {
	query := `
		INSERT INTO invoices (id, client_id, number, status, kind, price_gross, paid,
			internal_note, has_third_reminder, issued_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id)
		DO UPDATE SET
			client_id = EXCLUDED.client_id,
			number = EXCLUDED.number,
			status = EXCLUDED.status,
			kind = EXCLUDED.kind,
			price_gross = EXCLUDED.price_gross,
			paid = EXCLUDED.paid,
			internal_note = EXCLUDED.internal_note,
			has_third_reminder = EXCLUDED.has_third_reminder,
			issued_at = EXCLUDED.issued_at,
			updated_at = EXCLUDED.updated_at;
	`
	_, err := r.db.ExecContext(ctx, query,
		invoice.ID, invoice.ClientID, invoice.Number, invoice.Status, invoice.Kind,
		invoice.PriceGross, invoice.Paid, invoice.InternalNote, invoice.HasThirdReminder,
		invoice.IssuedAt, invoice.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByClient returns the client's invoices ordered by id.
func (r *PostgresRepository) ListByClient(ctx context.Context, clientID int64) ([]*models.Invoice, error) {
	query := `SELECT ` + selectColumns + ` FROM invoices WHERE client_id = $1 ORDER BY id`
	return r.list(ctx, query, clientID)
}

// ListOutstanding returns invoices that still carry debt.
func (r *PostgresRepository) ListOutstanding(ctx context.Context) ([]*models.Invoice, error) {
	query := `SELECT ` + selectColumns + ` FROM invoices
		WHERE status <> 'paid' AND kind <> 'canceled' AND price_gross - paid > 0
		ORDER BY id`
	return r.list(ctx, query)
}

// ListWithThirdReminder returns invoices with the materialized level-3 flag
// set. The column may transiently trail the note; callers recompute from
// the ledger when it matters.
func (r *PostgresRepository) ListWithThirdReminder(ctx context.Context) ([]*models.Invoice, error) {
	query := `SELECT ` + selectColumns + ` FROM invoices WHERE has_third_reminder ORDER BY id`
	return r.list(ctx, query)
}

// UpdateNote rewrites the internal note and its derived column together.
func (r *PostgresRepository) UpdateNote(ctx context.Context, id int64, internalNote string, hasThirdReminder bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET internal_note = $2, has_third_reminder = $3 WHERE id = $1`,
		id, internalNote, hasThirdReminder)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select invoices: %w", err)
	}
	defer rows.Close()

	var result []*models.Invoice
	for rows.Next() {
		item, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanInvoice(scan func(dest ...any) error) (*models.Invoice, error) {
	var item models.Invoice
	err := scan(
		&item.ID, &item.ClientID, &item.Number, &item.Status, &item.Kind,
		&item.PriceGross, &item.Paid, &item.InternalNote, &item.HasThirdReminder,
		&item.IssuedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
