// Package clients provides the PostgreSQL-backed repository mirroring
// client rows from the invoicing SaaS.
package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"windykator/internal/common"
	"windykator/internal/dbx"
	"windykator/internal/models"
)

// PostgresRepository implements client storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert mirrors a client row by id, overwriting all mirrored columns.
func (r *PostgresRepository) Upsert(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (id, name, email, phone, note, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at;
	`
	_, err := r.db.ExecContext(ctx, query,
		client.ID, client.Name, client.Email, client.Phone, client.Note, client.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns one client row or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT id, name, email, phone, note, updated_at FROM clients WHERE id = $1`

	var item models.Client
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Email, &item.Phone, &item.Note, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &item, nil
}

// List returns all mirrored clients ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Client, error) {
	query := `SELECT id, name, email, phone, note, updated_at FROM clients ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select clients: %w", err)
	}
	defer rows.Close()

	var result []*models.Client
	for rows.Next() {
		var item models.Client
		if err := rows.Scan(&item.ID, &item.Name, &item.Email, &item.Phone, &item.Note, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateNote rewrites only the note column of an existing row.
func (r *PostgresRepository) UpdateNote(ctx context.Context, id int64, note string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE clients SET note = $2 WHERE id = $1`, id, note)
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
