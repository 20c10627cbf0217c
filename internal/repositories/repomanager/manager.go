package repomanager

import (
	"context"
	"database/sql"

	"windykator/internal/dbx"
	"windykator/internal/repositories/clients"
	"windykator/internal/repositories/invoices"
)

// RepositoryManager vends repository implementations bound to a DBTX and
// exposes the schema migration hook. Services take a manager plus a *sql.DB
// so transactional flows can rebind repositories onto a transaction.
type RepositoryManager interface {
	Clients(db dbx.DBTX) clients.Repository
	Invoices(db dbx.DBTX) invoices.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
