package clients

import (
	"context"

	"windykator/internal/models"
)

// Repository is the mirror-store interface for client rows.
type Repository interface {
	// Upsert mirrors a client row from the SaaS.
	Upsert(ctx context.Context, client *models.Client) error

	// Get returns one client or common.ErrorNotFound.
	Get(ctx context.Context, id int64) (*models.Client, error)

	// List returns all mirrored clients ordered by id.
	List(ctx context.Context) ([]*models.Client, error)

	// UpdateNote rewrites only the note column.
	UpdateNote(ctx context.Context, id int64, note string) error
}
