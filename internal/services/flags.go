package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"windykator/internal/clientflags"
	"windykator/internal/common"
	"windykator/internal/logging"
	"windykator/internal/models"
	"windykator/internal/repositories/repomanager"
)

// FlagService reads and rewrites the workflow flags in client notes.
type FlagService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	saas        SaaSClient
	logger      logging.Logger
}

// NewFlagService constructs a FlagService.
func NewFlagService(db *sql.DB, m repomanager.RepositoryManager, saas SaaSClient, logger logging.Logger) *FlagService {
	return &FlagService{db: db, repomanager: m, saas: saas, logger: logger}
}

// ListClients returns every mirrored client.
func (s *FlagService) ListClients(ctx context.Context) ([]*models.Client, error) {
	return s.repomanager.Clients(s.db).List(ctx)
}

// GetFlags returns the parsed flags of a client from the local mirror.
func (s *FlagService) GetFlags(ctx context.Context, clientID int64) (clientflags.Flags, error) {
	client, err := s.repomanager.Clients(s.db).Get(ctx, clientID)
	if err != nil {
		return clientflags.Flags{}, err
	}
	return clientflags.Parse(client.Note), nil
}

// SetFlags applies a partial flag update to the client's note. The note is
// re-read from the SaaS so concurrent manual edits are kept; the SaaS write
// happens first and a mirror failure afterwards is logged, not returned.
func (s *FlagService) SetFlags(ctx context.Context, clientID int64, upd clientflags.Update) (clientflags.Flags, error) {
	client, err := s.saas.GetClient(ctx, clientID)
	if err != nil {
		return clientflags.Flags{}, fmt.Errorf("failed to fetch client %d: %w", clientID, err)
	}

	newNote := clientflags.Apply(client.Note, upd)
	if newNote != client.Note {
		if err := s.saas.UpdateClientNote(ctx, clientID, newNote); err != nil {
			return clientflags.Flags{}, fmt.Errorf("failed to update client %d note: %w", clientID, err)
		}
		s.mirrorClientNote(ctx, clientID, newNote)
	}

	return clientflags.Parse(newNote), nil
}

// mirrorClientNote propagates an already-accepted SaaS write to the mirror.
// A row missing from the mirror just means the next full sync will pick it up.
func (s *FlagService) mirrorClientNote(ctx context.Context, clientID int64, note string) {
	err := s.repomanager.Clients(s.db).UpdateNote(ctx, clientID, note)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "failed to mirror client note", "client_id", clientID, "error", err)
	}
}
