package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"windykator/internal/eligibility"
	"windykator/internal/ledger"
	"windykator/internal/models"
	"windykator/internal/repositories/repomanager"
)

// CollectionsCandidate is one invoice ready for the external debt-collection
// agency.
type CollectionsCandidate struct {
	Invoice    *models.Invoice `json:"invoice"`
	Client     *models.Client  `json:"client"`
	LetterDate time.Time       `json:"letter_date"`
}

// CollectionsService finds invoices whose registered letter went unanswered
// long enough for the agency handoff.
type CollectionsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	engine      *eligibility.Engine
}

// NewCollectionsService constructs a CollectionsService.
func NewCollectionsService(db *sql.DB, m repomanager.RepositoryManager, engine *eligibility.Engine) *CollectionsService {
	return &CollectionsService{db: db, repomanager: m, engine: engine}
}

// Candidates returns the handoff-ready invoices with their clients attached.
func (s *CollectionsService) Candidates(ctx context.Context, now time.Time) ([]*CollectionsCandidate, error) {
	invs, err := s.repomanager.Invoices(s.db).ListOutstanding(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list outstanding invoices: %w", err)
	}

	clientRepo := s.repomanager.Clients(s.db)
	clientCache := map[int64]*models.Client{}

	var result []*CollectionsCandidate
	for _, inv := range invs {
		if !s.engine.QualifiesForCollectionsHandoff(inv, now) {
			continue
		}
		client, ok := clientCache[inv.ClientID]
		if !ok {
			client, err = clientRepo.Get(ctx, inv.ClientID)
			if err != nil {
				return nil, err
			}
			clientCache[inv.ClientID] = client
		}
		result = append(result, &CollectionsCandidate{
			Invoice:    inv,
			Client:     client,
			LetterDate: ledger.ParseLetter(inv.InternalNote).Date,
		})
	}
	return result, nil
}
