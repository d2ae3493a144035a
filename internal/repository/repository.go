// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
)

// ObservationRepository stores the raw stock-level readings per item.
type ObservationRepository interface {
	UpsertObservations(ctx context.Context, obs []domain.StockObservation) (int, error)
	GetSeries(ctx context.Context, itemID string) ([]domain.StockObservation, error)
	GetAllSeries(ctx context.Context) (map[string][]domain.StockObservation, error)
	ListItems(ctx context.Context) ([]domain.Item, error)
}

// DecisionRepository keeps a history of produced restock decisions so the
// dashboard can show how recommendations moved over time.
type DecisionRepository interface {
	InsertDecision(ctx context.Context, d domain.RestockDecision) error
	LatestDecision(ctx context.Context, itemID string) (*domain.RestockDecision, error)
	DecisionHistory(ctx context.Context, itemID string, since time.Time) ([]domain.RestockDecision, error)
}
