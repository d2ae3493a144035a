// internal/repository/postgres/decision_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/Haffner32/hackathon-restock-ai/internal/repository"
)

type decisionRepository struct {
	db *DB
}

func NewDecisionRepository(db *DB) repository.DecisionRepository {
	return &decisionRepository{db: db}
}

func (r *decisionRepository) InsertDecision(ctx context.Context, d domain.RestockDecision) error {
	query := `
		INSERT INTO restock_decisions
			(item_id, seasonal_forecast, reactive_forecast, fallback_floor,
			 current_stock, order_quantity, winning_model, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		d.ItemID,
		d.SeasonalForecast,
		d.ReactiveForecast,
		d.FallbackFloor,
		d.CurrentStock,
		d.OrderQuantity,
		d.WinningModel,
		d.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision for %s: %w", d.ItemID, err)
	}
	return nil
}

func (r *decisionRepository) LatestDecision(ctx context.Context, itemID string) (*domain.RestockDecision, error) {
	query := `
		SELECT item_id, seasonal_forecast, reactive_forecast, fallback_floor,
		       current_stock, order_quantity, winning_model, decided_at
		FROM restock_decisions
		WHERE item_id = $1
		ORDER BY decided_at DESC
		LIMIT 1
	`

	var d domain.RestockDecision
	if err := r.db.GetContext(ctx, &d, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading latest decision for %s: %w", itemID, err)
	}
	return &d, nil
}

func (r *decisionRepository) DecisionHistory(ctx context.Context, itemID string, since time.Time) ([]domain.RestockDecision, error) {
	query := `
		SELECT item_id, seasonal_forecast, reactive_forecast, fallback_floor,
		       current_stock, order_quantity, winning_model, decided_at
		FROM restock_decisions
		WHERE item_id = $1 AND decided_at >= $2
		ORDER BY decided_at ASC
	`

	var history []domain.RestockDecision
	if err := r.db.SelectContext(ctx, &history, query, itemID, since); err != nil {
		return nil, fmt.Errorf("error loading decision history for %s: %w", itemID, err)
	}
	return history, nil
}
