// internal/repository/postgres/observation_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/Haffner32/hackathon-restock-ai/internal/repository"
)

type observationRepository struct {
	db *DB
}

func NewObservationRepository(db *DB) repository.ObservationRepository {
	return &observationRepository{db: db}
}

// UpsertObservations writes readings in one transaction. A re-ingested
// reading for the same item and timestamp overwrites the stored quantity,
// so replaying a sheet is idempotent.
func (r *observationRepository) UpsertObservations(ctx context.Context, obs []domain.StockObservation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO stock_observations (item_id, observed_at, on_hand)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id, observed_at)
		DO UPDATE SET on_hand = EXCLUDED.on_hand
	`

	count := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, o := range obs {
			if _, err := stmt.ExecContext(ctx, o.ItemID, o.Timestamp, o.OnHand); err != nil {
				return fmt.Errorf("failed to upsert observation for %s: %w", o.ItemID, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *observationRepository) GetSeries(ctx context.Context, itemID string) ([]domain.StockObservation, error) {
	query := `
		SELECT item_id, observed_at, on_hand
		FROM stock_observations
		WHERE item_id = $1
		ORDER BY observed_at ASC
	`

	var obs []domain.StockObservation
	if err := r.db.SelectContext(ctx, &obs, query, itemID); err != nil {
		return nil, fmt.Errorf("error loading series for %s: %w", itemID, err)
	}
	return obs, nil
}

func (r *observationRepository) GetAllSeries(ctx context.Context) (map[string][]domain.StockObservation, error) {
	query := `
		SELECT item_id, observed_at, on_hand
		FROM stock_observations
		ORDER BY item_id, observed_at ASC
	`

	var obs []domain.StockObservation
	if err := r.db.SelectContext(ctx, &obs, query); err != nil {
		return nil, fmt.Errorf("error loading all series: %w", err)
	}

	series := make(map[string][]domain.StockObservation)
	for _, o := range obs {
		series[o.ItemID] = append(series[o.ItemID], o)
	}
	return series, nil
}

func (r *observationRepository) ListItems(ctx context.Context) ([]domain.Item, error) {
	query := `
		SELECT
			item_id,
			COUNT(*) AS observations,
			MIN(observed_at) AS first_seen,
			MAX(observed_at) AS last_seen,
			(ARRAY_AGG(on_hand ORDER BY observed_at DESC))[1] AS latest_on_hand
		FROM stock_observations
		GROUP BY item_id
		ORDER BY item_id
	`

	var items []domain.Item
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("error listing items: %w", err)
	}
	return items, nil
}
