// internal/engine/consumption.go
package engine

import (
	"sort"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/montanaflynn/stats"
)

// ExtractConsumption turns a series of on-hand readings into a daily burn
// signal. For each adjacent pair, consumption is prev minus curr; negative
// deltas mean stock came in (a restock), so they are clamped to zero rather
// than read as negative demand. The first observation has no prior reading
// and yields no point.
func ExtractConsumption(itemID string, obs []domain.StockObservation) ([]domain.ConsumptionPoint, error) {
	sorted := make([]domain.StockObservation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	points := make([]domain.ConsumptionPoint, 0, len(sorted))
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i-1].OnHand - sorted[i].OnHand
		if delta < 0 {
			delta = 0
		}
		points = append(points, domain.ConsumptionPoint{
			Timestamp: sorted[i].Timestamp,
			Consumed:  delta,
		})
	}

	if len(points) < 2 {
		return nil, &domain.InsufficientDataError{ItemID: itemID, Points: len(points)}
	}

	return points, nil
}

// AverageDailyConsumption is the mean burn over the full cleaned history.
// An all-zero history is valid and yields 0.
func AverageDailyConsumption(points []domain.ConsumptionPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Consumed
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}
