// internal/engine/resolver.go
package engine

import (
	"math"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
)

// Resolve converts the two raw forecasts into a single non-negative order
// recommendation. Each forecast is floored by the historical-average
// fallback so a degenerate (low or negative) prediction can never drag the
// order below what the item's own history implies, then the larger of the
// two governs: whichever signal implies more future need wins, so the
// recommendation never under-orders relative to either model. Ties go to
// the reactive model.
func Resolve(itemID string, pair *ForecastPair, points []domain.ConsumptionPoint, currentStock float64, now time.Time) domain.RestockDecision {
	avgDaily := AverageDailyConsumption(points)
	floor := avgDaily * float64(pair.Seasonal.HorizonDays)

	seasonalFinal := math.Max(pair.Seasonal.PredictedTotal, floor)
	reactiveFinal := math.Max(pair.Reactive.PredictedTotal, floor)

	finalNeed := math.Max(seasonalFinal, reactiveFinal)
	orderQty := math.Max(0, finalNeed-currentStock)

	winner := domain.ModelReactive
	if seasonalFinal > reactiveFinal {
		winner = domain.ModelSeasonal
	}

	return domain.RestockDecision{
		ItemID:           itemID,
		SeasonalForecast: seasonalFinal,
		ReactiveForecast: reactiveFinal,
		FallbackFloor:    floor,
		CurrentStock:     currentStock,
		OrderQuantity:    orderQty,
		WinningModel:     winner,
		DecidedAt:        now,
	}
}
