package engine

import (
	"testing"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/stretchr/testify/assert"
)

func steadyPoints(daily float64, n int) []domain.ConsumptionPoint {
	points := make([]domain.ConsumptionPoint, n)
	for i := range points {
		points[i] = domain.ConsumptionPoint{Timestamp: day(i + 1), Consumed: daily}
	}
	return points
}

func pair(seasonal, reactive float64) *ForecastPair {
	return &ForecastPair{
		Seasonal: domain.ForecastResult{Model: domain.ModelSeasonal, HorizonDays: 30, PredictedTotal: seasonal},
		Reactive: domain.ForecastResult{Model: domain.ModelReactive, HorizonDays: 30, PredictedTotal: reactive},
	}
}

func TestResolveFallbackDominance(t *testing.T) {
	// Both raw forecasts wildly negative: the historical average governs.
	d := Resolve("widget", pair(-1e9, -1e9), steadyPoints(10, 5), 0, time.Now())

	assert.Equal(t, 300.0, d.FallbackFloor)
	assert.Equal(t, 300.0, d.SeasonalForecast)
	assert.Equal(t, 300.0, d.ReactiveForecast)
	assert.Equal(t, 300.0, d.OrderQuantity)
}

func TestResolveOrderNeverNegative(t *testing.T) {
	// Stock on hand exceeds every signal: recommend zero, not negative.
	d := Resolve("widget", pair(-500, -200), steadyPoints(0, 5), 1000, time.Now())

	assert.Equal(t, 0.0, d.OrderQuantity)
	assert.Equal(t, 0.0, d.FallbackFloor)
}

func TestResolveSubtractsCurrentStock(t *testing.T) {
	d := Resolve("widget", pair(300, 100), steadyPoints(0, 5), 40, time.Now())

	assert.Equal(t, 260.0, d.OrderQuantity)
	assert.Equal(t, 40.0, d.CurrentStock)
	assert.Equal(t, domain.ModelSeasonal, d.WinningModel)
}

func TestResolveTieFavorsReactive(t *testing.T) {
	d := Resolve("widget", pair(250, 250), steadyPoints(0, 5), 0, time.Now())

	assert.Equal(t, domain.ModelReactive, d.WinningModel)
	assert.Contains(t, d.Rationale(), "anomaly")
}

func TestResolveFlooredTieFavorsReactive(t *testing.T) {
	// Both forecasts below the floor collapse to the same final value.
	d := Resolve("widget", pair(-10, -90), steadyPoints(10, 5), 0, time.Now())

	assert.Equal(t, domain.ModelReactive, d.WinningModel)
}

func TestResolveReactiveSpikeWins(t *testing.T) {
	d := Resolve("widget", pair(100, 900), steadyPoints(1, 5), 50, time.Now())

	assert.Equal(t, domain.ModelReactive, d.WinningModel)
	assert.Equal(t, 850.0, d.OrderQuantity)
	assert.Contains(t, d.Rationale(), "anomaly")
}

func TestResolveSeasonalRationale(t *testing.T) {
	d := Resolve("widget", pair(900, 100), steadyPoints(1, 5), 0, time.Now())

	assert.Equal(t, domain.ModelSeasonal, d.WinningModel)
	assert.Contains(t, d.Rationale(), "seasonal")
}
