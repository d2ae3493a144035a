package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, time.January, n, 0, 0, 0, 0, time.UTC)
}

func observations(itemID string, onHand ...float64) []domain.StockObservation {
	obs := make([]domain.StockObservation, len(onHand))
	for i, v := range onHand {
		obs[i] = domain.StockObservation{ItemID: itemID, Timestamp: day(i + 1), OnHand: v}
	}
	return obs
}

func TestExtractConsumptionSteadyBurn(t *testing.T) {
	points, err := ExtractConsumption("widget", observations("widget", 100, 90, 80, 70))
	require.NoError(t, err)

	require.Len(t, points, 3)
	for _, p := range points {
		assert.Equal(t, 10.0, p.Consumed)
	}
	assert.Equal(t, 10.0, AverageDailyConsumption(points))
}

func TestExtractConsumptionClampsRestocks(t *testing.T) {
	// Day 2 shows a restock (+10), day 3 a sale (-20).
	points, err := ExtractConsumption("widget", observations("widget", 50, 60, 40))
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, 0.0, points[0].Consumed)
	assert.Equal(t, 20.0, points[1].Consumed)
}

func TestExtractConsumptionNeverNegative(t *testing.T) {
	// Alternating heavy restocks and sales must never yield a negative burn.
	points, err := ExtractConsumption("widget", observations("widget", 10, 500, 3, 999, 0, 1000, 12))
	require.NoError(t, err)

	for _, p := range points {
		assert.GreaterOrEqual(t, p.Consumed, 0.0)
	}
}

func TestExtractConsumptionSortsInput(t *testing.T) {
	obs := []domain.StockObservation{
		{ItemID: "widget", Timestamp: day(3), OnHand: 80},
		{ItemID: "widget", Timestamp: day(1), OnHand: 100},
		{ItemID: "widget", Timestamp: day(2), OnHand: 90},
	}

	points, err := ExtractConsumption("widget", obs)
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, 10.0, points[0].Consumed)
	assert.Equal(t, 10.0, points[1].Consumed)
	assert.True(t, points[0].Timestamp.Before(points[1].Timestamp))
}

func TestExtractConsumptionInsufficientData(t *testing.T) {
	for _, onHand := range [][]float64{{}, {100}, {100, 90}} {
		_, err := ExtractConsumption("widget", observations("widget", onHand...))
		var insufficientErr *domain.InsufficientDataError
		require.True(t, errors.As(err, &insufficientErr), "onHand=%v", onHand)
		assert.Equal(t, "widget", insufficientErr.ItemID)
	}
}

func TestAverageDailyConsumptionAllZero(t *testing.T) {
	points := []domain.ConsumptionPoint{
		{Timestamp: day(1), Consumed: 0},
		{Timestamp: day(2), Consumed: 0},
	}
	assert.Equal(t, 0.0, AverageDailyConsumption(points))
	assert.Equal(t, 0.0, AverageDailyConsumption(nil))
}
