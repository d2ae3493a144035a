// internal/domain/models.go
package domain

import "time"

// StockObservation is a single recorded on-hand reading for an item.
// Observations are immutable once ingested; a series must be sorted by
// ascending timestamp before it enters the engine.
type StockObservation struct {
	ItemID    string    `json:"item_id" db:"item_id"`
	Timestamp time.Time `json:"timestamp" db:"observed_at"`
	OnHand    float64   `json:"on_hand" db:"on_hand"`
}

// ConsumptionPoint is the inferred burn for one day, derived from two
// consecutive observations. Consumed is never negative: a stock increase
// is a replenishment event, not negative demand, and is clamped to zero.
type ConsumptionPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Consumed  float64   `json:"consumed"`
}

// ForecastResult is the output of one model fit: the sum of predicted
// daily demand over the horizon. The total is a raw sum; individual daily
// predictions may be negative and are not clamped here.
type ForecastResult struct {
	Model          string  `json:"model"`
	HorizonDays    int     `json:"horizon_days"`
	PredictedTotal float64 `json:"predicted_total"`
}

// Winning model labels for RestockDecision.WinningModel.
const (
	ModelSeasonal = "seasonal"
	ModelReactive = "reactive"
)

// RestockDecision is the terminal output of a run for one item. It is
// constructed once and never mutated.
type RestockDecision struct {
	ItemID           string    `json:"item_id" db:"item_id"`
	SeasonalForecast float64   `json:"seasonal_forecast" db:"seasonal_forecast"`
	ReactiveForecast float64   `json:"reactive_forecast" db:"reactive_forecast"`
	FallbackFloor    float64   `json:"fallback_floor" db:"fallback_floor"`
	CurrentStock     float64   `json:"current_stock" db:"current_stock"`
	OrderQuantity    float64   `json:"order_quantity" db:"order_quantity"`
	WinningModel     string    `json:"winning_model" db:"winning_model"`
	DecidedAt        time.Time `json:"decided_at" db:"decided_at"`
}

// Rationale renders the human-readable explanation of which signal
// governed the order.
func (d RestockDecision) Rationale() string {
	if d.WinningModel == ModelSeasonal {
		return "ordering on the seasonal baseline forecast to prevent stockouts"
	}
	return "ordering on the recent anomaly forecast to prevent stockouts"
}

// FittedPoint is one predicted daily value from the seasonal model's
// future series, exposed for charting.
type FittedPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Predicted float64   `json:"predicted"`
}

// ItemAnalysis is everything the presentation layer needs for one item:
// the decision plus the cleaned history and the seasonal fitted future.
type ItemAnalysis struct {
	Decision     RestockDecision    `json:"decision"`
	History      []ConsumptionPoint `json:"history"`
	FittedFuture []FittedPoint      `json:"fitted_future"`
}

// Item summarizes one tracked item for listing endpoints.
type Item struct {
	ItemID       string    `json:"item_id" db:"item_id"`
	Observations int       `json:"observations" db:"observations"`
	FirstSeen    time.Time `json:"first_seen" db:"first_seen"`
	LastSeen     time.Time `json:"last_seen" db:"last_seen"`
	LatestOnHand float64   `json:"latest_on_hand" db:"latest_on_hand"`
}
