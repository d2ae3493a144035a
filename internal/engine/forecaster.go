// internal/engine/forecaster.go
package engine

import (
	"context"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ModelOptions configures one forecasting model instance.
type ModelOptions struct {
	// YearlySeasonality enables the long-period seasonal component.
	YearlySeasonality bool
	// TrendFlexibility controls how quickly the trend bends to recent
	// changes. Higher values make the model more reactive.
	TrendFlexibility float64
}

// Model is the pluggable forecasting capability: fit on a consumption
// series, predict future daily values. Implementations must be
// deterministic for a fixed input.
type Model interface {
	Fit(points []domain.ConsumptionPoint) error
	Predict(days int) ([]domain.FittedPoint, error)
}

// ModelFactory builds a fresh model instance for a single fit.
type ModelFactory func(opts ModelOptions) Model

// ForecasterConfig carries the tuning knobs for the two horizons.
type ForecasterConfig struct {
	HorizonDays    int
	ReactiveWindow int
	SeasonalFlex   float64
	ReactiveFlex   float64
}

// DefaultForecasterConfig mirrors the production tuning: 30-day horizon,
// 30-point reactive window, 0.05 baseline flexibility, 0.5 reactive.
func DefaultForecasterConfig() ForecasterConfig {
	return ForecasterConfig{
		HorizonDays:    30,
		ReactiveWindow: 30,
		SeasonalFlex:   0.05,
		ReactiveFlex:   0.5,
	}
}

func (c ForecasterConfig) withDefaults() ForecasterConfig {
	d := DefaultForecasterConfig()
	if c.HorizonDays <= 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.ReactiveWindow <= 0 {
		c.ReactiveWindow = d.ReactiveWindow
	}
	if c.SeasonalFlex <= 0 {
		c.SeasonalFlex = d.SeasonalFlex
	}
	if c.ReactiveFlex <= 0 {
		c.ReactiveFlex = d.ReactiveFlex
	}
	return c
}

// DualHorizonForecaster produces two independent 30-day demand estimates:
// a seasonal one fit on the full history and a reactive one fit on only
// the most recent window.
type DualHorizonForecaster struct {
	factory ModelFactory
	cfg     ForecasterConfig
}

func NewDualHorizonForecaster(factory ModelFactory, cfg ForecasterConfig) *DualHorizonForecaster {
	return &DualHorizonForecaster{factory: factory, cfg: cfg.withDefaults()}
}

// ForecastPair holds both horizon results plus the seasonal model's fitted
// future series for charting.
type ForecastPair struct {
	Seasonal     domain.ForecastResult
	Reactive     domain.ForecastResult
	FittedFuture []domain.FittedPoint
}

// Forecast fits both models and sums their predicted daily demand over the
// horizon. The two fits have no data dependency and run in parallel; a
// failure of either aborts the pair with a ForecastFitError. Raw totals
// may be negative; clamping is the resolver's job.
func (f *DualHorizonForecaster) Forecast(ctx context.Context, itemID string, points []domain.ConsumptionPoint) (*ForecastPair, error) {
	window := points
	if len(window) > f.cfg.ReactiveWindow {
		window = window[len(window)-f.cfg.ReactiveWindow:]
	}

	var (
		seasonalFuture []domain.FittedPoint
		reactiveFuture []domain.FittedPoint
	)

	g, gctx := errgroup.WithContext(ctx)

	// Fits are CPU-bound and take no context themselves, so the deadline
	// is checked between stages: a fit that is already too late never
	// starts its prediction.
	g.Go(func() error {
		wrap := func(err error) error {
			return &domain.ForecastFitError{ItemID: itemID, Model: domain.ModelSeasonal, Err: err}
		}
		if err := gctx.Err(); err != nil {
			return wrap(err)
		}
		model := f.factory(ModelOptions{
			YearlySeasonality: true,
			TrendFlexibility:  f.cfg.SeasonalFlex,
		})
		if err := model.Fit(points); err != nil {
			return wrap(err)
		}
		if err := gctx.Err(); err != nil {
			return wrap(err)
		}
		future, err := model.Predict(f.cfg.HorizonDays)
		if err != nil {
			return wrap(err)
		}
		seasonalFuture = future
		return nil
	})

	g.Go(func() error {
		wrap := func(err error) error {
			return &domain.ForecastFitError{ItemID: itemID, Model: domain.ModelReactive, Err: err}
		}
		if err := gctx.Err(); err != nil {
			return wrap(err)
		}
		model := f.factory(ModelOptions{
			YearlySeasonality: false,
			TrendFlexibility:  f.cfg.ReactiveFlex,
		})
		if err := model.Fit(window); err != nil {
			return wrap(err)
		}
		if err := gctx.Err(); err != nil {
			return wrap(err)
		}
		// The reactive window ends on the same date as the full history,
		// so its prediction covers the same future calendar.
		future, err := model.Predict(f.cfg.HorizonDays)
		if err != nil {
			return wrap(err)
		}
		reactiveFuture = future
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ForecastPair{
		Seasonal: domain.ForecastResult{
			Model:          domain.ModelSeasonal,
			HorizonDays:    f.cfg.HorizonDays,
			PredictedTotal: sumPredicted(seasonalFuture),
		},
		Reactive: domain.ForecastResult{
			Model:          domain.ModelReactive,
			HorizonDays:    f.cfg.HorizonDays,
			PredictedTotal: sumPredicted(reactiveFuture),
		},
		FittedFuture: seasonalFuture,
	}, nil
}

func sumPredicted(points []domain.FittedPoint) float64 {
	var total float64
	for _, p := range points {
		total += p.Predicted
	}
	return total
}
