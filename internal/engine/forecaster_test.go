package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel is a deterministic capability stand-in: it predicts a flat
// daily value and records what it was fitted on.
type stubModel struct {
	opts   ModelOptions
	daily  float64
	fitErr error

	mu     sync.Mutex
	fitted []domain.ConsumptionPoint
}

func (m *stubModel) Fit(points []domain.ConsumptionPoint) error {
	m.mu.Lock()
	m.fitted = points
	m.mu.Unlock()
	return m.fitErr
}

func (m *stubModel) Predict(days int) ([]domain.FittedPoint, error) {
	last := m.fitted[len(m.fitted)-1].Timestamp
	future := make([]domain.FittedPoint, days)
	for i := range future {
		future[i] = domain.FittedPoint{Timestamp: last.AddDate(0, 0, i+1), Predicted: m.daily}
	}
	return future, nil
}

// stubFactory hands the seasonal fit one flat rate and the reactive fit
// another, keyed off the yearly-seasonality option.
func stubFactory(seasonalDaily, reactiveDaily float64) (ModelFactory, *[]ModelOptions) {
	var (
		mu   sync.Mutex
		opts []ModelOptions
	)
	factory := func(o ModelOptions) Model {
		mu.Lock()
		opts = append(opts, o)
		mu.Unlock()
		daily := reactiveDaily
		if o.YearlySeasonality {
			daily = seasonalDaily
		}
		return &stubModel{opts: o, daily: daily}
	}
	return factory, &opts
}

func TestForecastSumsDailyPredictions(t *testing.T) {
	factory, _ := stubFactory(10, 4)
	f := NewDualHorizonForecaster(factory, DefaultForecasterConfig())

	pair, err := f.Forecast(context.Background(), "widget", steadyPoints(10, 60))
	require.NoError(t, err)

	assert.Equal(t, 300.0, pair.Seasonal.PredictedTotal)
	assert.Equal(t, 120.0, pair.Reactive.PredictedTotal)
	assert.Equal(t, 30, pair.Seasonal.HorizonDays)
	assert.Len(t, pair.FittedFuture, 30)
}

func TestForecastUsesDistinctTuning(t *testing.T) {
	factory, opts := stubFactory(1, 1)
	f := NewDualHorizonForecaster(factory, DefaultForecasterConfig())

	_, err := f.Forecast(context.Background(), "widget", steadyPoints(10, 60))
	require.NoError(t, err)

	require.Len(t, *opts, 2)
	var seasonal, reactive ModelOptions
	for _, o := range *opts {
		if o.YearlySeasonality {
			seasonal = o
		} else {
			reactive = o
		}
	}
	assert.Equal(t, 0.05, seasonal.TrendFlexibility)
	assert.Equal(t, 0.5, reactive.TrendFlexibility)
	assert.Greater(t, reactive.TrendFlexibility, seasonal.TrendFlexibility)
}

func TestForecastReactiveWindowing(t *testing.T) {
	var reactiveModel *stubModel
	factory := func(o ModelOptions) Model {
		m := &stubModel{opts: o, daily: 1}
		if !o.YearlySeasonality {
			reactiveModel = m
		}
		return m
	}
	f := NewDualHorizonForecaster(factory, DefaultForecasterConfig())

	points := steadyPoints(10, 100)
	_, err := f.Forecast(context.Background(), "widget", points)
	require.NoError(t, err)

	require.NotNil(t, reactiveModel)
	assert.Len(t, reactiveModel.fitted, 30)
	// Window ends on the same date as the full history, so both models
	// predict the same future calendar.
	assert.Equal(t, points[len(points)-1].Timestamp, reactiveModel.fitted[len(reactiveModel.fitted)-1].Timestamp)
}

func TestForecastShortHistoryUsesAllPoints(t *testing.T) {
	var reactiveModel *stubModel
	factory := func(o ModelOptions) Model {
		m := &stubModel{opts: o, daily: 1}
		if !o.YearlySeasonality {
			reactiveModel = m
		}
		return m
	}
	f := NewDualHorizonForecaster(factory, DefaultForecasterConfig())

	_, err := f.Forecast(context.Background(), "widget", steadyPoints(10, 7))
	require.NoError(t, err)
	assert.Len(t, reactiveModel.fitted, 7)
}

// slowModel simulates an expensive fit on a long history.
type slowModel struct {
	stubModel
	delay time.Duration
}

func (m *slowModel) Fit(points []domain.ConsumptionPoint) error {
	time.Sleep(m.delay)
	return m.stubModel.Fit(points)
}

func TestForecastHonorsDeadline(t *testing.T) {
	factory := func(o ModelOptions) Model {
		return &slowModel{stubModel: stubModel{opts: o, daily: 1}, delay: 50 * time.Millisecond}
	}
	f := NewDualHorizonForecaster(factory, DefaultForecasterConfig())

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	_, err := f.Forecast(ctx, "widget", steadyPoints(10, 60))

	var fitErr *domain.ForecastFitError
	require.ErrorAs(t, err, &fitErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestForecastCancelledContext(t *testing.T) {
	factory, _ := stubFactory(10, 4)
	f := NewDualHorizonForecaster(factory, DefaultForecasterConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Forecast(ctx, "widget", steadyPoints(10, 60))

	var fitErr *domain.ForecastFitError
	require.ErrorAs(t, err, &fitErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForecastFitFailurePropagates(t *testing.T) {
	cause := errors.New("degenerate variance")
	factory := func(o ModelOptions) Model {
		m := &stubModel{opts: o, daily: 1}
		if !o.YearlySeasonality {
			m.fitErr = cause
		}
		return m
	}
	f := NewDualHorizonForecaster(factory, DefaultForecasterConfig())

	_, err := f.Forecast(context.Background(), "widget", steadyPoints(10, 60))

	var fitErr *domain.ForecastFitError
	require.True(t, errors.As(err, &fitErr))
	assert.Equal(t, "widget", fitErr.ItemID)
	assert.Equal(t, domain.ModelReactive, fitErr.Model)
	assert.ErrorIs(t, err, cause)
}
