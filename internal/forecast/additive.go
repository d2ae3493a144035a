// internal/forecast/additive.go
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/Haffner32/hackathon-restock-ai/internal/engine"
	"github.com/montanaflynn/stats"
)

// Shrinkage pseudo-counts for sparse seasonal buckets. A bucket with few
// samples contributes proportionally less of its mean residual.
const (
	weeklyShrinkage = 3.0
	yearlyShrinkage = 5.0
)

var (
	errTooFewPoints   = errors.New("need at least 2 points to fit")
	errZeroTimeSpan   = errors.New("series has zero time span")
	errNotFitted      = errors.New("model has not been fitted")
	errInvalidHorizon = errors.New("prediction horizon must be positive")
)

// Additive is a deterministic trend-plus-seasonality model. The trend is a
// recency-weighted least-squares line whose decay rate scales with the
// trend-flexibility knob, so a flexible model bends toward the most recent
// readings. Seasonality is additive: a weekday component always, a
// month-of-year component when yearly seasonality is enabled.
type Additive struct {
	opts engine.ModelOptions

	fitted    bool
	origin    time.Time
	lastDay   float64
	lastDate  time.Time
	intercept float64
	slope     float64
	weekday   [7]float64
	month     [13]float64 // 1-indexed by time.Month
}

// NewAdditive builds a model instance for a single fit. It satisfies
// engine.ModelFactory.
func NewAdditive(opts engine.ModelOptions) engine.Model {
	return &Additive{opts: opts}
}

// Fit estimates the trend and seasonal components from the series. It
// fails for histories shorter than two points, zero time spans, and
// non-finite values; those surface to the caller as fit errors.
func (m *Additive) Fit(points []domain.ConsumptionPoint) error {
	if len(points) < 2 {
		return errTooFewPoints
	}

	m.origin = points[0].Timestamp
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		if math.IsNaN(p.Consumed) || math.IsInf(p.Consumed, 0) {
			return fmt.Errorf("non-finite value at %s", p.Timestamp.Format("2006-01-02"))
		}
		xs[i] = p.Timestamp.Sub(m.origin).Hours() / 24
		ys[i] = p.Consumed
	}

	last := len(points) - 1
	m.lastDay = xs[last]
	m.lastDate = points[last].Timestamp
	if m.lastDay == 0 {
		return errZeroTimeSpan
	}

	m.intercept, m.slope = weightedLine(xs, ys, m.opts.TrendFlexibility)

	// Seasonal components are means of detrended residuals, shrunk toward
	// zero when a bucket has few samples.
	residuals := make([]float64, len(points))
	for i := range points {
		residuals[i] = ys[i] - (m.intercept + m.slope*xs[i])
	}

	m.weekday = [7]float64{}
	weekBuckets := make(map[int][]float64)
	for i, p := range points {
		wd := int(p.Timestamp.Weekday())
		weekBuckets[wd] = append(weekBuckets[wd], residuals[i])
	}
	for wd, vals := range weekBuckets {
		mean, err := stats.Mean(vals)
		if err != nil {
			continue
		}
		n := float64(len(vals))
		m.weekday[wd] = mean * n / (n + weeklyShrinkage)
	}

	m.month = [13]float64{}
	if m.opts.YearlySeasonality {
		monthBuckets := make(map[time.Month][]float64)
		for i, p := range points {
			deweek := residuals[i] - m.weekday[int(p.Timestamp.Weekday())]
			monthBuckets[p.Timestamp.Month()] = append(monthBuckets[p.Timestamp.Month()], deweek)
		}
		for mo, vals := range monthBuckets {
			mean, err := stats.Mean(vals)
			if err != nil {
				continue
			}
			n := float64(len(vals))
			m.month[mo] = mean * n / (n + yearlyShrinkage)
		}
	}

	m.fitted = true
	return nil
}

// Predict returns the next `days` daily values after the end of the fitted
// series. Predictions are raw model output and may be negative.
func (m *Additive) Predict(days int) ([]domain.FittedPoint, error) {
	if !m.fitted {
		return nil, errNotFitted
	}
	if days <= 0 {
		return nil, errInvalidHorizon
	}

	future := make([]domain.FittedPoint, days)
	for i := 0; i < days; i++ {
		date := m.lastDate.AddDate(0, 0, i+1)
		t := m.lastDay + float64(i+1)
		value := m.intercept + m.slope*t + m.weekday[int(date.Weekday())]
		if m.opts.YearlySeasonality {
			value += m.month[date.Month()]
		}
		future[i] = domain.FittedPoint{Timestamp: date, Predicted: value}
	}
	return future, nil
}

// weightedLine fits y = a + b*x by least squares with exponential recency
// weights. The decay timescale is 10/flexibility days: flexibility 0.05
// looks back ~200 days, 0.5 only ~20, which is what makes the reactive
// model bend to a recent spike the seasonal model smooths away.
func weightedLine(xs, ys []float64, flexibility float64) (intercept, slope float64) {
	if flexibility <= 0 {
		flexibility = 0.05
	}
	decay := flexibility / 10

	maxX := xs[len(xs)-1]
	var sw, swx, swy, swxx, swxy float64
	for i := range xs {
		w := math.Exp(-decay * (maxX - xs[i]))
		sw += w
		swx += w * xs[i]
		swy += w * ys[i]
		swxx += w * xs[i] * xs[i]
		swxy += w * xs[i] * ys[i]
	}

	denom := sw*swxx - swx*swx
	if denom == 0 {
		// Degenerate x spread: fall back to a flat line at the weighted mean.
		return swy / sw, 0
	}
	slope = (sw*swxy - swx*swy) / denom
	intercept = (swy - slope*swx) / sw
	return intercept, slope
}
