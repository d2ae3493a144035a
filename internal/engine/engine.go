// internal/engine/engine.go
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/Haffner32/hackathon-restock-ai/pkg/logger"
)

// Config tunes a single engine instance.
type Config struct {
	Forecaster ForecasterConfig
	// FitTimeout bounds each dual-horizon forecast; fitting cost scales
	// with history length. Zero disables the bound.
	FitTimeout time.Duration
	// Workers is the batch fan-out. Values below 1 mean 1.
	Workers int
}

// Engine runs the full decision pipeline for an item: extract the burn
// signal, fit both horizons, resolve the order quantity.
type Engine struct {
	forecaster *DualHorizonForecaster
	cfg        Config
	now        func() time.Time
}

func New(factory ModelFactory, cfg Config) *Engine {
	return &Engine{
		forecaster: NewDualHorizonForecaster(factory, cfg.Forecaster),
		cfg:        cfg,
		now:        time.Now,
	}
}

// Analyze executes one unit of work: observations in, ItemAnalysis out.
// Failures are typed (InsufficientDataError, ForecastFitError) and carry
// the item id so a batch caller can render a message and move on.
func (e *Engine) Analyze(ctx context.Context, itemID string, obs []domain.StockObservation) (*domain.ItemAnalysis, error) {
	points, err := ExtractConsumption(itemID, obs)
	if err != nil {
		return nil, err
	}

	fitCtx := ctx
	if e.cfg.FitTimeout > 0 {
		var cancel context.CancelFunc
		fitCtx, cancel = context.WithTimeout(ctx, e.cfg.FitTimeout)
		defer cancel()
	}

	pair, err := e.forecaster.Forecast(fitCtx, itemID, points)
	if err != nil {
		return nil, err
	}

	decision := Resolve(itemID, pair, points, latestOnHand(obs), e.now())

	return &domain.ItemAnalysis{
		Decision:     decision,
		History:      points,
		FittedFuture: pair.FittedFuture,
	}, nil
}

// BatchResult pairs an item with its analysis or its failure.
type BatchResult struct {
	ItemID   string
	Analysis *domain.ItemAnalysis
	Err      error
}

// AnalyzeBatch runs independent items through a worker pool. No item's run
// observes another's state, and one item's failure never aborts the rest.
func (e *Engine) AnalyzeBatch(ctx context.Context, series map[string][]domain.StockObservation) []BatchResult {
	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	itemIDs := make([]string, 0, len(series))
	for id := range series {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)

	jobs := make(chan string, len(itemIDs))
	results := make([]BatchResult, 0, len(itemIDs))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				analysis, err := e.Analyze(ctx, id, series[id])
				if err != nil {
					logger.Log.Warn().Str("item", id).Err(err).Msg("item analysis failed")
				}
				mu.Lock()
				results = append(results, BatchResult{ItemID: id, Analysis: analysis, Err: err})
				mu.Unlock()
			}
		}()
	}

	for _, id := range itemIDs {
		select {
		case <-ctx.Done():
			// Never enqueued, but the caller still gets a result per item.
			mu.Lock()
			results = append(results, BatchResult{ItemID: id, Err: ctx.Err()})
			mu.Unlock()
		case jobs <- id:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].ItemID < results[j].ItemID })
	return results
}

func latestOnHand(obs []domain.StockObservation) float64 {
	if len(obs) == 0 {
		return 0
	}
	latest := obs[0]
	for _, o := range obs[1:] {
		if !o.Timestamp.Before(latest.Timestamp) {
			latest = o
		}
	}
	return latest.OnHand
}
