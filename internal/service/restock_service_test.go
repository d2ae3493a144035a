package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/Haffner32/hackathon-restock-ai/internal/engine"
	"github.com/Haffner32/hackathon-restock-ai/internal/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObservationRepo struct {
	series map[string][]domain.StockObservation
}

func newMemObservationRepo() *memObservationRepo {
	return &memObservationRepo{series: make(map[string][]domain.StockObservation)}
}

func (r *memObservationRepo) UpsertObservations(ctx context.Context, obs []domain.StockObservation) (int, error) {
	for _, o := range obs {
		r.series[o.ItemID] = append(r.series[o.ItemID], o)
	}
	return len(obs), nil
}

func (r *memObservationRepo) GetSeries(ctx context.Context, itemID string) ([]domain.StockObservation, error) {
	return r.series[itemID], nil
}

func (r *memObservationRepo) GetAllSeries(ctx context.Context) (map[string][]domain.StockObservation, error) {
	return r.series, nil
}

func (r *memObservationRepo) ListItems(ctx context.Context) ([]domain.Item, error) {
	items := make([]domain.Item, 0, len(r.series))
	for id := range r.series {
		items = append(items, domain.Item{ItemID: id})
	}
	return items, nil
}

type memDecisionRepo struct {
	decisions []domain.RestockDecision
}

func (r *memDecisionRepo) InsertDecision(ctx context.Context, d domain.RestockDecision) error {
	r.decisions = append(r.decisions, d)
	return nil
}

func (r *memDecisionRepo) LatestDecision(ctx context.Context, itemID string) (*domain.RestockDecision, error) {
	for i := len(r.decisions) - 1; i >= 0; i-- {
		if r.decisions[i].ItemID == itemID {
			d := r.decisions[i]
			return &d, nil
		}
	}
	return nil, nil
}

func (r *memDecisionRepo) DecisionHistory(ctx context.Context, itemID string, since time.Time) ([]domain.RestockDecision, error) {
	var out []domain.RestockDecision
	for _, d := range r.decisions {
		if d.ItemID == itemID && !d.DecidedAt.Before(since) {
			out = append(out, d)
		}
	}
	return out, nil
}

type countingCache struct {
	entries map[string]*domain.ItemAnalysis
	hits    int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: make(map[string]*domain.ItemAnalysis)}
}

func (c *countingCache) Get(ctx context.Context, itemID, fingerprint string) (*domain.ItemAnalysis, bool, error) {
	if a, ok := c.entries[itemID+":"+fingerprint]; ok {
		c.hits++
		return a, true, nil
	}
	return nil, false, nil
}

func (c *countingCache) Set(ctx context.Context, itemID, fingerprint string, analysis *domain.ItemAnalysis) error {
	c.entries[itemID+":"+fingerprint] = analysis
	return nil
}

func (c *countingCache) InvalidateItem(ctx context.Context, itemID string) error {
	for key := range c.entries {
		if strings.HasPrefix(key, itemID+":") {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *countingCache) InvalidateAll(ctx context.Context) error {
	c.entries = make(map[string]*domain.ItemAnalysis)
	return nil
}

func testEngine() *engine.Engine {
	return engine.New(forecast.NewAdditive, engine.Config{
		Forecaster: engine.DefaultForecasterConfig(),
		Workers:    2,
	})
}

// steadyDecline seeds n+1 daily readings declining by daily units per day.
func steadyDecline(repo *memObservationRepo, itemID string, start, daily float64, n int) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]domain.StockObservation, 0, n+1)
	for i := 0; i <= n; i++ {
		obs = append(obs, domain.StockObservation{
			ItemID:    itemID,
			Timestamp: base.AddDate(0, 0, i),
			OnHand:    start - daily*float64(i),
		})
	}
	repo.series[itemID] = obs
}

func TestAnalyzePersistsDecision(t *testing.T) {
	obsRepo := newMemObservationRepo()
	decRepo := &memDecisionRepo{}
	steadyDecline(obsRepo, "beras", 700, 10, 60)

	svc := NewRestockService(obsRepo, decRepo, nil, testEngine(), nil)

	analysis, err := svc.Analyze(context.Background(), "beras")
	require.NoError(t, err)
	require.NotNil(t, analysis)

	// 10 units a day over a 30-day horizon against 100 on hand.
	assert.InDelta(t, 200, analysis.Decision.OrderQuantity, 5)
	assert.Equal(t, 100.0, analysis.Decision.CurrentStock)

	require.Len(t, decRepo.decisions, 1)
	assert.Equal(t, "beras", decRepo.decisions[0].ItemID)

	latest, err := svc.LatestDecision(context.Background(), "beras")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, analysis.Decision.OrderQuantity, latest.OrderQuantity)
}

func TestAnalyzeServesRepeatFromCache(t *testing.T) {
	obsRepo := newMemObservationRepo()
	decRepo := &memDecisionRepo{}
	cacheImpl := newCountingCache()
	steadyDecline(obsRepo, "beras", 700, 10, 60)

	svc := NewRestockService(obsRepo, decRepo, cacheImpl, testEngine(), nil)

	first, err := svc.Analyze(context.Background(), "beras")
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), "beras")
	require.NoError(t, err)

	assert.Equal(t, 1, cacheImpl.hits)
	assert.Equal(t, first.Decision.OrderQuantity, second.Decision.OrderQuantity)
	// The cached repeat must not append another history row.
	assert.Len(t, decRepo.decisions, 1)
}

func TestAnalyzeRefreshesWhenSeriesChanges(t *testing.T) {
	obsRepo := newMemObservationRepo()
	decRepo := &memDecisionRepo{}
	cacheImpl := newCountingCache()
	steadyDecline(obsRepo, "beras", 700, 10, 60)

	svc := NewRestockService(obsRepo, decRepo, cacheImpl, testEngine(), nil)

	_, err := svc.Analyze(context.Background(), "beras")
	require.NoError(t, err)

	steadyDecline(obsRepo, "beras", 700, 10, 61)

	_, err = svc.Analyze(context.Background(), "beras")
	require.NoError(t, err)

	assert.Equal(t, 0, cacheImpl.hits)
	assert.Len(t, decRepo.decisions, 2)
}

func TestAnalyzeUnknownItem(t *testing.T) {
	svc := NewRestockService(newMemObservationRepo(), &memDecisionRepo{}, nil, testEngine(), nil)

	_, err := svc.Analyze(context.Background(), "ghost")

	var insufficientErr *domain.InsufficientDataError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, 0, insufficientErr.Points)
}

func TestIngestTable(t *testing.T) {
	obsRepo := newMemObservationRepo()
	svc := NewRestockService(obsRepo, &memDecisionRepo{}, nil, testEngine(), nil)

	csv := strings.Join([]string{
		"Item,Date,Current_Stock",
		"beras,2024-01-01,100",
		"beras,2024-01-02,90",
		"gula,2024-01-01,40",
	}, "\n")

	summary, err := svc.IngestTable(context.Background(), strings.NewReader(csv), "upload.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Items)
	assert.Equal(t, 3, summary.Observations)
	assert.Empty(t, summary.ArchiveKey)
	assert.Len(t, obsRepo.series["beras"], 2)
}

func TestIngestTableSchemaError(t *testing.T) {
	svc := NewRestockService(newMemObservationRepo(), &memDecisionRepo{}, nil, testEngine(), nil)

	_, err := svc.IngestTable(context.Background(), strings.NewReader("Product,Price\na,1\n"), "upload.csv")

	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestAnalyzeAllIsolatesFailures(t *testing.T) {
	obsRepo := newMemObservationRepo()
	decRepo := &memDecisionRepo{}
	steadyDecline(obsRepo, "beras", 700, 10, 60)
	obsRepo.series["sparse"] = []domain.StockObservation{{
		ItemID:    "sparse",
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		OnHand:    5,
	}}

	svc := NewRestockService(obsRepo, decRepo, nil, testEngine(), nil)

	results, err := svc.AnalyzeAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := make(map[string]engine.BatchResult, len(results))
	for _, res := range results {
		byID[res.ItemID] = res
	}

	require.NoError(t, byID["beras"].Err)
	require.NotNil(t, byID["beras"].Analysis)

	var insufficientErr *domain.InsufficientDataError
	require.ErrorAs(t, byID["sparse"].Err, &insufficientErr)

	// Only the successful item lands in history.
	require.Len(t, decRepo.decisions, 1)
	assert.Equal(t, "beras", decRepo.decisions[0].ItemID)
}
