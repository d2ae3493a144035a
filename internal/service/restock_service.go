// internal/service/restock_service.go
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/cache"
	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/Haffner32/hackathon-restock-ai/internal/engine"
	"github.com/Haffner32/hackathon-restock-ai/internal/ingest"
	"github.com/Haffner32/hackathon-restock-ai/internal/repository"
	"github.com/Haffner32/hackathon-restock-ai/internal/storage"
	"github.com/rs/zerolog/log"
)

// IngestSummary reports what one upload or sync brought in.
type IngestSummary struct {
	Items        int    `json:"items"`
	Observations int    `json:"observations"`
	ArchiveKey   string `json:"archive_key,omitempty"`
}

// RestockService is the application-facing surface: ingest stock logs,
// run the decision engine, keep decision history.
type RestockService struct {
	obsRepo repository.ObservationRepository
	decRepo repository.DecisionRepository
	cache   cache.AnalysisCache
	engine  *engine.Engine
	archive storage.SnapshotArchive
}

func NewRestockService(
	obsRepo repository.ObservationRepository,
	decRepo repository.DecisionRepository,
	cacheImpl cache.AnalysisCache,
	eng *engine.Engine,
	archive storage.SnapshotArchive,
) *RestockService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopAnalysisCache()
	}
	return &RestockService{
		obsRepo: obsRepo,
		decRepo: decRepo,
		cache:   cacheImpl,
		engine:  eng,
		archive: archive,
	}
}

// IngestTable parses an uploaded stock table, persists the readings, and
// archives the raw bytes when an archive is configured. Schema failures
// surface as SchemaError for the handler to render.
func (s *RestockService) IngestTable(ctx context.Context, r io.Reader, snapshotName string) (*IngestSummary, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	series, err := ingest.ReadObservations(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	return s.persistSeries(ctx, series, raw, snapshotName)
}

// IngestSeries persists already-parsed observation series (the sheet sync
// path).
func (s *RestockService) IngestSeries(ctx context.Context, series map[string][]domain.StockObservation) (*IngestSummary, error) {
	return s.persistSeries(ctx, series, nil, "")
}

func (s *RestockService) persistSeries(ctx context.Context, series map[string][]domain.StockObservation, raw []byte, snapshotName string) (*IngestSummary, error) {
	summary := &IngestSummary{Items: len(series)}
	for itemID, obs := range series {
		n, err := s.obsRepo.UpsertObservations(ctx, obs)
		if err != nil {
			return nil, err
		}
		summary.Observations += n

		if err := s.cache.InvalidateItem(ctx, itemID); err != nil {
			log.Warn().Err(err).Str("item", itemID).Msg("cache invalidation failed")
		}
	}

	if s.archive != nil && len(raw) > 0 {
		key := fmt.Sprintf("%s/%s", time.Now().UTC().Format("20060102"), snapshotName)
		if err := s.archive.UploadSnapshot(ctx, key, raw); err != nil {
			// The readings are already persisted; a failed archive upload
			// is not worth failing the ingest over.
			log.Warn().Err(err).Str("key", key).Msg("snapshot archive failed")
		} else {
			summary.ArchiveKey = key
		}
	}

	return summary, nil
}

// Analyze runs the decision pipeline for one item, serving from cache when
// the stored series has not changed since the last run. Fresh decisions
// are appended to the history table.
func (s *RestockService) Analyze(ctx context.Context, itemID string) (*domain.ItemAnalysis, error) {
	obs, err := s.obsRepo.GetSeries(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, &domain.InsufficientDataError{ItemID: itemID, Points: 0}
	}

	fingerprint := cache.Fingerprint(obs)
	if analysis, ok, err := s.cache.Get(ctx, itemID, fingerprint); err == nil && ok {
		return analysis, nil
	} else if err != nil {
		log.Warn().Err(err).Str("item", itemID).Msg("analysis cache get failed")
	}

	analysis, err := s.engine.Analyze(ctx, itemID, obs)
	if err != nil {
		return nil, err
	}

	if err := s.decRepo.InsertDecision(ctx, analysis.Decision); err != nil {
		log.Warn().Err(err).Str("item", itemID).Msg("failed to record decision")
	}
	if err := s.cache.Set(ctx, itemID, fingerprint, analysis); err != nil {
		log.Warn().Err(err).Str("item", itemID).Msg("analysis cache set failed")
	}

	return analysis, nil
}

// AnalyzeAll runs every stored item through the engine. Items fail
// independently; the caller gets each item's analysis or error.
func (s *RestockService) AnalyzeAll(ctx context.Context) ([]engine.BatchResult, error) {
	series, err := s.obsRepo.GetAllSeries(ctx)
	if err != nil {
		return nil, err
	}

	results := s.engine.AnalyzeBatch(ctx, series)
	for _, res := range results {
		if res.Err != nil || res.Analysis == nil {
			continue
		}
		if err := s.decRepo.InsertDecision(ctx, res.Analysis.Decision); err != nil {
			log.Warn().Err(err).Str("item", res.ItemID).Msg("failed to record decision")
		}
	}
	return results, nil
}

func (s *RestockService) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.obsRepo.ListItems(ctx)
}

func (s *RestockService) DecisionHistory(ctx context.Context, itemID string, since time.Time) ([]domain.RestockDecision, error) {
	return s.decRepo.DecisionHistory(ctx, itemID, since)
}

func (s *RestockService) LatestDecision(ctx context.Context, itemID string) (*domain.RestockDecision, error) {
	return s.decRepo.LatestDecision(ctx, itemID)
}
