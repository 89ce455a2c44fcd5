package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gestion-dotacion/prediccion-engine/internal/cache"
	"github.com/gestion-dotacion/prediccion-engine/internal/engine"
	"github.com/gestion-dotacion/prediccion-engine/internal/metrics"
	"github.com/gestion-dotacion/prediccion-engine/internal/models"
	"github.com/gestion-dotacion/prediccion-engine/internal/utils"
)

// MaxProjectionMonths caps the proyectar horizon.
const MaxProjectionMonths = 24

// ModelSource provides the active trained model.
type ModelSource interface {
	GetLatest() (*models.TrainedModel, error)
	EnsureTrained(ctx context.Context) (*models.TrainedModel, error)
	Retrain(ctx context.Context) (*models.TrainedModel, error)
}

// ProductionReader is the read side of the production table the service needs.
type ProductionReader interface {
	FetchMonth(ctx context.Context, year, month int) ([]models.ProductionRecord, error)
	ActiveWorkers(ctx context.Context, year, month int, noJustification string) (int, error)
}

// ProjectionHistory records and lists past projections.
type ProjectionHistory interface {
	AppendProjections(ctx context.Context, version int64, records []models.ForecastRecord) error
	ListProjections(ctx context.Context, limit int) ([]models.ProjectionLogEntry, error)
}

// ForecastService is the application facade behind the HTTP handlers.
type ForecastService struct {
	logger          *slog.Logger
	store           ModelSource
	production      ProductionReader
	history         ProjectionHistory
	projector       *engine.Projector
	aggregator      *engine.Aggregator
	cache           cache.Provider
	cacheTTL        time.Duration
	noJustification string
	latencies       *utils.LatencyTracker
}

// NewForecastService wires the service facade. A nil cache disables response
// caching.
func NewForecastService(
	logger *slog.Logger,
	store ModelSource,
	production ProductionReader,
	history ProjectionHistory,
	projector *engine.Projector,
	aggregator *engine.Aggregator,
	cacheProvider cache.Provider,
	cacheTTL time.Duration,
	noJustification string,
) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}
	if projector == nil {
		projector = engine.NewProjector()
	}
	if aggregator == nil {
		aggregator = engine.NewAggregator(engine.DefaultFilterPolicy())
	}
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if noJustification == "" {
		noJustification = engine.DefaultNoJustification
	}
	return &ForecastService{
		logger:          logger,
		store:           store,
		production:      production,
		history:         history,
		projector:       projector,
		aggregator:      aggregator,
		cache:           cacheProvider,
		cacheTTL:        cacheTTL,
		noJustification: noJustification,
		latencies:       utils.NewLatencyTracker(1024),
	}
}

// Train forces a full retrain and returns the published model.
func (s *ForecastService) Train(ctx context.Context) (*models.TrainedModel, error) {
	model, err := s.store.Retrain(ctx)
	if err != nil {
		s.logger.Error("training failed", slog.Any("error", err))
		return nil, err
	}
	// Projections cached against the old model version are stale now; they
	// age out via TTL since keys carry the version.
	return model, nil
}

// Project produces a forecast for the next months horizon. Responses are
// cached per model version so a retrain naturally invalidates them.
func (s *ForecastService) Project(ctx context.Context, months int) ([]models.ForecastRecord, error) {
	if months < 1 || months > MaxProjectionMonths {
		return nil, engine.ErrInvalidHorizon
	}

	start := time.Now()
	records, err := s.project(ctx, months)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveProjection(duration, metrics.OutcomeError)
		return nil, err
	}
	s.latencies.Observe(duration)
	metrics.ObserveProjection(duration, metrics.OutcomeSuccess)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("projection latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}
	return records, nil
}

func (s *ForecastService) project(ctx context.Context, months int) ([]models.ForecastRecord, error) {
	model, err := s.store.EnsureTrained(ctx)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("prediccion:proyeccion:v%d:m%d", model.Version, months)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var cached []models.ForecastRecord
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		s.logger.Warn("discarding corrupt cached projection", slog.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("cache read failed", slog.Any("error", err))
	}

	headcount := s.currentHeadcount(ctx, model)
	records, err := s.projector.Project(model, months, headcount)
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		if err := s.history.AppendProjections(ctx, model.Version, records); err != nil {
			s.logger.Warn("projection log write failed", slog.Any("error", err))
		}
	}

	if data, err := json.Marshal(records); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			s.logger.Warn("cache write failed", slog.Any("error", err))
		}
	}
	return records, nil
}

// currentHeadcount counts distinct active workers in the model's last
// trained month. Zero lets the projector fall back to an output-derived
// estimate.
func (s *ForecastService) currentHeadcount(ctx context.Context, model *models.TrainedModel) int {
	if s.production == nil {
		return 0
	}
	count, err := s.production.ActiveWorkers(ctx, model.LastTrainedYear, model.LastTrainedMonth, s.noJustification)
	if err != nil {
		s.logger.Warn("active worker count failed", slog.Any("error", err))
		return 0
	}
	return count
}

// AnalyzeMonth compares one historical month's actual output and headcount
// against the capacity-derived recommendation.
func (s *ForecastService) AnalyzeMonth(ctx context.Context, year, month int) (*models.MonthAnalysis, error) {
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return nil, engine.ErrInvalidPeriod
	}

	model, err := s.store.EnsureTrained(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.production.FetchMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}

	monthly := s.aggregator.MonthlyTotals(records)
	if len(monthly) == 0 {
		return nil, engine.ErrNoDataForPeriod
	}
	total := monthly[0].TotalOutput
	actual := s.aggregator.ActiveWorkers(records, year, month)

	capacity := model.CapacityPerWorker
	if capacity < 1 {
		capacity = 1
	}
	recommended := int(math.Ceil(total / capacity))
	if recommended < 1 {
		recommended = 1
	}

	return &models.MonthAnalysis{
		Year:                 year,
		Month:                month,
		TotalOutput:          total,
		ActualHeadcount:      actual,
		RecommendedHeadcount: recommended,
		Status:               s.projector.Status(actual, recommended),
	}, nil
}

// CurrentModel exposes the active model for the diagnostics endpoint.
func (s *ForecastService) CurrentModel() (*models.TrainedModel, error) {
	return s.store.GetLatest()
}

// History lists recent logged projections, newest first.
func (s *ForecastService) History(ctx context.Context, limit int) ([]models.ProjectionLogEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListProjections(ctx, limit)
}

// LatencyP95 reports the current p95 projection latency.
func (s *ForecastService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}
