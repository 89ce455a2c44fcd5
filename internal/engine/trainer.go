package engine

import (
	"log/slog"
	"time"

	"github.com/gestion-dotacion/prediccion-engine/internal/models"
)

// Trainer orchestrates a full training run: aggregate raw records, fit the
// trend, derive seasonality and capacity, assemble a TrainedModel.
type Trainer struct {
	logger     *slog.Logger
	aggregator *Aggregator
	capacity   *CapacityEstimator
	seeds      map[int]float64
	now        func() time.Time
}

// NewTrainer constructs a Trainer. Nil collaborators fall back to defaults.
func NewTrainer(logger *slog.Logger, aggregator *Aggregator, capacity *CapacityEstimator, seeds map[int]float64) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	if aggregator == nil {
		aggregator = NewAggregator(DefaultFilterPolicy())
	}
	if capacity == nil {
		capacity = NewCapacityEstimator()
	}
	return &Trainer{
		logger:     logger,
		aggregator: aggregator,
		capacity:   capacity,
		seeds:      seeds,
		now:        time.Now,
	}
}

// Aggregator exposes the trainer's record filter for callers that aggregate
// ad hoc slices (the single-month diagnostic).
func (t *Trainer) Aggregator() *Aggregator {
	return t.aggregator
}

// Train runs the full estimation pass over raw records. It refuses to train
// on fewer than two monthly observations: a single month degenerates to a
// flat line and must surface as insufficient data instead. Version is left
// at zero; the model store assigns it on publish.
func (t *Trainer) Train(records []models.ProductionRecord) (*models.TrainedModel, error) {
	monthly := t.aggregator.MonthlyTotals(records)
	if len(monthly) < 2 {
		t.logger.Warn("training refused", slog.Int("monthly_observations", len(monthly)))
		return nil, ErrInsufficientData
	}

	trend := FitTrend(monthly)
	factors := SeasonalFactors(monthly, trend, t.seeds)
	workerTotals := t.aggregator.WorkerMonthlyTotals(records)
	capacity := t.capacity.Estimate(workerTotals, monthly)

	last := monthly[len(monthly)-1]
	model := &models.TrainedModel{
		Slope:                  trend.Slope,
		Intercept:              trend.Intercept,
		SeasonalFactors:        factors,
		CapacityPerWorker:      capacity,
		LastTrainedPeriodIndex: last.PeriodIndex,
		LastTrainedYear:        last.Year,
		LastTrainedMonth:       last.Month,
		LastObservedOutput:     last.TotalOutput,
		TrainedAt:              t.now().UTC(),
	}

	t.logger.Info("model trained",
		slog.Int("months", len(monthly)),
		slog.Float64("slope", model.Slope),
		slog.Float64("capacity", model.CapacityPerWorker),
		slog.Int("last_year", model.LastTrainedYear),
		slog.Int("last_month", model.LastTrainedMonth),
	)
	return model, nil
}
