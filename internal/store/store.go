package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gestion-dotacion/prediccion-engine/internal/engine"
	"github.com/gestion-dotacion/prediccion-engine/internal/metrics"
	"github.com/gestion-dotacion/prediccion-engine/internal/models"
)

// ProductionSource is the slice of the production repository the store needs.
type ProductionSource interface {
	FetchRecords(ctx context.Context) ([]models.ProductionRecord, error)
	Checksum(ctx context.Context) (models.ChangeChecksum, error)
}

// ModelPersistence is the slice of the model repository the store needs.
type ModelPersistence interface {
	Load(ctx context.Context) (*models.TrainedModel, error)
	Replace(ctx context.Context, model *models.TrainedModel) error
}

// ModelStore holds the single active model and serializes retraining.
// Concurrent retrain requests coalesce onto one training run; readers
// always see either the previous complete model or the new one.
type ModelStore struct {
	logger     *slog.Logger
	trainer    *engine.Trainer
	production ProductionSource
	persist    ModelPersistence

	mu       sync.Mutex
	model    *models.TrainedModel
	checksum models.ChangeChecksum

	inFlight  bool
	waiters   []chan trainResult
	waitersMu sync.Mutex
}

type trainResult struct {
	model *models.TrainedModel
	err   error
}

// NewModelStore constructs the store. Call Bootstrap before serving.
func NewModelStore(logger *slog.Logger, trainer *engine.Trainer, production ProductionSource, persist ModelPersistence) *ModelStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelStore{
		logger:     logger,
		trainer:    trainer,
		production: production,
		persist:    persist,
	}
}

// Bootstrap loads a previously persisted model if one exists. A missing
// model is not an error; the first projection request will train lazily.
func (s *ModelStore) Bootstrap(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	model, err := s.persist.Load(ctx)
	if err != nil {
		return err
	}
	if model == nil {
		s.logger.Info("no persisted model found, waiting for first training")
		return nil
	}
	checksum, err := s.production.Checksum(ctx)
	if err != nil {
		s.logger.Warn("checksum read failed during bootstrap", "error", err)
	}
	s.mu.Lock()
	s.model = model
	s.checksum = checksum
	s.mu.Unlock()
	metrics.SetModelVersion(model.Version)
	s.logger.Info("loaded persisted model",
		"version", model.Version,
		"trained_at", model.TrainedAt)
	return nil
}

// GetLatest returns the active model, or ErrModelNotTrained when no
// training has completed yet.
func (s *ModelStore) GetLatest() (*models.TrainedModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return nil, engine.ErrModelNotTrained
	}
	return s.model, nil
}

// EnsureTrained returns the active model, training one first if none
// exists yet.
func (s *ModelStore) EnsureTrained(ctx context.Context) (*models.TrainedModel, error) {
	if model, err := s.GetLatest(); err == nil {
		return model, nil
	}
	return s.Retrain(ctx)
}

// Retrain fits a fresh model from the current production data and swaps
// it in atomically. When a retrain is already running, the call waits for
// that run's result instead of starting another.
func (s *ModelStore) Retrain(ctx context.Context) (*models.TrainedModel, error) {
	s.waitersMu.Lock()
	if s.inFlight {
		ch := make(chan trainResult, 1)
		s.waiters = append(s.waiters, ch)
		s.waitersMu.Unlock()
		select {
		case res := <-ch:
			return res.model, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.inFlight = true
	s.waitersMu.Unlock()

	model, err := s.retrain(ctx)

	s.waitersMu.Lock()
	s.inFlight = false
	waiters := s.waiters
	s.waiters = nil
	s.waitersMu.Unlock()
	for _, ch := range waiters {
		ch <- trainResult{model: model, err: err}
	}
	return model, err
}

func (s *ModelStore) retrain(ctx context.Context) (*models.TrainedModel, error) {
	checksum, err := s.production.Checksum(ctx)
	if err != nil {
		s.logger.Warn("checksum read failed, training anyway", "error", err)
	}

	records, err := s.production.FetchRecords(ctx)
	if err != nil {
		metrics.ObserveRetrain(metrics.OutcomeError)
		return s.keepCurrent(err)
	}

	model, err := s.trainer.Train(records)
	if err != nil {
		metrics.ObserveRetrain(metrics.OutcomeError)
		return s.keepCurrent(err)
	}

	s.mu.Lock()
	var prevVersion int64
	if s.model != nil {
		prevVersion = s.model.Version
	}
	model.Version = prevVersion + 1
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Replace(ctx, model); err != nil {
			metrics.ObserveRetrain(metrics.OutcomeError)
			return s.keepCurrent(err)
		}
	}

	s.mu.Lock()
	s.model = model
	s.checksum = checksum
	s.mu.Unlock()

	metrics.ObserveRetrain(metrics.OutcomeSuccess)
	metrics.SetModelVersion(model.Version)
	s.logger.Info("model retrained",
		"version", model.Version,
		"slope", model.Slope,
		"capacity", model.CapacityPerWorker)
	return model, nil
}

// keepCurrent reports a failed retrain without discarding the model that
// was already serving requests.
func (s *ModelStore) keepCurrent(err error) (*models.TrainedModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		s.logger.Warn("retrain failed, keeping current model",
			"version", s.model.Version,
			"error", err)
	}
	return nil, err
}

// LastChecksum returns the checksum captured by the most recent successful
// retrain.
func (s *ModelStore) LastChecksum() models.ChangeChecksum {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checksum
}
