package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ChangePoller periodically compares a cheap checksum of the production
// table against the one captured at the last training run, and triggers a
// retrain when they differ.
type ChangePoller struct {
	logger   *slog.Logger
	store    *ModelStore
	source   ProductionSource
	interval time.Duration
	cron     *cron.Cron
}

// NewChangePoller builds a poller that checks every interval.
func NewChangePoller(logger *slog.Logger, store *ModelStore, source ProductionSource, interval time.Duration) *ChangePoller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &ChangePoller{
		logger:   logger,
		store:    store,
		source:   source,
		interval: interval,
	}
}

// Start schedules the polling job. Call Stop on shutdown.
func (p *ChangePoller) Start(ctx context.Context) error {
	p.cron = cron.New()
	spec := fmt.Sprintf("@every %s", p.interval)
	if _, err := p.cron.AddFunc(spec, func() { p.poll(ctx) }); err != nil {
		return fmt.Errorf("schedule poll job: %w", err)
	}
	p.cron.Start()
	p.logger.Info("change poller started", "interval", p.interval.String())
	return nil
}

// Stop halts polling and waits for an in-progress poll to finish.
func (p *ChangePoller) Stop() {
	if p.cron == nil {
		return
	}
	<-p.cron.Stop().Done()
	p.logger.Info("change poller stopped")
}

func (p *ChangePoller) poll(ctx context.Context) {
	current, err := p.source.Checksum(ctx)
	if err != nil {
		p.logger.Warn("production checksum failed", "error", err)
		return
	}
	last := p.store.LastChecksum()
	if current.Equal(last) {
		return
	}
	p.logger.Info("production data changed, retraining",
		"rows", current.RowCount,
		"max_id", current.MaxID)
	if _, err := p.store.Retrain(ctx); err != nil {
		p.logger.Warn("automatic retrain failed", "error", err)
	}
}
