package engine

import (
	"math"
	"testing"

	"github.com/gestion-dotacion/prediccion-engine/internal/models"
)

func workerSum(worker string, year, month int, output float64) models.WorkerPeriodOutput {
	return models.WorkerPeriodOutput{WorkerID: worker, Year: year, Month: month, Output: output}
}

func TestCapacityMidpoint(t *testing.T) {
	est := NewCapacityEstimator()
	totals := []models.WorkerPeriodOutput{
		workerSum("w1", 2024, 1, 600),
		workerSum("w2", 2024, 1, 200),
		workerSum("w3", 2024, 1, 400),
		workerSum("w4", 2024, 1, 30), // below validity threshold, ignored
	}

	got := est.Estimate(totals, nil)
	if math.Abs(got-400) > 1e-9 {
		t.Fatalf("expected midpoint (600+200)/2 = 400, got %f", got)
	}
}

func TestCapacityOrderInvariant(t *testing.T) {
	est := NewCapacityEstimator()
	forward := []models.WorkerPeriodOutput{
		workerSum("a", 2024, 1, 120),
		workerSum("b", 2024, 2, 510),
		workerSum("c", 2024, 3, 340),
	}
	reversed := []models.WorkerPeriodOutput{forward[2], forward[1], forward[0]}

	if est.Estimate(forward, nil) != est.Estimate(reversed, nil) {
		t.Fatalf("capacity estimate depends on input order")
	}
}

func TestCapacityFallbacks(t *testing.T) {
	est := NewCapacityEstimator()

	// No valid worker samples: average monthly total / assumed headcount.
	monthly := []models.MonthlyObservation{
		obsAt(2024, 1, 2000),
		obsAt(2024, 2, 3000),
	}
	got := est.Estimate(nil, monthly)
	if math.Abs(got-250) > 1e-9 {
		t.Fatalf("expected fallback 2500/10 = 250, got %f", got)
	}

	// Nothing at all: hardcoded default.
	got = est.Estimate(nil, nil)
	if got != DefaultCapacityPerWorker {
		t.Fatalf("expected default capacity %f, got %f", DefaultCapacityPerWorker, got)
	}
}

func TestCapacityNeverBelowOne(t *testing.T) {
	est := &CapacityEstimator{MinValidOutput: 0.001, DefaultCapacity: 500, AssumedHeadcount: 10}
	totals := []models.WorkerPeriodOutput{
		workerSum("w1", 2024, 1, 0.5),
		workerSum("w2", 2024, 1, 0.7),
	}
	if got := est.Estimate(totals, nil); got < 1 {
		t.Fatalf("capacity must be floored at 1, got %f", got)
	}
}
