package engine

import "github.com/gestion-dotacion/prediccion-engine/internal/models"

// Capacity estimation defaults. MinValidOutput drops partial-month noise,
// DefaultCapacity is the last-resort scalar, AssumedHeadcount feeds the
// average-based fallback when no per-worker sample survives the filter.
const (
	DefaultMinValidOutput    = 50.0
	DefaultCapacityPerWorker = 500.0
	DefaultAssumedHeadcount  = 10
)

// CapacityEstimator derives the productive-capacity-per-worker scalar used
// to turn an output forecast into a headcount.
type CapacityEstimator struct {
	MinValidOutput   float64
	DefaultCapacity  float64
	AssumedHeadcount int
}

// NewCapacityEstimator returns an estimator with the documented defaults.
func NewCapacityEstimator() *CapacityEstimator {
	return &CapacityEstimator{
		MinValidOutput:   DefaultMinValidOutput,
		DefaultCapacity:  DefaultCapacityPerWorker,
		AssumedHeadcount: DefaultAssumedHeadcount,
	}
}

// Estimate computes capacity = (max + min) / 2 over per-worker monthly sums
// above the validity threshold. The midpoint is deliberate: a mean would be
// dragged down by partial-month joiners. With no valid samples it falls back
// to the average monthly total divided by the assumed headcount, then to the
// hardcoded default. The result is never below 1.
func (e *CapacityEstimator) Estimate(workerTotals []models.WorkerPeriodOutput, monthly []models.MonthlyObservation) float64 {
	minOut := e.MinValidOutput
	if minOut <= 0 {
		minOut = DefaultMinValidOutput
	}

	var haveSample bool
	var maxSum, minSum float64
	for _, wt := range workerTotals {
		if wt.Output <= minOut {
			continue
		}
		if !haveSample {
			maxSum, minSum = wt.Output, wt.Output
			haveSample = true
			continue
		}
		if wt.Output > maxSum {
			maxSum = wt.Output
		}
		if wt.Output < minSum {
			minSum = wt.Output
		}
	}

	capacity := 0.0
	switch {
	case haveSample:
		capacity = (maxSum + minSum) / 2
	case len(monthly) > 0:
		var total float64
		for _, m := range monthly {
			total += m.TotalOutput
		}
		heads := e.AssumedHeadcount
		if heads <= 0 {
			heads = DefaultAssumedHeadcount
		}
		capacity = total / float64(len(monthly)) / float64(heads)
	}

	if capacity <= 0 {
		capacity = e.DefaultCapacity
	}
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}
