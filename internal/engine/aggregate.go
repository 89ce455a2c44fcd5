package engine

import (
	"sort"

	"github.com/gestion-dotacion/prediccion-engine/internal/models"
)

// DefaultNoJustification is the marker the rest of the application writes
// when a production row represents normal output.
const DefaultNoJustification = "ninguna"

// FilterPolicy decides which raw records count as productive. The source
// data carries a justification marker on non-productive entries (leave,
// training); MinOutput additionally drops rows below a noise floor.
type FilterPolicy struct {
	NoJustification string
	MinOutput       float64
}

// DefaultFilterPolicy keeps every row whose justification equals the
// application's "no justification" marker.
func DefaultFilterPolicy() FilterPolicy {
	return FilterPolicy{NoJustification: DefaultNoJustification}
}

// Productive reports whether a record represents normal output under the
// policy.
func (p FilterPolicy) Productive(rec models.ProductionRecord) bool {
	marker := p.NoJustification
	if marker == "" {
		marker = DefaultNoJustification
	}
	if rec.Justification != "" && rec.Justification != marker {
		return false
	}
	return rec.Output >= p.MinOutput
}

// Aggregator reduces raw production records into the monthly series the
// estimators consume.
type Aggregator struct {
	policy FilterPolicy
}

// NewAggregator builds an Aggregator with the supplied filter policy.
func NewAggregator(policy FilterPolicy) *Aggregator {
	if policy.NoJustification == "" {
		policy.NoJustification = DefaultNoJustification
	}
	return &Aggregator{policy: policy}
}

// MonthlyTotals sums productive output per (year, month), keeps months with
// a positive total and returns them sorted ascending by period index. An
// empty result is not an error: callers treat it as "untrained".
func (a *Aggregator) MonthlyTotals(records []models.ProductionRecord) []models.MonthlyObservation {
	totals := make(map[int]*models.MonthlyObservation)
	for _, rec := range records {
		if !a.policy.Productive(rec) {
			continue
		}
		idx := models.PeriodIndex(rec.Year, rec.Month)
		obs, ok := totals[idx]
		if !ok {
			obs = &models.MonthlyObservation{PeriodIndex: idx, Year: rec.Year, Month: rec.Month}
			totals[idx] = obs
		}
		obs.TotalOutput += rec.Output
	}

	out := make([]models.MonthlyObservation, 0, len(totals))
	for _, obs := range totals {
		if obs.TotalOutput > 0 {
			out = append(out, *obs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodIndex < out[j].PeriodIndex })
	return out
}

// WorkerMonthlyTotals sums productive output per worker per month. The
// result order is unspecified; consumers must not depend on it.
func (a *Aggregator) WorkerMonthlyTotals(records []models.ProductionRecord) []models.WorkerPeriodOutput {
	type key struct {
		worker string
		period int
	}
	totals := make(map[key]*models.WorkerPeriodOutput)
	for _, rec := range records {
		if !a.policy.Productive(rec) {
			continue
		}
		k := key{worker: rec.WorkerID, period: models.PeriodIndex(rec.Year, rec.Month)}
		sum, ok := totals[k]
		if !ok {
			sum = &models.WorkerPeriodOutput{WorkerID: rec.WorkerID, Year: rec.Year, Month: rec.Month}
			totals[k] = sum
		}
		sum.Output += rec.Output
	}

	out := make([]models.WorkerPeriodOutput, 0, len(totals))
	for _, sum := range totals {
		out = append(out, *sum)
	}
	return out
}

// ActiveWorkers counts distinct workers with productive output in the given
// month.
func (a *Aggregator) ActiveWorkers(records []models.ProductionRecord, year, month int) int {
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.Year != year || rec.Month != month {
			continue
		}
		if !a.policy.Productive(rec) {
			continue
		}
		seen[rec.WorkerID] = struct{}{}
	}
	return len(seen)
}
