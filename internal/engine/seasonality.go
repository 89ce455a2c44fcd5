package engine

import "github.com/gestion-dotacion/prediccion-engine/internal/models"

// Blend weights between the empirical monthly ratio and the seed table.
const (
	empiricalWeight = 0.7
	seedWeight      = 0.3
)

// defaultSeasonalSeeds encodes known recurring events (summer holidays,
// September slowdown, December closures). Months absent from the table seed
// at 1.0.
var defaultSeasonalSeeds = map[int]float64{
	1:  0.95,
	2:  0.85,
	3:  1.10,
	9:  0.80,
	12: 0.90,
}

// DefaultSeasonalSeeds returns a copy of the built-in seed table.
func DefaultSeasonalSeeds() map[int]float64 {
	seeds := make(map[int]float64, len(defaultSeasonalSeeds))
	for m, f := range defaultSeasonalSeeds {
		seeds[m] = f
	}
	return seeds
}

// SeasonalFactors derives the per-calendar-month multiplicative adjustment
// table: the ratio observed/predicted averaged per month, blended with the
// seed table. Predicted values are clamped to at least 1 before dividing.
// Months with no observations use an empirical ratio of 1.0, so their final
// factor is 0.7 + 0.3·seed. The returned slice is indexed 1..12 (index 0
// unused, set to 1).
func SeasonalFactors(obs []models.MonthlyObservation, trend TrendLine, seeds map[int]float64) []float64 {
	if seeds == nil {
		seeds = defaultSeasonalSeeds
	}

	var ratioSum [13]float64
	var ratioCount [13]int
	for _, o := range obs {
		predicted := trend.PredictAt(o.PeriodIndex)
		if predicted <= 0 {
			predicted = 1
		}
		ratioSum[o.Month] += o.TotalOutput / predicted
		ratioCount[o.Month]++
	}

	factors := make([]float64, 13)
	factors[0] = 1
	for month := 1; month <= 12; month++ {
		empirical := 1.0
		if ratioCount[month] > 0 {
			empirical = ratioSum[month] / float64(ratioCount[month])
		}
		seed, ok := seeds[month]
		if !ok {
			seed = 1.0
		}
		factors[month] = empirical*empiricalWeight + seed*seedWeight
	}
	return factors
}
