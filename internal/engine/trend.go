package engine

import (
	"math"

	"github.com/gestion-dotacion/prediccion-engine/internal/models"
)

// TrendLine is an ordinary-least-squares fit of monthly totals against the
// period index.
type TrendLine struct {
	Slope     float64
	Intercept float64
}

// PredictAt evaluates the line at the given period index.
func (t TrendLine) PredictAt(periodIndex int) float64 {
	return t.Slope*float64(periodIndex) + t.Intercept
}

// FitTrend computes the least-squares slope and intercept over the
// observations, with x = periodIndex and y = totalOutput. A degenerate
// axis (fewer than two distinct x values) yields a flat line at the mean;
// no observations yield the zero line. Callers enforce the two-observation
// minimum separately.
func FitTrend(obs []models.MonthlyObservation) TrendLine {
	n := float64(len(obs))
	if n == 0 {
		return TrendLine{}
	}

	var sumX, sumY, sumXY, sumXX float64
	for _, o := range obs {
		x := float64(o.PeriodIndex)
		y := o.TotalOutput
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if math.Abs(denom) < 1e-9 {
		return TrendLine{Slope: 0, Intercept: sumY / n}
	}

	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n
	return TrendLine{Slope: slope, Intercept: intercept}
}
