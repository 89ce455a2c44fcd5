package engine

import (
	"math"
	"testing"

	"github.com/gestion-dotacion/prediccion-engine/internal/models"
)

func TestSeasonalFactorsUnobservedMonths(t *testing.T) {
	obs := []models.MonthlyObservation{
		obsAt(2024, 1, 1000),
		obsAt(2024, 2, 1000),
	}
	factors := SeasonalFactors(obs, FitTrend(obs), nil)

	// September is seeded at 0.80 and has no observations:
	// 0.7·1.0 + 0.3·0.80 = 0.94.
	if math.Abs(factors[9]-0.94) > 1e-9 {
		t.Fatalf("expected september factor 0.94, got %f", factors[9])
	}
	// July has no seed entry and no observations: 0.7 + 0.3·1.0 = 1.0.
	if math.Abs(factors[7]-1.0) > 1e-9 {
		t.Fatalf("expected july factor 1.0, got %f", factors[7])
	}
}

func TestSeasonalFactorsEmpiricalBlend(t *testing.T) {
	// Flat trend at 1000: a July observed at 1200 has empirical ratio 1.2,
	// and with an empty seed table July seeds at 1.0.
	factors := SeasonalFactors([]models.MonthlyObservation{
		obsAt(2023, 7, 1200),
	}, TrendLine{Slope: 0, Intercept: 1000}, map[int]float64{})

	want := 1.2*empiricalWeight + 1.0*seedWeight
	if math.Abs(factors[7]-want) > 1e-9 {
		t.Fatalf("expected july factor %f, got %f", want, factors[7])
	}
}

func TestSeasonalFactorsClampedDenominator(t *testing.T) {
	// Trend predicts a negative value at this index; the denominator is
	// clamped to 1 so the ratio stays finite.
	factors := SeasonalFactors([]models.MonthlyObservation{
		obsAt(2024, 3, 50),
	}, TrendLine{Slope: 0, Intercept: -100}, map[int]float64{})

	want := 50.0*empiricalWeight + 1.0*seedWeight
	if math.Abs(factors[3]-want) > 1e-9 {
		t.Fatalf("expected clamped ratio factor %f, got %f", want, factors[3])
	}
}
