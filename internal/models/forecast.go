package models

import "time"

// StaffingStatus qualifies a headcount against the recommendation. The wire
// values match the rest of the application ("sub" under-staffed, "sobre"
// over-staffed, "ok" adequate).
type StaffingStatus string

const (
	StatusUnder    StaffingStatus = "sub"
	StatusOver     StaffingStatus = "sobre"
	StatusAdequate StaffingStatus = "ok"
)

// ForecastRecord is one projected month: estimated output with its ±10%
// uncertainty band, the headcount recommendation derived from capacity and
// the staffing verdict for the externally supplied current headcount.
type ForecastRecord struct {
	Year                 int            `json:"anio"`
	Month                int            `json:"mes"`
	EstimatedOutput      float64        `json:"produccion_estimada"`
	RangeMin             float64        `json:"rango_min"`
	RangeMax             float64        `json:"rango_max"`
	RecommendedHeadcount int            `json:"trabajadores_necesarios"`
	CurrentHeadcount     int            `json:"trabajadores_reales"`
	Status               StaffingStatus `json:"estado"`
	SeasonalFactor       float64        `json:"factor_estacional"`
}

// MonthAnalysis is the single-month diagnostic returned by analizar-mes:
// the month's actual total compared against the capacity-derived headcount.
type MonthAnalysis struct {
	Year                 int            `json:"anio"`
	Month                int            `json:"mes"`
	TotalOutput          float64        `json:"produccion_total"`
	ActualHeadcount      int            `json:"trabajadores_reales"`
	RecommendedHeadcount int            `json:"trabajadores_necesarios"`
	Status               StaffingStatus `json:"estado"`
}

// ProjectionLogEntry is a persisted row of the append-only projection
// history kept for audit display.
type ProjectionLogEntry struct {
	ID           int64          `json:"id"`
	ModelVersion int64          `json:"version_modelo"`
	Forecast     ForecastRecord `json:"proyeccion"`
	CreatedAt    time.Time      `json:"creado_en"`
}
