package models

import "time"

// TrainedModel is the singleton forecasting model: a linear trend over
// monthly totals, a per-calendar-month seasonal adjustment table and a
// productive-capacity-per-worker scalar. It is only ever produced by a full
// retrain and replaced wholesale; Version increases with every retrain so
// readers can detect staleness without locking.
type TrainedModel struct {
	Version                int64     `json:"version"`
	Slope                  float64   `json:"pendiente"`
	Intercept              float64   `json:"intercepto"`
	SeasonalFactors        []float64 `json:"factores_estacionales"` // index 0 unused, 1..12 per calendar month
	CapacityPerWorker      float64   `json:"capacidad_por_trabajador"`
	LastTrainedPeriodIndex int       `json:"-"`
	LastTrainedYear        int       `json:"ultimo_anio"`
	LastTrainedMonth       int       `json:"ultimo_mes"`
	LastObservedOutput     float64   `json:"ultima_produccion"`
	TrainedAt              time.Time `json:"entrenado_en"`
}

// SeasonalFactor returns the multiplicative adjustment for a calendar month,
// defaulting to 1.0 when the table is absent or the month is out of range.
func (m *TrainedModel) SeasonalFactor(month int) float64 {
	if m == nil || month < 1 || month > 12 || len(m.SeasonalFactors) < 13 {
		return 1.0
	}
	f := m.SeasonalFactors[month]
	if f <= 0 {
		return 1.0
	}
	return f
}

// ChangeChecksum is a cheap fingerprint of the raw production table, held in
// memory only, used by the poller to decide whether a retrain is due.
type ChangeChecksum struct {
	RowCount     int64
	MaxTimestamp time.Time
	MaxID        int64
}

// Equal reports whether two checksums describe the same table state.
func (c ChangeChecksum) Equal(other ChangeChecksum) bool {
	return c.RowCount == other.RowCount &&
		c.MaxID == other.MaxID &&
		c.MaxTimestamp.Equal(other.MaxTimestamp)
}
