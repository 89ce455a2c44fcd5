package models

// ProductionRecord is one raw row of the produccion_historica table: the
// output a worker produced in a calendar month, plus the justification
// marker used to flag non-productive entries (leave, training, ...).
type ProductionRecord struct {
	ID            int64
	WorkerID      string
	Year          int
	Month         int
	Output        float64
	Justification string
}

// MonthlyObservation is a per-month production total derived from raw
// records. Recomputed on every training run, never stored.
type MonthlyObservation struct {
	PeriodIndex int
	Year        int
	Month       int
	TotalOutput float64
}

// WorkerPeriodOutput is the productive output of a single worker in a single
// month. Used only for capacity estimation.
type WorkerPeriodOutput struct {
	WorkerID string
	Year     int
	Month    int
	Output   float64
}

// PeriodIndex maps (year, month) onto a monotonically increasing month
// counter so calendar months can be ordered and used as a regression axis.
func PeriodIndex(year, month int) int {
	return year*12 + month
}

// NextMonth advances one calendar month, wrapping December into January.
func NextMonth(year, month int) (int, int) {
	month++
	if month > 12 {
		month = 1
		year++
	}
	return year, month
}
