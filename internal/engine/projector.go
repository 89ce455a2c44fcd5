package engine

import (
	"math"

	"github.com/gestion-dotacion/prediccion-engine/internal/models"
)

// DefaultOverstaffTolerance is the surplus band above the recommendation
// that still counts as adequate. Policy choice: any shortfall is
// under-staffed, a surplus beyond recommended·1.15 is over-staffed,
// everything in between is adequate.
const DefaultOverstaffTolerance = 0.15

// Uncertainty band applied to every estimate.
const forecastBand = 0.10

// Projector turns a trained model into per-month forecast records.
type Projector struct {
	OverstaffTolerance float64
}

// NewProjector returns a Projector with the default staffing tolerance.
func NewProjector() *Projector {
	return &Projector{OverstaffTolerance: DefaultOverstaffTolerance}
}

// Project produces nMonths forecast records starting from the month after
// the model's last trained month. currentHeadcount is the distinct count of
// workers active in the most recent real period; when it is not positive the
// fallback lastObservedOutput/capacity is used instead.
func (p *Projector) Project(model *models.TrainedModel, nMonths, currentHeadcount int) ([]models.ForecastRecord, error) {
	if nMonths < 1 {
		return nil, ErrInvalidHorizon
	}
	if model == nil {
		return nil, ErrModelNotTrained
	}

	capacity := model.CapacityPerWorker
	if capacity < 1 {
		capacity = 1
	}
	if currentHeadcount <= 0 {
		currentHeadcount = int(math.Round(model.LastObservedOutput / capacity))
		if currentHeadcount < 1 {
			currentHeadcount = 1
		}
	}

	records := make([]models.ForecastRecord, 0, nMonths)
	year, month := model.LastTrainedYear, model.LastTrainedMonth
	idx := model.LastTrainedPeriodIndex
	for step := 0; step < nMonths; step++ {
		year, month = models.NextMonth(year, month)
		idx++

		factor := model.SeasonalFactor(month)
		estimate := (model.Slope*float64(idx) + model.Intercept) * factor
		if estimate < 0 {
			estimate = 0
		}

		recommended := int(math.Ceil(estimate / capacity))
		if recommended < 1 {
			recommended = 1
		}

		records = append(records, models.ForecastRecord{
			Year:                 year,
			Month:                month,
			EstimatedOutput:      estimate,
			RangeMin:             estimate * (1 - forecastBand),
			RangeMax:             estimate * (1 + forecastBand),
			RecommendedHeadcount: recommended,
			CurrentHeadcount:     currentHeadcount,
			Status:               p.Status(currentHeadcount, recommended),
			SeasonalFactor:       factor,
		})
	}
	return records, nil
}

// Status applies the staffing policy: under on any shortfall, over only
// beyond the tolerance band.
func (p *Projector) Status(current, recommended int) models.StaffingStatus {
	tolerance := p.OverstaffTolerance
	if tolerance <= 0 {
		tolerance = DefaultOverstaffTolerance
	}
	switch {
	case current < recommended:
		return models.StatusUnder
	case float64(current) > float64(recommended)*(1+tolerance):
		return models.StatusOver
	default:
		return models.StatusAdequate
	}
}
