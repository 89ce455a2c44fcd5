package engine

import "errors"

// Domain errors surfaced to callers. Handlers translate these into
// 400-equivalent responses; anything else is a 500.
var (
	// ErrInsufficientData means fewer than two monthly observations exist,
	// so no trend can be fitted. Never silently replaced by a flat line.
	ErrInsufficientData = errors.New("datos insuficientes: se requieren al menos 2 meses con produccion")

	// ErrModelNotTrained means no trained model exists and lazy bootstrap
	// training was not possible.
	ErrModelNotTrained = errors.New("modelo no entrenado: ejecute /prediccion/entrenar primero")

	// ErrInvalidHorizon rejects projection horizons outside the supported
	// range.
	ErrInvalidHorizon = errors.New("horizonte invalido: meses fuera de rango")

	// ErrInvalidPeriod rejects month/year values outside the accepted range.
	ErrInvalidPeriod = errors.New("periodo invalido: mes debe estar entre 1 y 12")

	// ErrNoDataForPeriod means the requested month has no productive records.
	ErrNoDataForPeriod = errors.New("sin datos de produccion para el periodo solicitado")
)
