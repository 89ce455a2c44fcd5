package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/gestion-dotacion/prediccion-engine/internal/models"
	"github.com/gestion-dotacion/prediccion-engine/internal/utils"
)

// ModelRepo owns the modelo_prediccion singleton table and the append-only
// proyeccion_log history.
type ModelRepo struct {
	db *sql.DB
}

// NewModelRepo constructs the model persistence layer.
func NewModelRepo(db *sql.DB) *ModelRepo {
	return &ModelRepo{db: db}
}

// EnsureSchema creates the tables this service owns when they are missing.
// The raw production table belongs to the main application and is not
// touched here.
func (r *ModelRepo) EnsureSchema(ctx context.Context) error {
	const schema = `
        CREATE TABLE IF NOT EXISTS modelo_prediccion (
                id                  SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
                version             BIGINT NOT NULL,
                pendiente           DOUBLE PRECISION NOT NULL,
                intercepto          DOUBLE PRECISION NOT NULL,
                factores            JSONB NOT NULL,
                capacidad           DOUBLE PRECISION NOT NULL,
                ultimo_anio         INT NOT NULL,
                ultimo_mes          INT NOT NULL,
                ultima_produccion   DOUBLE PRECISION NOT NULL,
                entrenado_en        TIMESTAMPTZ NOT NULL
        );
        CREATE TABLE IF NOT EXISTS proyeccion_log (
                id              BIGSERIAL PRIMARY KEY,
                version_modelo  BIGINT NOT NULL,
                anio            INT NOT NULL,
                mes             INT NOT NULL,
                proyeccion      JSONB NOT NULL,
                creado_en       TIMESTAMPTZ NOT NULL DEFAULT now()
        );
        CREATE INDEX IF NOT EXISTS idx_proyeccion_log_creado ON proyeccion_log(creado_en);
        `
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return utils.NewAppError("model.EnsureSchema", "schema creation failed", err)
	}
	return nil
}

// Load returns the persisted model, or (nil, nil) when none exists yet.
func (r *ModelRepo) Load(ctx context.Context) (*models.TrainedModel, error) {
	const query = `
                SELECT version, pendiente, intercepto, factores, capacidad,
                       ultimo_anio, ultimo_mes, ultima_produccion, entrenado_en
                FROM modelo_prediccion
                WHERE id = 1
        `
	var m models.TrainedModel
	var factors []byte
	err := r.db.QueryRowContext(ctx, query).Scan(
		&m.Version,
		&m.Slope,
		&m.Intercept,
		&factors,
		&m.CapacityPerWorker,
		&m.LastTrainedYear,
		&m.LastTrainedMonth,
		&m.LastObservedOutput,
		&m.TrainedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewAppError("model.Load", "query failed", err)
	}
	if err := json.Unmarshal(factors, &m.SeasonalFactors); err != nil {
		return nil, utils.NewAppError("model.Load", "seasonal factors decode failed", err)
	}
	m.LastTrainedPeriodIndex = models.PeriodIndex(m.LastTrainedYear, m.LastTrainedMonth)
	return &m, nil
}

// Replace swaps the singleton row inside a transaction so readers never see
// a partially written model.
func (r *ModelRepo) Replace(ctx context.Context, model *models.TrainedModel) error {
	factors, err := json.Marshal(model.SeasonalFactors)
	if err != nil {
		return utils.NewAppError("model.Replace", "seasonal factors encode failed", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.NewAppError("model.Replace", "begin tx failed", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM modelo_prediccion WHERE id = 1`); err != nil {
		return utils.NewAppError("model.Replace", "delete failed", err)
	}
	const insert = `
                INSERT INTO modelo_prediccion
                        (id, version, pendiente, intercepto, factores, capacidad,
                         ultimo_anio, ultimo_mes, ultima_produccion, entrenado_en)
                VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9)
        `
	if _, err := tx.ExecContext(ctx, insert,
		model.Version,
		model.Slope,
		model.Intercept,
		factors,
		model.CapacityPerWorker,
		model.LastTrainedYear,
		model.LastTrainedMonth,
		model.LastObservedOutput,
		model.TrainedAt,
	); err != nil {
		return utils.NewAppError("model.Replace", "insert failed", err)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError("model.Replace", "commit failed", err)
	}
	return nil
}

// AppendProjections logs forecast records for audit display. Failures here
// are non-fatal to the projection request; callers only log them.
func (r *ModelRepo) AppendProjections(ctx context.Context, version int64, records []models.ForecastRecord) error {
	const insert = `
                INSERT INTO proyeccion_log (version_modelo, anio, mes, proyeccion)
                VALUES ($1, $2, $3, $4)
        `
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return utils.NewAppError("model.AppendProjections", "encode failed", err)
		}
		if _, err := r.db.ExecContext(ctx, insert, version, rec.Year, rec.Month, payload); err != nil {
			return utils.NewAppError("model.AppendProjections", "insert failed", err)
		}
	}
	return nil
}

// ListProjections returns the most recent projection log entries, newest
// first.
func (r *ModelRepo) ListProjections(ctx context.Context, limit int) ([]models.ProjectionLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	const query = `
                SELECT id, version_modelo, proyeccion, creado_en
                FROM proyeccion_log
                ORDER BY creado_en DESC, id DESC
                LIMIT $1
        `
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, utils.NewAppError("model.ListProjections", "query failed", err)
	}
	defer rows.Close()

	var entries []models.ProjectionLogEntry
	for rows.Next() {
		var entry models.ProjectionLogEntry
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.ModelVersion, &payload, &entry.CreatedAt); err != nil {
			return nil, utils.NewAppError("model.ListProjections", "row scan failed", err)
		}
		if err := json.Unmarshal(payload, &entry.Forecast); err != nil {
			return nil, utils.NewAppError("model.ListProjections", "decode failed", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.NewAppError("model.ListProjections", "row iteration failed", err)
	}
	return entries, nil
}
