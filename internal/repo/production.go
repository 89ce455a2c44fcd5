package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/gestion-dotacion/prediccion-engine/internal/models"
	"github.com/gestion-dotacion/prediccion-engine/internal/utils"
)

// ProductionRepo reads the produccion_historica table owned by the main
// application. This service never writes to it.
type ProductionRepo struct {
	db *sql.DB
}

// NewProductionRepo constructs a reader over the shared Postgres handle.
func NewProductionRepo(db *sql.DB) *ProductionRepo {
	return &ProductionRepo{db: db}
}

// FetchRecords returns every raw production row in chronological order.
// Filtering of justified rows happens in the aggregator, not in SQL, so the
// productive-record policy stays configurable in one place.
func (r *ProductionRepo) FetchRecords(ctx context.Context) ([]models.ProductionRecord, error) {
	const query = `
                SELECT id, trabajador_id, anio, mes, folios, COALESCE(justificacion, 'ninguna')
                FROM produccion_historica
                ORDER BY anio, mes, id
        `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, utils.NewAppError("production.FetchRecords", "query failed", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FetchMonth returns the raw rows of a single calendar month.
func (r *ProductionRepo) FetchMonth(ctx context.Context, year, month int) ([]models.ProductionRecord, error) {
	const query = `
                SELECT id, trabajador_id, anio, mes, folios, COALESCE(justificacion, 'ninguna')
                FROM produccion_historica
                WHERE anio = $1 AND mes = $2
                ORDER BY id
        `
	rows, err := r.db.QueryContext(ctx, query, year, month)
	if err != nil {
		return nil, utils.NewAppError("production.FetchMonth", "query failed", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ActiveWorkers counts distinct workers with productive output in the given
// month, using the supplied no-justification marker.
func (r *ProductionRepo) ActiveWorkers(ctx context.Context, year, month int, noJustification string) (int, error) {
	const query = `
                SELECT COUNT(DISTINCT trabajador_id)
                FROM produccion_historica
                WHERE anio = $1 AND mes = $2
                  AND folios > 0
                  AND COALESCE(justificacion, 'ninguna') = $3
        `
	var count int
	if err := r.db.QueryRowContext(ctx, query, year, month, noJustification).Scan(&count); err != nil {
		return 0, utils.NewAppError("production.ActiveWorkers", "query failed", err)
	}
	return count, nil
}

// Checksum computes the cheap change fingerprint of the raw table.
func (r *ProductionRepo) Checksum(ctx context.Context) (models.ChangeChecksum, error) {
	const query = `
                SELECT COUNT(*),
                       COALESCE(MAX(updated_at), TIMESTAMP 'epoch'),
                       COALESCE(MAX(id), 0)
                FROM produccion_historica
        `
	var sum models.ChangeChecksum
	var maxTS time.Time
	if err := r.db.QueryRowContext(ctx, query).Scan(&sum.RowCount, &maxTS, &sum.MaxID); err != nil {
		return models.ChangeChecksum{}, utils.NewAppError("production.Checksum", "query failed", err)
	}
	sum.MaxTimestamp = maxTS.UTC()
	return sum, nil
}

func scanRecords(rows *sql.Rows) ([]models.ProductionRecord, error) {
	var records []models.ProductionRecord
	for rows.Next() {
		var rec models.ProductionRecord
		if err := rows.Scan(&rec.ID, &rec.WorkerID, &rec.Year, &rec.Month, &rec.Output, &rec.Justification); err != nil {
			return nil, utils.NewAppError("production.scan", "row scan failed", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.NewAppError("production.scan", "row iteration failed", err)
	}
	return records, nil
}
