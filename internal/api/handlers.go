package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gestion-dotacion/prediccion-engine/internal/engine"
	"github.com/gestion-dotacion/prediccion-engine/internal/models"
)

// ForecastAPI is the service surface the HTTP handlers depend on.
type ForecastAPI interface {
	Train(ctx context.Context) (*models.TrainedModel, error)
	Project(ctx context.Context, months int) ([]models.ForecastRecord, error)
	AnalyzeMonth(ctx context.Context, year, month int) (*models.MonthAnalysis, error)
	CurrentModel() (*models.TrainedModel, error)
	History(ctx context.Context, limit int) ([]models.ProjectionLogEntry, error)
}

// Handlers adapts the forecast service to the HTTP wire format used by the
// rest of the application: {ok: true, ...} on success, {ok: false, error}
// on failure.
type Handlers struct {
	logger  *slog.Logger
	service ForecastAPI
}

// NewHandlers constructs the HTTP handler set.
func NewHandlers(logger *slog.Logger, service ForecastAPI) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{logger: logger, service: service}
}

// Register mounts all routes on the router.
func (h *Handlers) Register(router *gin.Engine) {
	router.GET("/health", h.Health)

	grp := router.Group("/prediccion")
	grp.POST("/entrenar", h.Train)
	grp.GET("/proyectar", h.Project)
	grp.GET("/analizar-mes", h.AnalyzeMonth)
	grp.GET("/historial", h.History)
	grp.GET("/modelo", h.Model)
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": "SERVING"})
}

// Train forces a retrain from the current production data.
func (h *Handlers) Train(c *gin.Context) {
	model, err := h.service.Train(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "modelo": model})
}

// Project returns the forecast for ?meses=N months.
func (h *Handlers) Project(c *gin.Context) {
	months, err := strconv.Atoi(c.DefaultQuery("meses", "3"))
	if err != nil {
		h.badRequest(c, "meses debe ser un numero entero")
		return
	}

	records, err := h.service.Project(c.Request.Context(), months)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "proyecciones": records})
}

// AnalyzeMonth diagnoses a single historical month given ?mes=M&anio=Y.
func (h *Handlers) AnalyzeMonth(c *gin.Context) {
	month, err := strconv.Atoi(c.Query("mes"))
	if err != nil {
		h.badRequest(c, "mes debe ser un numero entero")
		return
	}
	year, err := strconv.Atoi(c.Query("anio"))
	if err != nil {
		h.badRequest(c, "anio debe ser un numero entero")
		return
	}

	analysis, err := h.service.AnalyzeMonth(c.Request.Context(), year, month)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "analisis": analysis})
}

// History lists recent logged projections.
func (h *Handlers) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		h.badRequest(c, "limit debe ser un numero entero")
		return
	}

	entries, err := h.service.History(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if entries == nil {
		entries = []models.ProjectionLogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "historial": entries})
}

// Model exposes the active model coefficients for diagnostics.
func (h *Handlers) Model(c *gin.Context) {
	model, err := h.service.CurrentModel()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "modelo": model})
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}

// fail maps domain errors onto 4xx responses and hides everything else
// behind a generic 500.
func (h *Handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidHorizon),
		errors.Is(err, engine.ErrInvalidPeriod),
		errors.Is(err, engine.ErrInsufficientData):
		h.badRequest(c, err.Error())
	case errors.Is(err, engine.ErrModelNotTrained),
		errors.Is(err, engine.ErrNoDataForPeriod):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	default:
		h.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "error interno"})
	}
}
