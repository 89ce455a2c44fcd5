package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gestion-dotacion/prediccion-engine/internal/engine"
	"github.com/gestion-dotacion/prediccion-engine/internal/models"
)

type serviceStub struct {
	model    *models.TrainedModel
	records  []models.ForecastRecord
	analysis *models.MonthAnalysis
	entries  []models.ProjectionLogEntry
	err      error
}

func (s *serviceStub) Train(ctx context.Context) (*models.TrainedModel, error) {
	return s.model, s.err
}

func (s *serviceStub) Project(ctx context.Context, months int) ([]models.ForecastRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if months < 1 || months > 24 {
		return nil, engine.ErrInvalidHorizon
	}
	return s.records, nil
}

func (s *serviceStub) AnalyzeMonth(ctx context.Context, year, month int) (*models.MonthAnalysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	if month < 1 || month > 12 {
		return nil, engine.ErrInvalidPeriod
	}
	return s.analysis, nil
}

func (s *serviceStub) CurrentModel() (*models.TrainedModel, error) {
	if s.model == nil {
		return nil, engine.ErrModelNotTrained
	}
	return s.model, nil
}

func (s *serviceStub) History(ctx context.Context, limit int) ([]models.ProjectionLogEntry, error) {
	return s.entries, s.err
}

func newTestRouter(stub *serviceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandlers(nil, stub).Register(router)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, target string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(rec, req)

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return rec, body
}

func okField(t *testing.T, body map[string]json.RawMessage) bool {
	t.Helper()
	var ok bool
	if err := json.Unmarshal(body["ok"], &ok); err != nil {
		t.Fatalf("missing ok field: %v", err)
	}
	return ok
}

func sampleForecast() []models.ForecastRecord {
	return []models.ForecastRecord{
		{
			Year: 2025, Month: 7,
			EstimatedOutput: 1000, RangeMin: 900, RangeMax: 1100,
			RecommendedHeadcount: 10, CurrentHeadcount: 8,
			Status: models.StatusUnder, SeasonalFactor: 1,
		},
	}
}

func TestProjectEndpoint(t *testing.T) {
	router := newTestRouter(&serviceStub{records: sampleForecast()})

	rec, body := doRequest(t, router, http.MethodGet, "/prediccion/proyectar?meses=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !okField(t, body) {
		t.Fatal("ok = false on success")
	}

	var records []models.ForecastRecord
	if err := json.Unmarshal(body["proyecciones"], &records); err != nil {
		t.Fatalf("proyecciones decode: %v", err)
	}
	if len(records) != 1 || records[0].Status != models.StatusUnder {
		t.Fatalf("unexpected payload: %+v", records)
	}
}

func TestProjectDefaultsToThreeMonths(t *testing.T) {
	stub := &serviceStub{records: sampleForecast()}
	router := newTestRouter(stub)

	rec, _ := doRequest(t, router, http.MethodGet, "/prediccion/proyectar")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestProjectRejectsBadQuery(t *testing.T) {
	router := newTestRouter(&serviceStub{records: sampleForecast()})

	for _, target := range []string{
		"/prediccion/proyectar?meses=abc",
		"/prediccion/proyectar?meses=0",
		"/prediccion/proyectar?meses=-2",
	} {
		rec, body := doRequest(t, router, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, rec.Code)
		}
		if okField(t, body) {
			t.Fatalf("%s: ok = true on error", target)
		}
		if _, present := body["error"]; !present {
			t.Fatalf("%s: error message missing", target)
		}
	}
}

func TestProjectInsufficientData(t *testing.T) {
	router := newTestRouter(&serviceStub{err: engine.ErrInsufficientData})

	rec, body := doRequest(t, router, http.MethodGet, "/prediccion/proyectar?meses=3")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if okField(t, body) {
		t.Fatal("ok = true on error")
	}
}

func TestTrainEndpoint(t *testing.T) {
	model := &models.TrainedModel{Version: 7, CapacityPerWorker: 500, TrainedAt: time.Now().UTC()}
	router := newTestRouter(&serviceStub{model: model})

	rec, body := doRequest(t, router, http.MethodPost, "/prediccion/entrenar")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got models.TrainedModel
	if err := json.Unmarshal(body["modelo"], &got); err != nil {
		t.Fatalf("modelo decode: %v", err)
	}
	if got.Version != 7 {
		t.Fatalf("version = %d, want 7", got.Version)
	}
}

func TestAnalyzeMonthEndpoint(t *testing.T) {
	analysis := &models.MonthAnalysis{
		Year: 2025, Month: 6, TotalOutput: 750,
		ActualHeadcount: 2, RecommendedHeadcount: 8,
		Status: models.StatusUnder,
	}
	router := newTestRouter(&serviceStub{analysis: analysis})

	rec, body := doRequest(t, router, http.MethodGet, "/prediccion/analizar-mes?mes=6&anio=2025")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got models.MonthAnalysis
	if err := json.Unmarshal(body["analisis"], &got); err != nil {
		t.Fatalf("analisis decode: %v", err)
	}
	if got.Status != models.StatusUnder || got.RecommendedHeadcount != 8 {
		t.Fatalf("unexpected analysis: %+v", got)
	}
}

func TestAnalyzeMonthValidation(t *testing.T) {
	router := newTestRouter(&serviceStub{})

	for _, target := range []string{
		"/prediccion/analizar-mes",
		"/prediccion/analizar-mes?mes=6",
		"/prediccion/analizar-mes?mes=x&anio=2025",
		"/prediccion/analizar-mes?mes=13&anio=2025",
	} {
		rec, _ := doRequest(t, router, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestModelEndpointBeforeTraining(t *testing.T) {
	router := newTestRouter(&serviceStub{})

	rec, body := doRequest(t, router, http.MethodGet, "/prediccion/modelo")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if okField(t, body) {
		t.Fatal("ok = true on error")
	}
}

func TestHistoryEndpointEmpty(t *testing.T) {
	router := newTestRouter(&serviceStub{})

	rec, body := doRequest(t, router, http.MethodGet, "/prediccion/historial")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var entries []models.ProjectionLogEntry
	if err := json.Unmarshal(body["historial"], &entries); err != nil {
		t.Fatalf("historial decode: %v", err)
	}
	if entries == nil {
		t.Fatal("historial should be an empty array, not null")
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&serviceStub{})

	rec, _ := doRequest(t, router, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
