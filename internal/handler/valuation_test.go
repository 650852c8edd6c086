package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuator/internal/model"
	"valuator/internal/service"
	"valuator/pkg/logger"
)

func setupRouter(t *testing.T, training service.TrainingConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	at := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	estimator := service.NewEstimator(training, logger.Nop())
	pricing := service.NewPricingService(estimator, service.WithClock(func() time.Time { return at }))
	valuations := service.NewValuationService(pricing, nil, logger.Nop())

	router := gin.New()
	NewValuationHandler(valuations).Register(router.Group("/api/v1"))
	return router
}

func quickTraining() service.TrainingConfig {
	return service.TrainingConfig{
		Samples:         100,
		Epochs:          2,
		BatchSize:       32,
		ValidationSplit: 0.2,
		LearningRate:    0.001,
		Seed:            3,
	}
}

func validBody() map[string]any {
	return map[string]any{
		"size":       1200,
		"bedrooms":   2,
		"bathrooms":  2,
		"location":   "urban",
		"city":       "Mumbai",
		"state":      "Maharashtra",
		"country":    "India",
		"year_built": 2015,
		"has_garage": true,
		"has_pool":   false,
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestEstimate_OK(t *testing.T) {
	router := setupRouter(t, quickTraining())

	w := doJSON(t, router, http.MethodPost, "/api/v1/valuations", validBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.ValuationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.ID)
	assert.NoError(t, err)
	assert.Equal(t, 95.0, resp.Confidence)
	assert.NotEmpty(t, resp.FormattedPrice)
}

func TestEstimate_Validation(t *testing.T) {
	router := setupRouter(t, quickTraining())

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{name: "unknown location", mutate: func(b map[string]any) { b["location"] = "castle" }},
		{name: "zero size", mutate: func(b map[string]any) { b["size"] = 0 }},
		{name: "missing city", mutate: func(b map[string]any) { delete(b, "city") }},
		{name: "bad type", mutate: func(b map[string]any) { b["bedrooms"] = "two" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validBody()
			tt.mutate(body)
			w := doJSON(t, router, http.MethodPost, "/api/v1/valuations", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestEstimate_TrainingFailure(t *testing.T) {
	training := quickTraining()
	training.Samples = 1
	training.ValidationSplit = 0.9 // leaves no training rows
	router := setupRouter(t, training)

	w := doJSON(t, router, http.MethodPost, "/api/v1/valuations", validBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "try again")
}

func TestConfidence(t *testing.T) {
	router := setupRouter(t, quickTraining())

	body := validBody()
	body["city"] = "Nagpur"
	w := doJSON(t, router, http.MethodPost, "/api/v1/confidence", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ConfidenceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 92.0, resp.Confidence)

	// Confidence alone never trains the model
	w = doJSON(t, router, http.MethodGet, "/api/v1/model/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status model.ModelStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Trained)
}

func TestModelStatus_AfterEstimate(t *testing.T) {
	router := setupRouter(t, quickTraining())

	for i := 0; i < 3; i++ {
		w := doJSON(t, router, http.MethodPost, "/api/v1/valuations", validBody())
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/v1/model/status", nil)
	var status model.ModelStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Trained)
	assert.Equal(t, int64(1), status.TrainingRuns)
}

func TestHistoryRoutes_Disabled(t *testing.T) {
	router := setupRouter(t, quickTraining())

	w := doJSON(t, router, http.MethodGet, "/api/v1/valuations/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/valuations", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/valuations?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/valuations/similar", map[string]any{"property": validBody()})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
