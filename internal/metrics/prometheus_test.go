package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPrediction(t *testing.T) {
	success := testutil.ToFloat64(Predictions.WithLabelValues("success"))
	failed := testutil.ToFloat64(Predictions.WithLabelValues("error"))

	RecordPrediction(5*time.Millisecond, nil)
	RecordPrediction(5*time.Millisecond, errors.New("boom"))
	RecordPrediction(5*time.Millisecond, nil)

	assert.Equal(t, success+2, testutil.ToFloat64(Predictions.WithLabelValues("success")))
	assert.Equal(t, failed+1, testutil.ToFloat64(Predictions.WithLabelValues("error")))
}

func TestRecordTraining(t *testing.T) {
	RecordTraining(time.Second, 0.25, 0.5, nil)
	assert.Equal(t, 0.25, testutil.ToFloat64(TrainingLoss.WithLabelValues("train")))
	assert.Equal(t, 0.5, testutil.ToFloat64(TrainingLoss.WithLabelValues("validation")))

	// A failed run leaves the last good loss in place
	RecordTraining(time.Second, 9, 9, errors.New("non-finite"))
	assert.Equal(t, 0.25, testutil.ToFloat64(TrainingLoss.WithLabelValues("train")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	Init()
	Init()
	RecordPrediction(time.Millisecond, nil)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "valuator_predictions_total"))
}
