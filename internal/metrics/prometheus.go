package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Model lifecycle
	TrainingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuator_model_training_runs_total",
			Help: "Total number of model training runs",
		},
		[]string{"status"}, // status: success|error
	)

	TrainingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "valuator_model_training_duration_seconds",
			Help:    "Model training duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	TrainingLoss = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "valuator_model_final_loss",
			Help: "Loss after the last training epoch",
		},
		[]string{"split"}, // split: train|validation
	)

	// Estimates
	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuator_predictions_total",
			Help: "Total number of price predictions",
		},
		[]string{"status"}, // status: success|error
	)

	PredictionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "valuator_prediction_latency_seconds",
			Help:    "Price prediction latency in seconds, including any wait for training",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 1, 5, 30},
		},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "valuator_confidence_score",
			Help:    "Distribution of confidence scores",
			Buckets: prometheus.LinearBuckets(70, 5, 6),
		},
	)

	// Persistence
	RepositoryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuator_repository_errors_total",
			Help: "Total number of valuation repository errors",
		},
		[]string{"operation"},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(TrainingRuns)
		prometheus.MustRegister(TrainingDuration)
		prometheus.MustRegister(TrainingLoss)
		prometheus.MustRegister(Predictions)
		prometheus.MustRegister(PredictionLatency)
		prometheus.MustRegister(ConfidenceScore)
		prometheus.MustRegister(RepositoryErrors)
	})
}

// Handler returns the Prometheus exposition handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordTraining records the outcome of a training run
func RecordTraining(duration time.Duration, trainLoss, valLoss float64, err error) {
	TrainingDuration.Observe(duration.Seconds())
	if err != nil {
		TrainingRuns.WithLabelValues("error").Inc()
		return
	}
	TrainingRuns.WithLabelValues("success").Inc()
	TrainingLoss.WithLabelValues("train").Set(trainLoss)
	TrainingLoss.WithLabelValues("validation").Set(valLoss)
}

// RecordPrediction records the outcome of a price prediction
func RecordPrediction(duration time.Duration, err error) {
	PredictionLatency.Observe(duration.Seconds())
	if err != nil {
		Predictions.WithLabelValues("error").Inc()
		return
	}
	Predictions.WithLabelValues("success").Inc()
}
