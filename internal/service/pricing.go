package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"valuator/internal/metrics"
	"valuator/internal/model"
)

// ErrEstimationFailed is returned when training or inference cannot complete
var ErrEstimationFailed = errors.New("price estimation failed")

// PricingService composes the estimator with market adjustments and confidence scoring
type PricingService struct {
	estimator *Estimator
	now       func() time.Time
}

// PricingOption configures a PricingService
type PricingOption func(*PricingService)

// WithClock sets the clock used for seasonal and age terms
func WithClock(now func() time.Time) PricingOption {
	return func(s *PricingService) {
		s.now = now
	}
}

// NewPricingService creates a new pricing service
func NewPricingService(estimator *Estimator, opts ...PricingOption) *PricingService {
	s := &PricingService{
		estimator: estimator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictPrice estimates the market price of f rounded to whole rupees.
// It may block while the model trains for the first time.
func (s *PricingService) PredictPrice(ctx context.Context, f model.PropertyFeatures) (float64, error) {
	start := time.Now()
	price, err := s.predictPrice(ctx, f)
	metrics.RecordPrediction(time.Since(start), err)
	return price, err
}

func (s *PricingService) predictPrice(ctx context.Context, f model.PropertyFeatures) (float64, error) {
	raw, err := s.estimator.Predict(ctx, EncodeFeatures(f))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEstimationFailed, err)
	}

	adjusted := AdjustPrice(raw, f, s.now())
	if math.IsNaN(adjusted) || math.IsInf(adjusted, 0) {
		return 0, fmt.Errorf("%w: adjusted price is %v", ErrEstimationFailed, adjusted)
	}

	return RoundPrice(adjusted), nil
}

// CalculateConfidence returns the confidence score of f in [70, 95]
func (s *PricingService) CalculateConfidence(f model.PropertyFeatures) float64 {
	score := CalculateConfidence(f, s.now())
	metrics.ConfidenceScore.Observe(score)
	return score
}

// Estimate returns both the price and its confidence
func (s *PricingService) Estimate(ctx context.Context, f model.PropertyFeatures) (model.PredictionResult, error) {
	price, err := s.PredictPrice(ctx, f)
	if err != nil {
		return model.PredictionResult{}, err
	}
	return model.PredictionResult{
		Price:      price,
		Confidence: s.CalculateConfidence(f),
	}, nil
}

// Now returns the service clock's current time
func (s *PricingService) Now() time.Time {
	return s.now()
}

// Estimator returns the underlying model owner
func (s *PricingService) Estimator() *Estimator {
	return s.estimator
}

// RoundPrice rounds to the nearest whole currency unit
func RoundPrice(price float64) float64 {
	return decimal.NewFromFloat(price).Round(0).InexactFloat64()
}
