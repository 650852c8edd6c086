package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuator/pkg/logger"
)

var (
	trainedOnce      sync.Once
	trainedEstimator *Estimator
)

// sharedEstimator trains the full-size model once for the whole package
func sharedEstimator(t *testing.T) *Estimator {
	t.Helper()
	trainedOnce.Do(func() {
		cfg := DefaultTrainingConfig()
		cfg.Seed = 42
		trainedEstimator = NewEstimator(cfg, logger.Nop())
	})
	return trainedEstimator
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestPricingService_PredictPrice_Scenario(t *testing.T) {
	january := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	svc := NewPricingService(sharedEstimator(t), WithClock(fixedClock(january)))

	price, err := svc.PredictPrice(context.Background(), sampleFeatures())
	require.NoError(t, err)

	assert.Greater(t, price, 0.0)
	assert.Equal(t, math.Round(price), price, "price is rounded to whole rupees")

	// The model relearns a formula whose labels sit in the millions
	assert.Greater(t, price, 1_000_000.0)
	assert.Less(t, price, 100_000_000.0)
}

func TestPricingService_PredictPrice_CityPremium(t *testing.T) {
	january := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	svc := NewPricingService(sharedEstimator(t), WithClock(fixedClock(january)))

	f := sampleFeatures()
	mumbai, err := svc.PredictPrice(context.Background(), f)
	require.NoError(t, err)

	f.City = "Nagpur"
	nagpur, err := svc.PredictPrice(context.Background(), f)
	require.NoError(t, err)

	// City only enters through the adjustment stage, never the encoder
	assert.InDelta(t, 1.4, mumbai/nagpur, 1e-5)
}

func TestPricingService_PredictPrice_Seasonal(t *testing.T) {
	est := sharedEstimator(t)
	january := NewPricingService(est, WithClock(fixedClock(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))))
	april := NewPricingService(est, WithClock(fixedClock(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))))

	jan, err := january.PredictPrice(context.Background(), sampleFeatures())
	require.NoError(t, err)
	apr, err := april.PredictPrice(context.Background(), sampleFeatures())
	require.NoError(t, err)

	assert.InDelta(t, 1.05, apr/jan, 1e-5)
}

func TestPricingService_PredictPrice_TrainsOnce(t *testing.T) {
	est := sharedEstimator(t)
	svc := NewPricingService(est)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PredictPrice(context.Background(), sampleFeatures())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), est.TrainingRuns())
}

func TestPricingService_PredictPrice_Failure(t *testing.T) {
	est := NewEstimator(smallTrainingConfig(), logger.Nop())
	boom := errors.New("non-finite loss")
	est.train = func() (*TrainedModel, error) { return nil, boom }
	svc := NewPricingService(est)

	_, err := svc.PredictPrice(context.Background(), sampleFeatures())
	assert.ErrorIs(t, err, ErrEstimationFailed)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Estimate(context.Background(), sampleFeatures())
	assert.ErrorIs(t, err, ErrEstimationFailed)
}

func TestPricingService_CalculateConfidence(t *testing.T) {
	at := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	est := NewEstimator(smallTrainingConfig(), logger.Nop())
	svc := NewPricingService(est, WithClock(fixedClock(at)))

	assert.Equal(t, 95.0, svc.CalculateConfidence(sampleFeatures()))

	f := sampleFeatures()
	f.City = ""
	f.State = ""
	assert.Equal(t, 80.0, svc.CalculateConfidence(f))

	assert.False(t, est.Trained(), "confidence never touches the model")
}

func TestPricingService_Estimate(t *testing.T) {
	at := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	svc := NewPricingService(sharedEstimator(t), WithClock(fixedClock(at)))

	result, err := svc.Estimate(context.Background(), sampleFeatures())
	require.NoError(t, err)

	assert.Greater(t, result.Price, 0.0)
	assert.Equal(t, 95.0, result.Confidence)
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 1235.0, RoundPrice(1234.5))
	assert.Equal(t, 1234.0, RoundPrice(1234.49))
	assert.Equal(t, 12_345_679.0, RoundPrice(12_345_678.9))
}
