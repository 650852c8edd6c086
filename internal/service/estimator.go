package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"valuator/internal/config"
	"valuator/internal/metrics"
	"valuator/internal/ml"
	"valuator/internal/model"
	"valuator/pkg/logger"
)

// PriceScale divides labels before training and multiplies predictions after,
// keeping regression targets near unit scale
const PriceScale = 1e7

const modelKey = "price-model"

// TrainingConfig is the training protocol run on the first prediction
type TrainingConfig struct {
	Samples         int
	Epochs          int
	BatchSize       int
	ValidationSplit float64
	LearningRate    float64
	Seed            int64 // 0 seeds from the clock
}

// DefaultTrainingConfig returns 1000 samples, 50 epochs, batch 32, 20% validation, lr 0.001
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Samples:         1000,
		Epochs:          50,
		BatchSize:       32,
		ValidationSplit: 0.2,
		LearningRate:    0.001,
	}
}

// NewTrainingConfig builds a training config from application config
func NewTrainingConfig(cfg *config.ModelConfig) TrainingConfig {
	return TrainingConfig{
		Samples:         cfg.TrainingSamples,
		Epochs:          cfg.Epochs,
		BatchSize:       cfg.BatchSize,
		ValidationSplit: cfg.ValidationSplit,
		LearningRate:    cfg.LearningRate,
		Seed:            cfg.Seed,
	}
}

// TrainedModel is the cached regression network and how it was trained
type TrainedModel struct {
	Network   *ml.Network
	History   *ml.History
	TrainedAt time.Time
}

// Predict returns the raw, unadjusted price for an encoded property
func (m *TrainedModel) Predict(vec model.EncodedVector) (float64, error) {
	y, err := m.Network.Predict(vec[:])
	if err != nil {
		return 0, err
	}
	return y * PriceScale, nil
}

// Estimator owns the price model. The model is trained on first use and kept
// for the life of the process; concurrent first callers share one training run.
type Estimator struct {
	cfg TrainingConfig
	log *logger.Logger

	group     singleflight.Group
	mu        sync.RWMutex
	model     *TrainedModel
	trainings atomic.Int64

	train func() (*TrainedModel, error)
}

// NewEstimator creates an estimator with no model yet
func NewEstimator(cfg TrainingConfig, log *logger.Logger) *Estimator {
	if log == nil {
		log = logger.Get()
	}
	e := &Estimator{
		cfg: cfg,
		log: log.With("component", "estimator"),
	}
	e.train = e.trainModel
	return e
}

// Model returns the trained model, training it if this is the first request.
// A caller whose ctx ends stops waiting; the training run itself continues
// and its result is still cached. Failed runs are not cached.
func (e *Estimator) Model(ctx context.Context) (*TrainedModel, error) {
	if m := e.cached(); m != nil {
		return m, nil
	}

	ch := e.group.DoChan(modelKey, func() (interface{}, error) {
		// A flight that finished between the check above and DoChan already cached the model
		if m := e.cached(); m != nil {
			return m, nil
		}

		e.trainings.Add(1)
		m, err := e.train()
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		e.model = m
		e.mu.Unlock()
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*TrainedModel), nil
	}
}

// Predict returns the raw price for vec using the cached model
func (e *Estimator) Predict(ctx context.Context, vec model.EncodedVector) (float64, error) {
	m, err := e.Model(ctx)
	if err != nil {
		return 0, err
	}
	return m.Predict(vec)
}

// Warmup trains the model ahead of the first request
func (e *Estimator) Warmup(ctx context.Context) error {
	_, err := e.Model(ctx)
	return err
}

// Trained reports whether a model is cached
func (e *Estimator) Trained() bool {
	return e.cached() != nil
}

// TrainingRuns returns how many training runs have started
func (e *Estimator) TrainingRuns() int64 {
	return e.trainings.Load()
}

func (e *Estimator) cached() *TrainedModel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// trainModel generates synthetic data and fits a fresh network on it
func (e *Estimator) trainModel() (*TrainedModel, error) {
	start := time.Now()

	seed := e.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	e.log.Infof("Training price model: %d samples, %d epochs, batch %d",
		e.cfg.Samples, e.cfg.Epochs, e.cfg.BatchSize)

	examples := NewSyntheticGenerator(rand.NewSource(rng.Int63())).Generate(e.cfg.Samples)
	x := make([][]float64, len(examples))
	y := make([]float64, len(examples))
	for i, ex := range examples {
		x[i] = EncodeFeatures(ex.Features).Slice()
		y[i] = ex.Price / PriceScale
	}

	net, err := ml.NewNetwork(model.EncodedVectorWidth, ml.DefaultArchitecture(), rng)
	if err != nil {
		return nil, fmt.Errorf("failed to build network: %w", err)
	}

	history, err := net.Fit(x, y, ml.FitConfig{
		Epochs:          e.cfg.Epochs,
		BatchSize:       e.cfg.BatchSize,
		ValidationSplit: e.cfg.ValidationSplit,
		LearningRate:    e.cfg.LearningRate,
		Rand:            rng,
		OnEpoch: func(s ml.EpochStats) {
			if s.Epoch%10 == 0 || s.Epoch == e.cfg.Epochs {
				e.log.Debugf("epoch %d: loss=%.5f val_loss=%.5f", s.Epoch, s.Loss, s.ValLoss)
			}
		},
	})
	trainLoss, valLoss := history.FinalLoss()
	metrics.RecordTraining(time.Since(start), trainLoss, valLoss, err)
	if err != nil {
		e.log.Errorf("Price model training failed: %v", err)
		return nil, fmt.Errorf("failed to train price model: %w", err)
	}

	e.log.Infof("Price model trained in %s (loss=%.5f, val_loss=%.5f)", time.Since(start).Round(time.Millisecond), trainLoss, valLoss)

	return &TrainedModel{
		Network:   net,
		History:   history,
		TrainedAt: time.Now(),
	}, nil
}
