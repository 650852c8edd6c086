package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"valuator/internal/metrics"
	"valuator/internal/model"
	"valuator/internal/utils"
	"valuator/pkg/logger"
)

// Similarity lookup limits
const (
	DefaultSimilarLimit = 5
	MaxSimilarLimit     = 50
)

var (
	// ErrNotFound indicates the valuation does not exist
	ErrNotFound = errors.New("valuation not found")

	// ErrHistoryDisabled indicates no valuation store is configured
	ErrHistoryDisabled = errors.New("valuation history is disabled")
)

// ValuationStore persists estimates and finds nearby ones
type ValuationStore interface {
	SaveValuation(ctx context.Context, record *model.ValuationRecord) error
	GetValuationByID(ctx context.Context, id string) (*model.ValuationRecord, error)
	FindSimilar(ctx context.Context, embedding []float32, limit int) ([]model.ValuationRecord, error)
	RecentValuations(ctx context.Context, limit int) ([]model.ValuationRecord, error)
}

// ValuationService handles valuation requests end to end
type ValuationService struct {
	pricing *PricingService
	store   ValuationStore // nil when history is disabled
	log     *logger.Logger
}

// NewValuationService creates a new valuation service; store may be nil
func NewValuationService(pricing *PricingService, store ValuationStore, log *logger.Logger) *ValuationService {
	if log == nil {
		log = logger.Get()
	}
	return &ValuationService{
		pricing: pricing,
		store:   store,
		log:     log.With("component", "valuation"),
	}
}

// Estimate prices a property and records the result when history is enabled
func (s *ValuationService) Estimate(ctx context.Context, req *model.ValuationRequest) (*model.ValuationResponse, error) {
	startTime := time.Now()
	features := req.Features()

	result, err := s.pricing.Estimate(ctx, features)
	if err != nil {
		s.log.Warnf("Estimation failed: %v", err)
		return nil, err
	}

	id := uuid.NewString()
	estimatedAt := s.pricing.Now()
	took := time.Since(startTime).Milliseconds()

	// Save valuation (non-blocking)
	if s.store != nil {
		record := model.NewValuationRecord(id, features, EncodeFeatures(features), result, estimatedAt)
		go func() {
			if err := s.store.SaveValuation(context.Background(), record); err != nil {
				metrics.RepositoryErrors.WithLabelValues("save").Inc()
				s.log.Warnf("Failed to save valuation %s: %v", id, err)
			}
		}()
	}

	return &model.ValuationResponse{
		ID:             id,
		Price:          result.Price,
		FormattedPrice: utils.FormatINR(result.Price),
		Confidence:     result.Confidence,
		EstimatedAt:    estimatedAt,
		Took:           took,
	}, nil
}

// Confidence scores a property without touching the model
func (s *ValuationService) Confidence(req *model.ValuationRequest) *model.ConfidenceResponse {
	return &model.ConfidenceResponse{
		Confidence: s.pricing.CalculateConfidence(req.Features()),
	}
}

// GetValuation retrieves a stored valuation by ID
func (s *ValuationService) GetValuation(ctx context.Context, id string) (*model.ValuationRecord, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	record, err := s.store.GetValuationByID(ctx, id)
	if err != nil {
		metrics.RepositoryErrors.WithLabelValues("get").Inc()
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

// Similar returns stored valuations whose encoded features are closest to the request
func (s *ValuationService) Similar(ctx context.Context, req *model.SimilarRequest) (*model.ValuationListResponse, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	if limit > MaxSimilarLimit {
		limit = MaxSimilarLimit
	}

	vec := EncodeFeatures(req.Property.Features())
	records, err := s.store.FindSimilar(ctx, vec.Float32(), limit)
	if err != nil {
		metrics.RepositoryErrors.WithLabelValues("similar").Inc()
		return nil, err
	}
	if records == nil {
		records = []model.ValuationRecord{}
	}

	return &model.ValuationListResponse{
		Results: records,
		Total:   len(records),
	}, nil
}

// Recent returns the latest stored valuations
func (s *ValuationService) Recent(ctx context.Context, limit int) (*model.ValuationListResponse, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 || limit > MaxSimilarLimit {
		limit = DefaultSimilarLimit
	}

	records, err := s.store.RecentValuations(ctx, limit)
	if err != nil {
		metrics.RepositoryErrors.WithLabelValues("recent").Inc()
		return nil, err
	}
	if records == nil {
		records = []model.ValuationRecord{}
	}

	return &model.ValuationListResponse{
		Results: records,
		Total:   len(records),
	}, nil
}

// ModelStatus reports whether the price model has been trained
func (s *ValuationService) ModelStatus() *model.ModelStatusResponse {
	est := s.pricing.Estimator()
	return &model.ModelStatusResponse{
		Trained:      est.Trained(),
		TrainingRuns: est.TrainingRuns(),
	}
}
