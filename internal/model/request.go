package model

import "time"

// ValuationRequest represents a price estimation request from the form layer
type ValuationRequest struct {
	Size      float64 `json:"size" binding:"required,gt=0"`
	Bedrooms  float64 `json:"bedrooms" binding:"required,gte=1"`
	Bathrooms float64 `json:"bathrooms" binding:"required,gte=1"`
	Location  string  `json:"location" binding:"required,oneof=urban suburban rural"`
	City      string  `json:"city" binding:"required"`
	State     string  `json:"state" binding:"required"`
	Country   string  `json:"country"`
	YearBuilt int     `json:"year_built" binding:"required,gte=1800"`
	HasGarage bool    `json:"has_garage"`
	HasPool   bool    `json:"has_pool"`
}

// Features converts the request into the core feature record
func (r *ValuationRequest) Features() PropertyFeatures {
	return PropertyFeatures{
		Size:      r.Size,
		Bedrooms:  r.Bedrooms,
		Bathrooms: r.Bathrooms,
		Location:  r.Location,
		City:      r.City,
		State:     r.State,
		Country:   r.Country,
		YearBuilt: r.YearBuilt,
		HasGarage: r.HasGarage,
		HasPool:   r.HasPool,
	}
}

// ValuationResponse represents a price estimation response
type ValuationResponse struct {
	ID             string    `json:"id"`
	Price          float64   `json:"price"`
	FormattedPrice string    `json:"formatted_price"`
	Confidence     float64   `json:"confidence"`
	EstimatedAt    time.Time `json:"estimated_at"`
	Took           int64     `json:"took_ms"` // Response time in milliseconds
}

// ConfidenceResponse represents a confidence-only response
type ConfidenceResponse struct {
	Confidence float64 `json:"confidence"`
}

// SimilarRequest asks for stored valuations close to the given property
type SimilarRequest struct {
	Property ValuationRequest `json:"property" binding:"required"`
	Limit    int              `json:"limit"`
}

// ValuationListResponse lists stored valuations
type ValuationListResponse struct {
	Results []ValuationRecord `json:"results"`
	Total   int               `json:"total"`
}

// ModelStatusResponse reports the cached model lifecycle
type ModelStatusResponse struct {
	Trained      bool  `json:"trained"`
	TrainingRuns int64 `json:"training_runs"`
}
