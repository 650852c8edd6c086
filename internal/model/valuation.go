package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// ValuationRecord represents a stored price estimate
type ValuationRecord struct {
	ID         string          `json:"id" db:"id"`
	Size       float64         `json:"size" db:"size"`
	Bedrooms   float64         `json:"bedrooms" db:"bedrooms"`
	Bathrooms  float64         `json:"bathrooms" db:"bathrooms"`
	Location   string          `json:"location" db:"location"`
	City       string          `json:"city" db:"city"`
	State      string          `json:"state" db:"state"`
	Country    string          `json:"country" db:"country"`
	YearBuilt  int             `json:"year_built" db:"year_built"`
	HasGarage  bool            `json:"has_garage" db:"has_garage"`
	HasPool    bool            `json:"has_pool" db:"has_pool"`
	Price      float64         `json:"price" db:"price"`
	Confidence float64         `json:"confidence" db:"confidence"`
	Embedding  pgvector.Vector `json:"-" db:"embedding"`
	Distance   *float64        `json:"distance,omitempty" db:"distance"` // Set by similarity lookups
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// NewValuationRecord builds a record from an estimate and the vector the model saw
func NewValuationRecord(id string, f PropertyFeatures, vec EncodedVector, result PredictionResult, at time.Time) *ValuationRecord {
	return &ValuationRecord{
		ID:         id,
		Size:       f.Size,
		Bedrooms:   f.Bedrooms,
		Bathrooms:  f.Bathrooms,
		Location:   f.Location,
		City:       f.City,
		State:      f.State,
		Country:    f.Country,
		YearBuilt:  f.YearBuilt,
		HasGarage:  f.HasGarage,
		HasPool:    f.HasPool,
		Price:      result.Price,
		Confidence: result.Confidence,
		Embedding:  pgvector.NewVector(vec.Float32()),
		CreatedAt:  at,
	}
}

// Features returns the property attributes of the record
func (r *ValuationRecord) Features() PropertyFeatures {
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
