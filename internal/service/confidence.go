package service

import (
	"math"
	"time"

	"valuator/internal/model"
)

// Confidence score bounds
const (
	ConfidenceBase = 85.0
	ConfidenceMin  = 70.0
	ConfidenceMax  = 95.0
)

// CalculateConfidence scores how complete and typical a property record is.
// It never consults the model; only the year of at matters.
func CalculateConfidence(f model.PropertyFeatures, at time.Time) float64 {
	score := ConfidenceBase

	score += pick(f.Size > 0, 2, -5)
	score += pick(f.Bedrooms > 0, 2, -3)
	score += pick(f.Bathrooms > 0, 2, -3)
	score += pick(f.City != "", 2, -4)
	score += pick(f.State != "", 2, -4)
	score += pick(IsMajorCity(f.City), 3, -2)

	// One point per full decade of age; future build years are not a bonus
	decades := math.Floor(float64(at.Year()-f.YearBuilt) / 10)
	score -= math.Max(0, decades)

	return math.Min(ConfidenceMax, math.Max(ConfidenceMin, score))
}

func pick(cond bool, ifTrue, ifFalse float64) float64 {
	if cond {
		return ifTrue
	}
	return ifFalse
}
