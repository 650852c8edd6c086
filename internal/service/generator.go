package service

import (
	"math/rand"

	"valuator/internal/model"
)

// SyntheticReferenceYear is the fixed year the synthetic pricing formula measures age from.
// It deliberately differs from the real calendar year used by the confidence estimator.
const SyntheticReferenceYear = 2025

// Placeholders for fields the synthetic formula ignores
const (
	SyntheticCity    = "synthetic"
	SyntheticCountry = "synthetic"
)

// Synthetic pricing formula constants
const (
	basePrice         = 2_500_000.0
	pricePerSqft      = 2_000.0
	pricePerBedroom   = 500_000.0
	pricePerBathroom  = 300_000.0
	pricePerYearOfAge = 20_000.0
	garagePremium     = 400_000.0
	poolPremium       = 600_000.0
	noiseSpread       = 0.1 // labels vary by ±10%
	poolProbability   = 0.3
	garageProbability = 0.5
)

var locationMultipliers = map[string]float64{
	model.LocationUrban:    1.3,
	model.LocationSuburban: 1.1,
	model.LocationRural:    0.9,
}

var stateMultipliers = map[string]float64{
	StateMaharashtra: 1.5,
	StateKarnataka:   1.4,
	StateDelhi:       1.6,
	StateTamilNadu:   1.3,
	StateGujarat:     1.2,
}

// SyntheticGenerator produces labelled training data from the fixed pricing formula.
// It is not safe for concurrent use.
type SyntheticGenerator struct {
	rng *rand.Rand
}

// NewSyntheticGenerator creates a generator drawing from the given source
func NewSyntheticGenerator(src rand.Source) *SyntheticGenerator {
	return &SyntheticGenerator{rng: rand.New(src)}
}

// Generate samples count independent properties and labels each one
func (g *SyntheticGenerator) Generate(count int) []model.TrainingExample {
	if count <= 0 {
		return nil
	}

	examples := make([]model.TrainingExample, count)
	for i := range examples {
		f := g.sampleFeatures()
		examples[i] = model.TrainingExample{
			Features: f,
			Price:    SyntheticPrice(f, g.noise()),
		}
	}
	return examples
}

func (g *SyntheticGenerator) sampleFeatures() model.PropertyFeatures {
	return model.PropertyFeatures{
		Size:      SizeMin + g.rng.Float64()*(SizeMax-SizeMin),
		Bedrooms:  float64(g.intBetween(int(BedroomsMin), int(BedroomsMax))),
		Bathrooms: float64(g.intBetween(int(BathroomsMin), int(BathroomsMax))),
		YearBuilt: g.intBetween(YearBuiltMin, YearBuiltMax),
		Location:  Locations[g.rng.Intn(len(Locations))],
		State:     States[g.rng.Intn(len(States))],
		City:      SyntheticCity,
		Country:   SyntheticCountry,
		HasGarage: g.rng.Float64() < garageProbability,
		HasPool:   g.rng.Float64() < poolProbability,
	}
}

// intBetween returns a uniform integer in [lo, hi]
func (g *SyntheticGenerator) intBetween(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// noise returns a uniform multiplier in [0.9, 1.1]
func (g *SyntheticGenerator) noise() float64 {
	return 1 - noiseSpread + g.rng.Float64()*2*noiseSpread
}

// SyntheticPrice applies the pricing formula to f and scales the result by noise.
// Properties built after SyntheticReferenceYear reduce the price; age is not clamped.
func SyntheticPrice(f model.PropertyFeatures, noise float64) float64 {
	price := basePrice +
		f.Size*pricePerSqft +
		f.Bedrooms*pricePerBedroom +
		f.Bathrooms*pricePerBathroom

	if m, ok := locationMultipliers[f.Location]; ok {
		price *= m
	}
	if m, ok := stateMultipliers[f.State]; ok {
		price *= m
	}

	price += float64(SyntheticReferenceYear-f.YearBuilt) * pricePerYearOfAge

	if f.HasGarage {
		price += garagePremium
	}
	if f.HasPool {
		price += poolPremium
	}

	return price * noise
}
