package service

import (
	"valuator/internal/model"
)

// Normalization bounds of the numeric features
const (
	SizeMin      = 100.0
	SizeMax      = 10000.0
	BedroomsMin  = 1.0
	BedroomsMax  = 10.0
	BathroomsMin = 1.0
	BathroomsMax = 8.0
	YearBuiltMin = 1900
	YearBuiltMax = 2025
)

// Supported Indian states
const (
	StateMaharashtra = "Maharashtra"
	StateKarnataka   = "Karnataka"
	StateDelhi       = "Delhi"
	StateTamilNadu   = "Tamil Nadu"
	StateGujarat     = "Gujarat"
)

// Locations lists the location classes in one-hot order
var Locations = []string{model.LocationUrban, model.LocationSuburban, model.LocationRural}

// States lists the states that have a learned embedding
var States = []string{StateMaharashtra, StateKarnataka, StateDelhi, StateTamilNadu, StateGujarat}

var stateEmbeddings = map[string][3]float64{
	StateMaharashtra: {0.8, 0.9, 0.85},
	StateKarnataka:   {0.75, 0.85, 0.8},
	StateDelhi:       {0.9, 0.95, 0.9},
	StateTamilNadu:   {0.7, 0.8, 0.75},
	StateGujarat:     {0.65, 0.75, 0.7},
}

// DefaultStateEmbedding is used for states outside the supported set
var DefaultStateEmbedding = [3]float64{0.5, 0.5, 0.5}

// Normalize maps value from [min, max] onto [0, 1]. Out-of-range values are not clamped.
func Normalize(value, min, max float64) float64 {
	return (value - min) / (max - min)
}

// StateEmbedding returns the embedding of a state, or the default for unknown states
func StateEmbedding(state string) [3]float64 {
	if emb, ok := stateEmbeddings[state]; ok {
		return emb
	}
	return DefaultStateEmbedding
}

// EncodeFeatures converts a property into the vector layout the model is trained on.
// Unknown locations encode as an all-zero one-hot, unknown states as the default embedding.
func EncodeFeatures(f model.PropertyFeatures) model.EncodedVector {
	var v model.EncodedVector

	v[0] = Normalize(f.Size, SizeMin, SizeMax)
	v[1] = Normalize(f.Bedrooms, BedroomsMin, BedroomsMax)
	v[2] = Normalize(f.Bathrooms, BathroomsMin, BathroomsMax)
	v[3] = Normalize(float64(f.YearBuilt), YearBuiltMin, YearBuiltMax)

	for i, loc := range Locations {
		if f.Location == loc {
			v[4+i] = 1
		}
	}

	emb := StateEmbedding(f.State)
	copy(v[7:10], emb[:])

	v[10] = boolToFloat(f.HasGarage)
	v[11] = boolToFloat(f.HasPool)

	return v
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
