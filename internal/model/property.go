package model

// Location classes accepted by the encoder
const (
	LocationUrban    = "urban"
	LocationSuburban = "suburban"
	LocationRural    = "rural"
)

// EncodedVectorWidth is the number of components produced by the feature encoder
const EncodedVectorWidth = 12

// PropertyFeatures represents the raw attributes of a residential property
type PropertyFeatures struct {
	Size      float64 `json:"size"`      // square feet
	Bedrooms  float64 `json:"bedrooms"`
	Bathrooms float64 `json:"bathrooms"`
	Location  string  `json:"location"` // urban, suburban or rural
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"` // informational only
	YearBuilt int     `json:"year_built"`
	HasGarage bool    `json:"has_garage"`
	HasPool   bool    `json:"has_pool"`
}

// EncodedVector is the fixed-width numeric representation fed to the model.
//
// Layout: size, bedrooms, bathrooms, year built (normalized), urban,
// suburban, rural (one-hot), three state embedding components, garage, pool.
type EncodedVector [EncodedVectorWidth]float64

// Slice returns the vector as a float64 slice
func (v EncodedVector) Slice() []float64 {
	out := make([]float64, EncodedVectorWidth)
	copy(out, v[:])
	return out
}

// Float32 returns the vector as a float32 slice, suitable for pgvector columns
func (v EncodedVector) Float32() []float32 {
	out := make([]float32, EncodedVectorWidth)
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// TrainingExample pairs a synthetic property with its generated price label
type TrainingExample struct {
	Features PropertyFeatures
	Price    float64
}

// PredictionResult is the externally visible estimate
type PredictionResult struct {
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
}
