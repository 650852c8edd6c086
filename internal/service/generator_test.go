package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuator/internal/model"
)

func TestSyntheticGenerator_Bounds(t *testing.T) {
	gen := NewSyntheticGenerator(rand.NewSource(42))
	examples := gen.Generate(1000)
	require.Len(t, examples, 1000)

	states := map[string]bool{}
	for _, s := range States {
		states[s] = true
	}
	locations := map[string]bool{}
	for _, l := range Locations {
		locations[l] = true
	}

	var garages, pools int
	for i, ex := range examples {
		f := ex.Features

		assert.Greater(t, ex.Price, 0.0, "example %d", i)
		assert.GreaterOrEqual(t, f.Size, SizeMin)
		assert.LessOrEqual(t, f.Size, SizeMax)
		assert.GreaterOrEqual(t, f.Bedrooms, BedroomsMin)
		assert.LessOrEqual(t, f.Bedrooms, BedroomsMax)
		assert.Equal(t, float64(int(f.Bedrooms)), f.Bedrooms, "bedrooms are whole numbers")
		assert.GreaterOrEqual(t, f.Bathrooms, BathroomsMin)
		assert.LessOrEqual(t, f.Bathrooms, BathroomsMax)
		assert.Equal(t, float64(int(f.Bathrooms)), f.Bathrooms, "bathrooms are whole numbers")
		assert.GreaterOrEqual(t, f.YearBuilt, YearBuiltMin)
		assert.LessOrEqual(t, f.YearBuilt, YearBuiltMax)
		assert.True(t, locations[f.Location], "location %q", f.Location)
		assert.True(t, states[f.State], "state %q", f.State)
		assert.Equal(t, SyntheticCity, f.City)
		assert.Equal(t, SyntheticCountry, f.Country)

		if f.HasGarage {
			garages++
		}
		if f.HasPool {
			pools++
		}
	}

	// Loose bounds around p=0.5 and p=0.3 for 1000 draws
	assert.InDelta(t, 500, garages, 100)
	assert.InDelta(t, 300, pools, 100)
}

func TestSyntheticGenerator_Reproducible(t *testing.T) {
	a := NewSyntheticGenerator(rand.NewSource(7)).Generate(50)
	b := NewSyntheticGenerator(rand.NewSource(7)).Generate(50)
	assert.Equal(t, a, b)

	c := NewSyntheticGenerator(rand.NewSource(8)).Generate(50)
	assert.NotEqual(t, a, c)
}

func TestSyntheticGenerator_NonPositiveCount(t *testing.T) {
	gen := NewSyntheticGenerator(rand.NewSource(1))
	assert.Empty(t, gen.Generate(0))
	assert.Empty(t, gen.Generate(-3))
}

func TestSyntheticGenerator_NoiseWithinTenPercent(t *testing.T) {
	gen := NewSyntheticGenerator(rand.NewSource(99))
	for _, ex := range gen.Generate(500) {
		exact := SyntheticPrice(ex.Features, 1)
		ratio := ex.Price / exact
		assert.GreaterOrEqual(t, ratio, 0.9-1e-9)
		assert.LessOrEqual(t, ratio, 1.1+1e-9)
	}
}

func TestSyntheticPrice_Formula(t *testing.T) {
	tests := []struct {
		name     string
		features model.PropertyFeatures
		noise    float64
		want     float64
	}{
		{
			name: "urban Delhi with garage",
			features: model.PropertyFeatures{
				Size: 1000, Bedrooms: 2, Bathrooms: 1, Location: "urban", State: "Delhi",
				YearBuilt: 2015, HasGarage: true,
			},
			noise: 1,
			// (2.5M + 2M + 1M + 0.3M) * 1.3 * 1.6 + 10*20k + 400k
			want: 5_800_000*1.3*1.6 + 200_000 + 400_000,
		},
		{
			name: "rural Gujarat with pool and noise",
			features: model.PropertyFeatures{
				Size: 500, Bedrooms: 1, Bathrooms: 1, Location: "rural", State: "Gujarat",
				YearBuilt: 1925, HasPool: true,
			},
			noise: 0.9,
			want:  ((4_300_000*0.9*1.2)+100*20_000+600_000) * 0.9,
		},
		{
			name: "unknown location and state use multiplier one",
			features: model.PropertyFeatures{
				Size: 100, Bedrooms: 1, Bathrooms: 1, Location: "island", State: "Goa",
				YearBuilt: 2025,
			},
			noise: 1,
			want:  3_500_000,
		},
		{
			name: "future build year lowers the price",
			features: model.PropertyFeatures{
				Size: 100, Bedrooms: 1, Bathrooms: 1, Location: "island", State: "Goa",
				YearBuilt: 2030,
			},
			noise: 1,
			want:  3_500_000 - 5*20_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SyntheticPrice(tt.features, tt.noise), 1e-3)
		})
	}
}
