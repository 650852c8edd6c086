package service

import (
	"math"
	"time"

	"valuator/internal/model"
)

// TrendMultiplier is the flat market growth applied to every estimate
const TrendMultiplier = 1.1

// SeasonalAmplitude scales the yearly sine cycle of the seasonal adjustment
const SeasonalAmplitude = 0.05

var cityPremiums = map[string]float64{
	"Mumbai":    1.4,
	"Bangalore": 1.3,
	"Delhi":     1.35,
	"Pune":      1.25,
	"Chennai":   1.2,
}

// IsMajorCity reports whether city carries a market premium
func IsMajorCity(city string) bool {
	_, ok := cityPremiums[city]
	return ok
}

// CityPremium returns the multiplier for city, 1.0 for cities without a premium
func CityPremium(city string) float64 {
	if m, ok := cityPremiums[city]; ok {
		return m
	}
	return 1.0
}

// SeasonalFactor returns 1 + 0.05·sin(2π·month/12) for the zero-based calendar month of at
func SeasonalFactor(at time.Time) float64 {
	month := float64(at.Month() - 1)
	return 1 + SeasonalAmplitude*math.Sin(2*math.Pi*month/12)
}

// AdjustPrice layers city premium, market trend and seasonality onto a raw model output.
// The result depends on the calendar month of at.
func AdjustPrice(raw float64, f model.PropertyFeatures, at time.Time) float64 {
	return raw * CityPremium(f.City) * TrendMultiplier * SeasonalFactor(at)
}
