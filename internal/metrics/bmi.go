package metrics

import (
	"math"

	"github.com/shopspring/decimal"
)

// BMICategory is the weight band a BMI value falls into.
type BMICategory string

const (
	Underweight  BMICategory = "Underweight"
	NormalWeight BMICategory = "Normal weight"
	Overweight   BMICategory = "Overweight"
	Obese        BMICategory = "Obese"
)

// Band lower bounds. Each bound belongs to the band that starts at it.
const (
	normalWeightFrom = 18.5
	overweightFrom   = 25.0
	obeseFrom        = 30.0
)

// NoRounding tells Round and BMI to keep the raw value.
const NoRounding int32 = -1

// Display precisions used by the HTTP API and by summaries.
const (
	DetailPlaces  int32 = 2
	SummaryPlaces int32 = 0
)

// BMIResult pairs a BMI value with its band.
type BMIResult struct {
	Value    float64     `json:"value"`
	Category BMICategory `json:"category"`
}

// BMI returns weight / (height in metres)^2 rounded to places, classified on
// the rounded value so the label always matches what is displayed. It reports
// false when either input is not positive or the quotient is not finite.
func BMI(weightKg, heightCm float64, places int32) (BMIResult, bool) {
	if !(weightKg > 0) || !(heightCm > 0) {
		return BMIResult{}, false
	}

	heightM := heightCm / 100
	raw := weightKg / (heightM * heightM)
	if !finite(raw) {
		return BMIResult{}, false
	}

	value := Round(raw, places)
	return BMIResult{Value: value, Category: Categorize(value)}, true
}

// Categorize maps a BMI value onto its band.
func Categorize(bmi float64) BMICategory {
	switch {
	case bmi < normalWeightFrom:
		return Underweight
	case bmi < overweightFrom:
		return NormalWeight
	case bmi < obeseFrom:
		return Overweight
	default:
		return Obese
	}
}

// Round rounds v half away from zero to the given number of decimal places.
// Negative places (NoRounding) and non-finite values return v unchanged.
func Round(v float64, places int32) float64 {
	if places < 0 || !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
