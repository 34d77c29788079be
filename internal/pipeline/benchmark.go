package pipeline

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Benchmark pricing gives negotiation a rule-based reference point when no
// market data is available: a distance/weight linear rate scaled by service
// level.
var (
	benchmarkDistanceRate = decimal.NewFromFloat(0.50) // per mile
	benchmarkWeightRate   = decimal.NewFromFloat(0.75) // per pound

	serviceMultipliers = map[string]decimal.Decimal{
		"standard": decimal.NewFromInt(1),
		"express":  decimal.NewFromFloat(1.5),
		"priority": decimal.NewFromInt(2),
	}
)

// CalculateBenchmarkPrice computes the reference price for a shipment,
// rounded to cents. Unknown service levels fall back to the standard
// multiplier.
func CalculateBenchmarkPrice(weightLbs, distanceMiles float64, serviceLevel string) decimal.Decimal {
	multiplier, ok := serviceMultipliers[strings.ToLower(strings.TrimSpace(serviceLevel))]
	if !ok {
		multiplier = serviceMultipliers["standard"]
	}

	base := benchmarkDistanceRate.Mul(decimal.NewFromFloat(distanceMiles)).
		Add(benchmarkWeightRate.Mul(decimal.NewFromFloat(weightLbs)))
	return base.Mul(multiplier).Round(2)
}
