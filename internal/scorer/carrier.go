// Package scorer computes the weighted recommendation score for carrier
// offers and ranks them into the final recommendation list.
package scorer

import "math"

// Normalization ceilings. A metric past its ceiling scores negative, which
// is intentional: an offer priced above 1000 should drag the total down, not
// be flattened to zero.
const (
	maxPrice       = 1000.0
	maxDeliveryDay = 30.0
	maxEmissionsKg = 5.0
)

// Weights distributes the score across the four dimensions. The base split
// is price-heavy; hazmat and prime shipments shift weight toward service and
// speed respectively.
type Weights struct {
	Price     float64
	Time      float64
	Emissions float64
	Service   float64
}

// BaseWeights returns the unadjusted weight split.
func BaseWeights() Weights {
	return Weights{Price: 0.35, Time: 0.30, Emissions: 0.20, Service: 0.15}
}

// Adjust applies the hazmat and prime policy shifts.
func (w Weights) Adjust(hazmat, prime bool) Weights {
	if hazmat {
		w.Service += 0.10
		w.Price -= 0.05
		w.Time -= 0.05
	}
	if prime {
		w.Time += 0.05
		w.Price -= 0.05
	}
	return w
}

// Input is everything the score depends on. Score is a pure function of
// this struct: same input, same score, always.
type Input struct {
	Price        float64
	DeliveryDays float64
	EmissionsKg  float64

	Hazmat bool
	Prime  bool

	// HazmatCertified is set when the carrier record declares certified
	// hazmat handling; it only matters for hazardous orders.
	HazmatCertified bool
	// PrimeBenefits is set when prime benefits were applied to this offer.
	PrimeBenefits bool
}

// Score computes the weighted recommendation score on a 0-100 scale,
// rounded to two decimals. Values outside the normalization ceilings push
// the result below zero rather than being clamped.
func Score(in Input) float64 {
	w := BaseWeights().Adjust(in.Hazmat, in.Prime)

	priceScore := (maxPrice - in.Price) / maxPrice
	timeScore := (maxDeliveryDay - in.DeliveryDays) / maxDeliveryDay
	emissionsScore := (maxEmissionsKg - in.EmissionsKg) / maxEmissionsKg

	serviceScore := 0.5
	if in.Hazmat && in.HazmatCertified {
		serviceScore += 0.25
	}
	if in.Prime && in.PrimeBenefits {
		serviceScore += 0.25
	}

	final := 100 * (priceScore*w.Price + timeScore*w.Time + emissionsScore*w.Emissions + serviceScore*w.Service)
	return math.Round(final*100) / 100
}
