package graph

// Price tier boundaries in currency units.
const (
	tierBalancedFloor = 300
	tierUrgentFloor   = 500
)

// PriceTier classifies a carrier's base price into its informational tier.
// The tier labels offers for display; the recommendation score is computed
// separately.
func PriceTier(basePrice float64) string {
	switch {
	case basePrice < tierBalancedFloor:
		return "Cost-effective"
	case basePrice < tierUrgentFloor:
		return "Balanced"
	default:
		return "Urgent"
	}
}
