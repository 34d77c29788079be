package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportedge/freight-advisor/internal/graph"
)

func TestRank_TiesBreakAlphabetically(t *testing.T) {
	offers := []graph.Offer{
		{Carrier: "B", NegotiatedPrice: 400, DeliveryTime: "5-7 days", CO2Emissions: 2.0, TransportMode: "Air"},
		{Carrier: "A", NegotiatedPrice: 400, DeliveryTime: "5-7 days", CO2Emissions: 2.0, TransportMode: "Air"},
		{Carrier: "C", NegotiatedPrice: 150, DeliveryTime: "3-5 days", CO2Emissions: 1.0, TransportMode: "Sea"},
	}

	recs := NewRanker(3).Rank(offers, false, false)
	require.Len(t, recs, 3)
	assert.Equal(t, "C", recs[0].Carrier)
	assert.Equal(t, "A", recs[1].Carrier)
	assert.Equal(t, "B", recs[2].Carrier)
	assert.Equal(t, recs[1].Score, recs[2].Score)
	assert.Greater(t, recs[0].Score, recs[1].Score)
}

func TestRank_TopTwoByDefault(t *testing.T) {
	offers := []graph.Offer{
		{Carrier: "DHL", NegotiatedPrice: 200, DeliveryTime: "2-4 days", CO2Emissions: 1.2, TransportMode: "Air"},
		{Carrier: "Maersk", NegotiatedPrice: 120, DeliveryTime: "10-14 days", CO2Emissions: 0.4, TransportMode: "Sea"},
		{Carrier: "FedEx", NegotiatedPrice: 450, DeliveryTime: "1-2 days", CO2Emissions: 2.5, TransportMode: "Air"},
	}

	recs := NewRanker(0).Rank(offers, false, false)
	assert.Len(t, recs, 2)
}

func TestRank_VerdictsArePositional(t *testing.T) {
	offers := []graph.Offer{
		{Carrier: "A", NegotiatedPrice: 100, DeliveryTime: "2-4 days", CO2Emissions: 1.0, TransportMode: "Air"},
		{Carrier: "B", NegotiatedPrice: 200, DeliveryTime: "2-4 days", CO2Emissions: 1.0, TransportMode: "Air"},
		{Carrier: "C", NegotiatedPrice: 300, DeliveryTime: "2-4 days", CO2Emissions: 1.0, TransportMode: "Air"},
		{Carrier: "D", NegotiatedPrice: 400, DeliveryTime: "2-4 days", CO2Emissions: 1.0, TransportMode: "Air"},
		{Carrier: "E", NegotiatedPrice: 500, DeliveryTime: "2-4 days", CO2Emissions: 1.0, TransportMode: "Air"},
	}

	recs := NewRanker(5).Rank(offers, false, false)
	require.Len(t, recs, 5)
	assert.Contains(t, recs[0].Verdict, "Best Overall Option (Score: ")
	assert.Contains(t, recs[1].Verdict, "Strong Alternative")
	assert.Contains(t, recs[2].Verdict, "Viable Option")
	assert.Contains(t, recs[3].Verdict, "Premium Option")
	assert.Contains(t, recs[4].Verdict, "Additional Option")
}

func TestRank_HazmatQualifierOnTopVerdict(t *testing.T) {
	offers := []graph.Offer{
		{Carrier: "DHL", NegotiatedPrice: 200, DeliveryTime: "2-4 days", CO2Emissions: 1.2, TransportMode: "Air"},
		{Carrier: "Maersk", NegotiatedPrice: 120, DeliveryTime: "10-14 days", CO2Emissions: 0.4, TransportMode: "Sea"},
	}

	recs := NewRanker(2).Rank(offers, true, false)
	require.NotEmpty(t, recs)
	assert.Contains(t, recs[0].Verdict, " for Hazardous Materials")
	for _, rec := range recs[1:] {
		assert.NotContains(t, rec.Verdict, "Hazardous")
	}
}

// The worked example end to end: the DHL offer on a prime, non-hazardous
// order scores 78.2 and that figure shows up in the verdict.
func TestRank_WorkedExample(t *testing.T) {
	offers := []graph.Offer{
		{Carrier: "DHL", NegotiatedPrice: 200, DeliveryTime: "2-4 days", CO2Emissions: 1.2, TransportMode: "Air"},
	}

	recs := NewRanker(2).Rank(offers, false, true)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, 78.2, rec.Score)
	assert.Equal(t, "Best Overall Option (Score: 78.2%)", rec.Verdict)
	assert.Equal(t, "1.2 kg CO2", rec.Emissions)
	assert.Equal(t, "Standard", rec.HazmatHandling)
	assert.Equal(t, "N/A", rec.PrimeBenefits)
	assert.Equal(t, "Express Premium", rec.Type)
}

func TestRank_UnknownCarrierGetsNoNarrative(t *testing.T) {
	offers := []graph.Offer{
		{Carrier: "Acme Freight", NegotiatedPrice: 300, DeliveryTime: "4-6 days", CO2Emissions: 1.5, TransportMode: "Sea"},
	}

	recs := NewRanker(1).Rank(offers, false, false)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].Type)
	assert.Empty(t, recs[0].Strengths)
	assert.Empty(t, recs[0].IdealFor)
	assert.NotEmpty(t, recs[0].Verdict)
}

func TestRank_UnparseableDeliveryScoresZero(t *testing.T) {
	offers := []graph.Offer{
		{Carrier: "DHL", NegotiatedPrice: 200, DeliveryTime: "whenever", CO2Emissions: 1.2, TransportMode: "Air"},
		{Carrier: "Maersk", NegotiatedPrice: 120, DeliveryTime: "10-14 days", CO2Emissions: 0.4, TransportMode: "Sea"},
	}

	recs := NewRanker(2).Rank(offers, false, false)
	require.Len(t, recs, 2)
	assert.Equal(t, "Maersk", recs[0].Carrier)
	assert.Equal(t, 0.0, recs[1].Score)
}

func TestLookupProfile(t *testing.T) {
	p, ok := LookupProfile("Maersk")
	require.True(t, ok)
	assert.Equal(t, "Most Eco-Friendly", p.Type)
	assert.NotEmpty(t, p.Strengths)

	_, ok = LookupProfile("nobody")
	assert.False(t, ok)
}
