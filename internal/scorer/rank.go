package scorer

import (
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/exportedge/freight-advisor/internal/graph"
	"github.com/exportedge/freight-advisor/internal/model"
)

// DefaultTopN is how many ranked recommendations are returned unless the
// caller asks for more.
const DefaultTopN = 2

// Ranker turns graph offers into the final ordered recommendation list.
type Ranker struct {
	TopN int
}

// NewRanker builds a Ranker; topN values below one fall back to DefaultTopN.
func NewRanker(topN int) Ranker {
	if topN < 1 {
		topN = DefaultTopN
	}
	return Ranker{TopN: topN}
}

// Rank scores every offer for the order, sorts descending by score with ties
// broken by carrier name ascending, attaches profile narratives and
// position-based verdicts, and returns the top N.
//
// An offer whose delivery window cannot be parsed scores zero rather than
// failing the whole ranking.
func (r Ranker) Rank(offers []graph.Offer, hazmat, prime bool) []model.Recommendation {
	recs := make([]model.Recommendation, 0, len(offers))
	for _, o := range offers {
		recs = append(recs, r.build(o, hazmat, prime))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Carrier < recs[j].Carrier
	})

	for i := range recs {
		recs[i].Verdict = verdict(i, recs[i].Score, hazmat)
	}

	if len(recs) > r.TopN {
		recs = recs[:r.TopN]
	}
	return recs
}

func (r Ranker) build(o graph.Offer, hazmat, prime bool) model.Recommendation {
	profile, known := LookupProfile(o.Carrier)

	certified := hazmat && profile.HazmatCertified
	primeApplied := prime && profile.PrimePartner

	days, err := model.ParseDeliveryDays(o.DeliveryTime)
	score := 0.0
	if err != nil {
		zap.L().Warn("unparseable delivery window, scoring zero",
			zap.String("carrier", o.Carrier),
			zap.String("delivery_time", o.DeliveryTime),
			zap.Error(err))
	} else {
		score = Score(Input{
			Price:           o.NegotiatedPrice,
			DeliveryDays:    days,
			EmissionsKg:     o.CO2Emissions,
			Hazmat:          hazmat,
			Prime:           prime,
			HazmatCertified: certified,
			PrimeBenefits:   primeApplied,
		})
	}

	rec := model.Recommendation{
		Carrier:        o.Carrier,
		Price:          o.NegotiatedPrice,
		DeliveryTime:   o.DeliveryTime,
		Emissions:      strconv.FormatFloat(o.CO2Emissions, 'g', -1, 64) + " kg CO2",
		TransportMode:  o.TransportMode,
		HazmatHandling: "Standard",
		PrimeBenefits:  "N/A",
		Score:          score,
	}
	if certified {
		rec.HazmatHandling = "Certified"
	}
	if primeApplied {
		rec.PrimeBenefits = "Applied"
	}
	if known {
		rec.Type = profile.Type
		rec.Strengths = profile.Strengths
		rec.IdealFor = profile.IdealFor
	}
	return rec
}

// verdict labels a ranked position. Every verdict carries the score; the top
// verdict gains a hazmat qualifier for hazardous orders.
func verdict(rank int, score float64, hazmat bool) string {
	pct := strconv.FormatFloat(score, 'f', -1, 64)
	if rank == 0 {
		v := fmt.Sprintf("Best Overall Option (Score: %s%%)", pct)
		if hazmat {
			v += " for Hazardous Materials"
		}
		return v
	}

	label := "Additional Option"
	switch rank {
	case 1:
		label = "Strong Alternative"
	case 2:
		label = "Viable Option"
	case 3:
		label = "Premium Option"
	}
	return fmt.Sprintf("%s (Score: %s%%)", label, pct)
}
