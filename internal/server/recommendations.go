package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/exportedge/freight-advisor/internal/scorer"
)

// handleRecommendations re-ranks the stored offers for an order. The order's
// hazmat and prime flags come from the order vertex, so the ranking matches
// what the pipeline produced unless top_n asks for a longer list.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := s.graph.GetOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, eris.Wrap(err, "looking up order"), false)
		return
	}
	if order == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":         "order not found",
			"retry_allowed": false,
		})
		return
	}

	offers, err := s.graph.Offers(r.Context(), orderID)
	if err != nil {
		writeError(w, eris.Wrap(err, "reading offers"), false)
		return
	}

	ranker := s.ranker()
	if v := r.URL.Query().Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, eris.New("top_n must be a positive integer"), false)
			return
		}
		ranker = scorer.NewRanker(n)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":        order.ID,
		"hazmat":          order.Hazmat,
		"prime":           order.Prime,
		"recommendations": ranker.Rank(offers, order.Hazmat, order.Prime),
	})
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := s.graph.PriceTiers(r.Context())
	if err != nil {
		writeError(w, eris.Wrap(err, "reading price tiers"), false)
		return
	}

	out := make([]map[string]string, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, map[string]string{
			"carrier": t.Carrier,
			"tier":    t.Tier,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tiers": out})
}
