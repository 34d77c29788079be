package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/exportedge/freight-advisor/internal/pipeline"
	"github.com/exportedge/freight-advisor/internal/resilience"
	"github.com/exportedge/freight-advisor/pkg/anthropic"
)

const negotiateAdvicePrompt = `You are a logistics pricing expert helping users negotiate carrier rates.

Shipment Details:
- Weight: %s lbs
- Distance: %s miles
- Service Level: %s
- Special Requirements: %s

Current Quotes:
%s

Negotiation History:
%s

Target Price: $%s
Benchmark Price: $%s

Please provide:
1. Analysis of current quotes vs. market rates
2. Specific negotiation strategies and talking points
3. Recommended counter-offer range
4. Key leverage points for negotiation

Format your response using Markdown for clarity.
Note: Consider current market conditions and carrier-specific factors in your analysis.`

type shipmentDetails struct {
	Weight              float64 `json:"weight"`
	Distance            float64 `json:"distance"`
	ServiceLevel        string  `json:"service_level"`
	SpecialRequirements string  `json:"special_requirements"`
}

type negotiateRequest struct {
	ShipmentDetails    *shipmentDetails  `json:"shipment_details"`
	CurrentQuotes      []json.RawMessage `json:"current_quotes"`
	NegotiationHistory []json.RawMessage `json:"negotiation_history"`
	TargetPrice        *float64          `json:"target_price"`
	IsRetrying         bool              `json:"is_retrying"`
}

func (s *Server) handleNegotiate(w http.ResponseWriter, r *http.Request) {
	var req negotiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(err, "invalid JSON format in the request body"), false)
		return
	}
	if req.ShipmentDetails == nil {
		writeError(w, eris.New("shipment details are required"), req.IsRetrying)
		return
	}

	benchmark := pipeline.CalculateBenchmarkPrice(
		req.ShipmentDetails.Weight,
		req.ShipmentDetails.Distance,
		req.ShipmentDetails.ServiceLevel,
	)

	target := "Not specified"
	if req.TargetPrice != nil {
		target = fmt.Sprintf("%g", *req.TargetPrice)
	}
	special := req.ShipmentDetails.SpecialRequirements
	if special == "" {
		special = "None"
	}

	prompt := fmt.Sprintf(negotiateAdvicePrompt,
		fmt.Sprintf("%g", req.ShipmentDetails.Weight),
		fmt.Sprintf("%g", req.ShipmentDetails.Distance),
		req.ShipmentDetails.ServiceLevel,
		special,
		rawList(req.CurrentQuotes),
		rawList(req.NegotiationHistory),
		target,
		benchmark,
	)

	text, err := s.generate(r.Context(), prompt)
	if err != nil {
		writeError(w, err, req.IsRetrying)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response":        text,
		"market_data":     marketData(benchmark),
		"benchmark_price": benchmark,
		"is_retrying":     req.IsRetrying,
	})
}

// marketData derives the advisory market context from the benchmark price.
// Static until a live rates feed exists.
func marketData(benchmark decimal.Decimal) map[string]any {
	scale := func(f float64) decimal.Decimal {
		return benchmark.Mul(decimal.NewFromFloat(f)).Round(2)
	}
	return map[string]any{
		"benchmark_price": benchmark,
		"market_analysis": map[string]any{
			"average_market_rate": scale(1.1),
			"lowest_market_rate":  scale(0.9),
			"highest_market_rate": scale(1.3),
			"price_trends":        "stable",
			"market_conditions":   "competitive",
		},
		"carrier_performance_metrics": map[string]any{
			"on_time_delivery": "95%",
			"claims_ratio":     "0.5%",
			"service_score":    4.2,
		},
		"negotiation_recommendations": map[string]any{
			"suggested_counter_offer": scale(0.95),
			"target_range": map[string]any{
				"min": scale(0.9),
				"max": scale(1.05),
			},
			"key_leverage_points": []string{
				"Volume commitment",
				"Long-term contract",
				"Payment terms",
				"Service level flexibility",
			},
		},
	}
}

const trackPrompt = `You are a shipment tracking assistant helping users track their packages and orders.
Respond to queries about shipment status, estimated delivery times, and current location.

Context:
- Tracking Number: %s
- Order ID: %s
- Carrier: %s
- Query Type: %s

When responding:
- Provide structured information about the shipment/order status
- Include estimated delivery dates when available
- List any potential delays or issues
- Suggest next steps or actions if needed
- Format the response using Markdown for clarity

Please respond with tracking information and status updates in a clear, structured format.`

type trackRequest struct {
	TrackingNumber string `json:"tracking_number"`
	OrderID        string `json:"order_id"`
	QueryType      string `json:"query_type"`
	Carrier        string `json:"carrier"`
	IsRetrying     bool   `json:"is_retrying"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(err, "invalid JSON format in the request body"), false)
		return
	}

	req.TrackingNumber = strings.TrimSpace(req.TrackingNumber)
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.TrackingNumber == "" && req.OrderID == "" {
		writeError(w, eris.New("either tracking number or order ID is required"), req.IsRetrying)
		return
	}

	queryType := req.QueryType
	if queryType == "" {
		queryType = "status"
	}

	prompt := fmt.Sprintf(trackPrompt,
		orDefault(req.TrackingNumber, "Not provided"),
		orDefault(req.OrderID, "Not provided"),
		orDefault(req.Carrier, "Not specified"),
		queryType,
	)

	text, err := s.generate(r.Context(), prompt)
	if err != nil {
		writeError(w, err, req.IsRetrying)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response":    text,
		"is_retrying": req.IsRetrying,
	})
}

const compliancePrompt = `You are a compliance officer assisting Indian exporters with documentation for shipments to the USA, Australia, and the UK.

When responding to queries:
- Provide concise, pointwise answers.
- Use Markdown formatting for clarity.
- Separate mandatory and optional documents if applicable.

Now respond to the user's query: %s`

type complianceRequest struct {
	UserInput  string `json:"user_input"`
	Language   string `json:"language"`
	IsRetrying bool   `json:"is_retrying"`
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	var req complianceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(err, "invalid JSON format in the request body"), false)
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		writeError(w, eris.New("input message is empty"), req.IsRetrying)
		return
	}

	text, err := s.generate(r.Context(), fmt.Sprintf(compliancePrompt, req.UserInput))
	if err != nil {
		writeError(w, err, req.IsRetrying)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response":    text,
		"is_retrying": req.IsRetrying,
	})
}

// generate sends one prompt under the retry policy and returns the reply
// text.
func (s *Server) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := resilience.Do(ctx, s.retry, "advisory request", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return s.llm.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     s.cfg.Anthropic.Model,
			MaxTokens: 1000,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.New("collaborator response content is empty")
	}
	return text, nil
}

func rawList(items []json.RawMessage) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
