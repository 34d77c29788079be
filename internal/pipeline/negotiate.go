package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/exportedge/freight-advisor/internal/model"
	"github.com/exportedge/freight-advisor/internal/resilience"
	"github.com/exportedge/freight-advisor/pkg/anthropic"
)

const negotiatePrompt = `You are an AI logistics negotiation assistant representing a seller. Negotiate individually with each carrier based on their shipping options, balancing cost, delivery speed, and environmental impact.

### Shipping Options:
%s

### Key Details:
- Prime Membership: %s.
- Hazard Classification: %s.
- Bulk Quantity: %s units.
- Sustainability Focus: Prefer carriers with lower CO2 emissions for cost-effective and balanced options.

### Rules for Negotiation:
1. Negotiate individually with each carrier for better rates.
2. Consider discounts for bulk orders and Prime members.
3. Prioritize sustainability and cost-effective solutions.
4. Provide a detailed JSON response with:
   - negotiated_prices: List of carriers with original price, negotiated price, discount, and reasoning.
   - chat: Detailed multi-turn conversations for each carrier.

### Negotiation Conversations:
- Start by asking for discounts based on bulk orders or Prime membership.
- Ask carriers to justify their costs for expedited shipping or sustainability-related emissions.
- Negotiate further if the provided rates are not competitive.
- Finalize each negotiation with explicit rates and reasoning.
**Provide only the JSON response with the following structure, enclosed in triple backticks and labeled as json, without any additional text:**

` + "```json\n{\n  \"negotiated_prices\": [...],\n  \"chat\": {...}\n}\n```"

// looseNumber accepts a JSON number or a decorated price string.
type looseNumber struct {
	decimal.Decimal
	set bool
}

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d, perr := model.ParseMoney(s)
		if perr != nil {
			return perr
		}
		n.Decimal, n.set = d, true
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	n.Decimal, n.set = d, true
	return nil
}

type rawNegotiatedPrice struct {
	Carrier         string      `json:"carrier"`
	OriginalPrice   looseNumber `json:"original_price"`
	NegotiatedPrice looseNumber `json:"negotiated_price"`
	DiscountReason  string      `json:"discount_reason"`
}

type rawNegotiation struct {
	NegotiatedPrices []rawNegotiatedPrice        `json:"negotiated_prices"`
	Chat             map[string][]model.ChatTurn `json:"chat"`
}

// Negotiate runs the simulated bargaining round over the extracted quotes and
// returns one NegotiatedQuote per carrier plus the transcripts. A carrier the
// collaborator stays silent about keeps its original price; a negotiated
// price above the original is clamped back down.
func (p *Pipeline) Negotiate(ctx context.Context, order model.Order, quotes []model.CarrierQuote) ([]model.NegotiatedQuote, model.NegotiationChat, error) {
	prime := "No"
	if order.PrimeMember {
		prime = "Yes"
	}
	prompt := fmt.Sprintf(negotiatePrompt,
		formatOptions(quotes),
		prime,
		order.Hazard,
		order.ProductQuantity,
	)

	resp, err := resilience.Do(ctx, p.retry, "negotiate", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return p.llm.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     p.cfg.Anthropic.Model,
			MaxTokens: 5000,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return nil, nil, err
	}

	return parseNegotiation(resp.Text(), quotes)
}

// formatOptions renders quotes as the numbered list the negotiation prompt
// embeds.
func formatOptions(quotes []model.CarrierQuote) string {
	lines := make([]string, len(quotes))
	for i, q := range quotes {
		lines[i] = fmt.Sprintf("%d. Carrier: %s, Price: %s, Delivery Time: %s, CO2 Emissions: %s kg",
			i+1, q.Carrier, q.Price, q.DeliveryTime, q.CO2Emissions)
	}
	return strings.Join(lines, "\n")
}

func parseNegotiation(text string, quotes []model.CarrierQuote) ([]model.NegotiatedQuote, model.NegotiationChat, error) {
	block, err := ExtractFencedJSON(text)
	if err != nil {
		return nil, nil, err
	}

	var raw rawNegotiation
	if err := parseLoose(block, &raw); err != nil {
		return nil, nil, &MalformedResponseError{Stage: "negotiate", Fragment: block, Err: err}
	}

	// Original prices from the quote set, first occurrence per carrier.
	originals := make(map[string]decimal.Decimal)
	var carrierOrder []string
	for _, q := range quotes {
		if _, seen := originals[q.Carrier]; !seen {
			originals[q.Carrier] = q.Price
			carrierOrder = append(carrierOrder, q.Carrier)
		}
	}

	byCarrier := make(map[string]rawNegotiatedPrice)
	for _, r := range raw.NegotiatedPrices {
		if r.Carrier == "" {
			continue
		}
		byCarrier[r.Carrier] = r
	}

	results := make([]model.NegotiatedQuote, 0, len(carrierOrder))
	for _, carrier := range carrierOrder {
		original := originals[carrier]
		nq := model.NegotiatedQuote{
			Carrier:         carrier,
			OriginalPrice:   original,
			NegotiatedPrice: original,
		}

		r, ok := byCarrier[carrier]
		if !ok {
			zap.L().Warn("carrier absent from negotiation results, keeping original price",
				zap.String("carrier", carrier))
			results = append(results, nq)
			continue
		}

		nq.DiscountReason = r.DiscountReason
		if r.NegotiatedPrice.set {
			nq.NegotiatedPrice = r.NegotiatedPrice.Decimal
		}
		if nq.NegotiatedPrice.GreaterThan(original) {
			zap.L().Warn("negotiated price above original, clamping",
				zap.String("carrier", carrier),
				zap.String("negotiated", nq.NegotiatedPrice.String()),
				zap.String("original", original.String()))
			nq.NegotiatedPrice = original
		}
		results = append(results, nq)
	}

	chat := model.NegotiationChat(raw.Chat)
	if chat == nil {
		chat = model.NegotiationChat{}
	}
	return results, chat, nil
}
