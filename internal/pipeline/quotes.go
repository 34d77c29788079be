package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/exportedge/freight-advisor/internal/model"
	"github.com/exportedge/freight-advisor/internal/resilience"
	"github.com/exportedge/freight-advisor/pkg/anthropic"
)

const quotesPrompt = `You are an AI carrier assistant. Retrieve shipping options from the following carriers: DHL, FedEx, UPS and Bluedart only. Provide all possible options based on the following details:
Price should range from 50RS to 1000RS only. And we are dealing with Electronics products only.
We are shipping to three locations only USA, Australia and UK.
Order Details:
- Product Dimensions: %s
- Product Weight: %s
- Pickup Address: %s
- Delivery Address: %s
- Prime Member: %t
- Hazard Classification: %s

Shipping Options Needed:
1. Cost-effective option.
2. Balanced option (cost and speed).
3. Urgent delivery option.
4. Best Option.

Considerations:
- If the product is HAZARDOUS, account for additional costs, restricted transportation modes, and extended delivery times.
- Prioritize low CO2 emissions for all options.
- Provide realistic estimates for prices, delivery times, and environmental impact.

Respond ONLY with a well-formatted JSON object containing a list of shipping options under the key "shipping_options", with these keys:
- carrier: Name of the carrier (e.g., DHL, FedEx, UPS, Bluedart).
- option_type: One of "Cost-effective", "Balanced", "Urgent", or "Best Option".
- price: Price of the shipping as a string.
- delivery_time: Estimated delivery time as a string.
- co2_emissions: CO2 emissions in kg as a string.
- mode: Transportation mode (Air or Sea only).

Do not include any additional text or explanations outside of the JSON object.`

// rawQuote is a shipping option exactly as the collaborator phrases it:
// every field a string until validated.
type rawQuote struct {
	Carrier      string `json:"carrier"`
	OptionType   string `json:"option_type"`
	Price        string `json:"price"`
	DeliveryTime string `json:"delivery_time"`
	CO2Emissions string `json:"co2_emissions"`
	Mode         string `json:"mode"`
}

// ExtractQuotes asks the collaborator for shipping options and validates each
// one. Individually bad options are dropped with a warning; a reply yielding
// zero valid options is a MalformedResponseError.
func (p *Pipeline) ExtractQuotes(ctx context.Context, order model.Order) ([]model.CarrierQuote, error) {
	prompt := fmt.Sprintf(quotesPrompt,
		order.ProductDimensions,
		order.ProductWeight,
		order.PickupAddress,
		order.DeliveryAddress,
		order.PrimeMember,
		order.Hazard,
	)

	resp, err := resilience.Do(ctx, p.retry, "extract quotes", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return p.llm.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     p.cfg.Anthropic.Model,
			MaxTokens: p.cfg.Anthropic.MaxTokens,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return nil, err
	}

	return parseQuotes(resp.Text())
}

// parseQuotes turns collaborator text into validated quotes. The reply should
// be a bare JSON object, but a fenced block wrapping one is tolerated.
func parseQuotes(text string) ([]model.CarrierQuote, error) {
	body := text
	if fenced, err := ExtractFencedJSON(text); err == nil {
		body = fenced
	}

	var doc struct {
		ShippingOptions []rawQuote `json:"shipping_options"`
	}
	if err := parseLoose(body, &doc); err != nil {
		return nil, &MalformedResponseError{Stage: "extract quotes", Fragment: text, Err: err}
	}

	var quotes []model.CarrierQuote
	for _, raw := range doc.ShippingOptions {
		q, err := validateQuote(raw)
		if err != nil {
			zap.L().Warn("dropping invalid shipping option",
				zap.String("carrier", raw.Carrier),
				zap.Error(err))
			continue
		}
		quotes = append(quotes, q)
	}

	if len(quotes) == 0 {
		return nil, &MalformedResponseError{
			Stage:    "extract quotes",
			Fragment: text,
			Err:      fmt.Errorf("no valid shipping options"),
		}
	}
	return quotes, nil
}

func validateQuote(raw rawQuote) (model.CarrierQuote, error) {
	var zero model.CarrierQuote

	if raw.Carrier == "" {
		return zero, fmt.Errorf("missing carrier name")
	}

	mode, ok := model.ParseTransportMode(raw.Mode)
	if !ok {
		return zero, fmt.Errorf("transport mode %q is not Air or Sea", raw.Mode)
	}

	price, err := model.ParseMoney(raw.Price)
	if err != nil {
		return zero, err
	}

	emissions, err := model.ParseEmissionsKg(raw.CO2Emissions)
	if err != nil {
		return zero, err
	}

	if raw.DeliveryTime == "" {
		return zero, fmt.Errorf("missing delivery time")
	}

	q := model.CarrierQuote{
		Carrier:      raw.Carrier,
		OptionType:   model.OptionType(raw.OptionType),
		Price:        price,
		DeliveryTime: raw.DeliveryTime,
		CO2Emissions: emissions,
		Mode:         mode,
	}
	if !q.PriceInRange() {
		return zero, fmt.Errorf("price %s outside the 50-1000 band", price)
	}
	return q, nil
}
