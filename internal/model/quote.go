package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// TransportMode is how a shipment moves. Only Air and Sea are quoted.
type TransportMode string

const (
	ModeAir TransportMode = "Air"
	ModeSea TransportMode = "Sea"
)

// ParseTransportMode normalizes a quoted mode string. Returns false for
// anything other than Air or Sea.
func ParseTransportMode(s string) (TransportMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "air":
		return ModeAir, true
	case "sea":
		return ModeSea, true
	default:
		return "", false
	}
}

// OptionType labels what a quote optimizes for.
type OptionType string

const (
	OptionCostEffective OptionType = "Cost-effective"
	OptionBalanced      OptionType = "Balanced"
	OptionUrgent        OptionType = "Urgent"
	OptionBest          OptionType = "Best Option"
)

// Quoted price bounds in currency units. Quotes outside this range are
// discarded, not clamped.
var (
	MinQuotePrice = decimal.NewFromInt(50)
	MaxQuotePrice = decimal.NewFromInt(1000)
)

// CarrierQuote is one structured shipping option extracted from collaborator
// text. Carrier names are not unique within an order: the same carrier may
// quote several option types.
type CarrierQuote struct {
	Carrier      string          `json:"carrier"`
	OptionType   OptionType      `json:"option_type"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime string          `json:"delivery_time"`
	CO2Emissions decimal.Decimal `json:"co2_emissions"`
	Mode         TransportMode   `json:"mode"`
}

// PriceInRange reports whether the quote's price sits inside the declared
// 50-1000 band.
func (q CarrierQuote) PriceInRange() bool {
	return q.Price.GreaterThanOrEqual(MinQuotePrice) && q.Price.LessThanOrEqual(MaxQuotePrice)
}

// NegotiatedQuote is a carrier's offer after the simulated bargaining step,
// keyed by carrier name against the order's CarrierQuote set.
type NegotiatedQuote struct {
	Carrier         string          `json:"carrier"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	NegotiatedPrice decimal.Decimal `json:"negotiated_price"`
	DiscountReason  string          `json:"discount_reason"`
}

// ChatTurn is a single message in a negotiation transcript.
type ChatTurn struct {
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

// NegotiationChat maps carrier name to its ordered transcript. Informational
// only; scoring never reads it.
type NegotiationChat map[string][]ChatTurn

// ParseMoney parses a quoted price string, tolerating currency decoration
// like "$450", "450 RS" or surrounding whitespace.
func ParseMoney(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimSuffix(strings.ToUpper(cleaned), "RS")
	cleaned = strings.TrimSpace(cleaned)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "parse price %q", s)
	}
	return d, nil
}

// ParseEmissionsKg parses a CO2 figure like "1.2 kg" or "1.2".
func ParseEmissionsKg(s string) (decimal.Decimal, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return decimal.Zero, eris.Errorf("parse emissions %q: empty", s)
	}
	d, err := decimal.NewFromString(fields[0])
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "parse emissions %q", s)
	}
	return d, nil
}

// ParseDeliveryDays returns the mean of a delivery range like "2-4 days".
// A single figure ("3 days") is its own mean.
func ParseDeliveryDays(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, eris.New("parse delivery time: empty")
	}

	var sum, count float64
	for part := range strings.SplitSeq(trimmed, "-") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			return 0, eris.Errorf("parse delivery time %q", s)
		}
		n, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, eris.Wrapf(err, "parse delivery time %q", s)
		}
		sum += n
		count++
	}
	return sum / count, nil
}
