package model

import (
	"fmt"
	"strings"
)

// HazardClass is the dangerous-goods classification of a product.
type HazardClass string

const (
	Hazardous     HazardClass = "HAZARDOUS"
	NonHazardous  HazardClass = "NON_HAZARDOUS"
	HazardUnknown HazardClass = "UNKNOWN"
)

// ParseHazardClass maps free-form classifier output onto a HazardClass.
// The classifier is instructed to emit exactly one of two literal tokens;
// anything else maps to HazardUnknown rather than failing.
func ParseHazardClass(text string) HazardClass {
	token := strings.ToUpper(strings.TrimSpace(text))
	token = strings.ReplaceAll(token, "-", "_")
	switch token {
	case string(Hazardous):
		return Hazardous
	case string(NonHazardous):
		return NonHazardous
	default:
		return HazardUnknown
	}
}

// IsHazmat reports whether the order must be handled as hazardous freight.
// HazardUnknown counts as hazardous: when the classifier cannot decide we
// assume the worst case so that hazmat surcharges and restrictions are never
// silently skipped.
func (h HazardClass) IsHazmat() bool {
	return h != NonHazardous
}

// Order is a shipment order after intake conversion. OrderID is immutable;
// pipeline stages append derived fields on the summary, never here.
type Order struct {
	OrderID               string      `json:"order_id"`
	ProductName           string      `json:"product_name"`
	ProductDimensions     string      `json:"product_dimensions"`
	ProductWeight         string      `json:"product_weight"`
	ProductQuantity       string      `json:"product_quantity"`
	ProductPrice          string      `json:"product_price"`
	ProductSpecifications string      `json:"product_specifications"`
	PickupAddress         string      `json:"warehouse_pickup_address"`
	DeliveryAddress       string      `json:"customer_delivery_address"`
	PrimeMember           bool        `json:"customer_prime_member"`
	Hazard                HazardClass `json:"hazard_classification"`
}

// RequiredOrderFields are the intake attributes an order cannot be processed
// without. Order matters: error messages list missing fields in this order.
var RequiredOrderFields = []string{
	"order_id",
	"product_name",
	"customer_delivery_address",
	"product_weight",
	"product_quantity",
	"product_price",
	"product_dimensions",
	"product_specifications",
	"warehouse_pickup_address",
	"customer_prime_member",
}

// ValidationError reports a missing or out-of-range input value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// OrderFromRecord converts a raw intake record into a typed Order. The
// order_id must be present; every other attribute falls back to its zero
// value and is caught later by the artifact stage's required-field check.
func OrderFromRecord(rec Record) (Order, error) {
	id := rec["order_id"].String()
	if id == "" {
		return Order{}, &ValidationError{Field: "order_id", Reason: "missing"}
	}

	hazard := HazardUnknown
	if raw := rec["hazard_classification"].String(); raw != "" {
		hazard = ParseHazardClass(raw)
	}

	return Order{
		OrderID:               id,
		ProductName:           rec["product_name"].String(),
		ProductDimensions:     rec["product_dimensions"].String(),
		ProductWeight:         rec["product_weight"].String(),
		ProductQuantity:       rec["product_quantity"].String(),
		ProductPrice:          rec["product_price"].String(),
		ProductSpecifications: rec["product_specifications"].String(),
		PickupAddress:         rec["warehouse_pickup_address"].String(),
		DeliveryAddress:       rec["customer_delivery_address"].String(),
		PrimeMember:           rec["customer_prime_member"].Bool(),
		Hazard:                hazard,
	}, nil
}
