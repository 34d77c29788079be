// Package graph maintains the order/carrier property graph: Order and
// Carrier vertices joined by SERVES edges carrying the negotiated offer
// terms. All implementations bind values as query parameters; carrier names
// and negotiation text come from collaborator output and are never safe to
// interpolate into query text.
package graph

import (
	"context"
	"fmt"
)

// OrderVertex is the graph's view of a shipment order.
type OrderVertex struct {
	ID     string
	Hazmat bool
	Prime  bool
}

// CarrierVertex is the graph's view of a carrier and its base offer.
type CarrierVertex struct {
	Name          string
	BasePrice     float64
	DeliveryTime  string
	CO2Emissions  float64
	TransportMode string
}

// ServesProps are the properties on a SERVES edge from carrier to order.
type ServesProps struct {
	NegotiatedPrice float64
	DeliveryTime    string
	TransportMode   string
}

// Offer is one carrier's terms for an order, read back across the SERVES
// edge: the negotiated price and delivery window from the edge, emissions
// from the carrier vertex.
type Offer struct {
	Carrier         string
	NegotiatedPrice float64
	DeliveryTime    string
	CO2Emissions    float64
	TransportMode   string
}

// CarrierTier labels a carrier with its informational price tier.
type CarrierTier struct {
	Carrier string
	Tier    string
}

// Store is the property-graph persistence interface.
//
// Upserts are idempotent so stages can be re-invoked after transient
// failures: vertex upserts are get-or-create keyed on id/name, and
// UpsertServes overwrites the existing edge's properties in place rather
// than adding a parallel edge. Last writer wins on edge properties.
type Store interface {
	UpsertOrder(ctx context.Context, order OrderVertex) error
	UpsertCarrier(ctx context.Context, carrier CarrierVertex) error
	UpsertServes(ctx context.Context, carrierName, orderID string, props ServesProps) error

	GetOrder(ctx context.Context, orderID string) (*OrderVertex, error)
	Offers(ctx context.Context, orderID string) ([]Offer, error)
	PriceTiers(ctx context.Context) ([]CarrierTier, error)

	Migrate(ctx context.Context) error
	Close() error
}

// QueryError reports a failed graph operation.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("graph query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
