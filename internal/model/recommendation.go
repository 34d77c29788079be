package model

// Recommendation is one carrier's ranked offer for an order. Derived from the
// graph per request; never persisted on its own.
type Recommendation struct {
	Carrier        string   `json:"carrier"`
	Price          float64  `json:"price"`
	DeliveryTime   string   `json:"delivery_time"`
	Emissions      string   `json:"emissions"`
	TransportMode  string   `json:"transport_mode"`
	HazmatHandling string   `json:"hazmat_handling"`
	PrimeBenefits  string   `json:"prime_benefits"`
	Score          float64  `json:"score"`
	Verdict        string   `json:"verdict,omitempty"`
	Type           string   `json:"recommendation_type,omitempty"`
	Strengths      []string `json:"strengths,omitempty"`
	IdealFor       []string `json:"ideal_for,omitempty"`
}

// StageStatus is the outcome of one pipeline stage.
type StageStatus string

const (
	StageComplete StageStatus = "complete"
	StageFailed   StageStatus = "failed"
)

// StageResult records one stage's outcome on the run summary.
type StageResult struct {
	Name     string      `json:"name"`
	Status   StageStatus `json:"status"`
	Duration int64       `json:"duration_ms"`
	Error    string      `json:"error,omitempty"`
}

// Summary is the canonical flattened artifact written once per order. Retries
// overwrite it in place.
type Summary struct {
	Order

	CarrierPricing   CarrierPricing    `json:"carrier_pricing"`
	NegotiatedPrices []NegotiatedQuote `json:"negotiated_prices"`
	Chat             NegotiationChat   `json:"chat"`
	Recommendations  []Recommendation  `json:"recommendations"`
	ArtifactURL      string            `json:"artifact_url,omitempty"`

	RunID  string        `json:"run_id,omitempty"`
	Stages []StageResult `json:"stages,omitempty"`
}

// CarrierPricing wraps the extracted quote list under the key the artifact
// consumers expect.
type CarrierPricing struct {
	ShippingOptions []CarrierQuote `json:"shipping_options"`
}
