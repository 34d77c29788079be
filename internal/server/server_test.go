package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/exportedge/freight-advisor/internal/config"
	"github.com/exportedge/freight-advisor/internal/graph"
	"github.com/exportedge/freight-advisor/internal/resilience"
	"github.com/exportedge/freight-advisor/pkg/anthropic"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

type mockGraph struct {
	mock.Mock
}

func (m *mockGraph) UpsertOrder(ctx context.Context, order graph.OrderVertex) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockGraph) UpsertCarrier(ctx context.Context, carrier graph.CarrierVertex) error {
	return m.Called(ctx, carrier).Error(0)
}

func (m *mockGraph) UpsertServes(ctx context.Context, carrierName, orderID string, props graph.ServesProps) error {
	return m.Called(ctx, carrierName, orderID, props).Error(0)
}

func (m *mockGraph) GetOrder(ctx context.Context, orderID string) (*graph.OrderVertex, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*graph.OrderVertex), args.Error(1)
}

func (m *mockGraph) Offers(ctx context.Context, orderID string) ([]graph.Offer, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]graph.Offer), args.Error(1)
}

func (m *mockGraph) PriceTiers(ctx context.Context) ([]graph.CarrierTier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]graph.CarrierTier), args.Error(1)
}

func (m *mockGraph) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockGraph) Close() error {
	return m.Called().Error(0)
}

func testServer(llm anthropic.Client, g graph.Store) *Server {
	cfg := &config.Config{}
	cfg.Anthropic.Model = "claude-sonnet-4-5-20250929"
	cfg.Pipeline.TopN = 2
	cfg.Server.Port = 0

	s := New(cfg, llm, g)
	s.retry = resilience.Policy{MaxAttempts: 1}
	return s
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rr := doRequest(t, testServer(&mockLLM{}, &mockGraph{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decodeBody(t, rr)["status"])
}

func TestNegotiate(t *testing.T) {
	llm := &mockLLM{}
	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.MaxTokens == 1000 &&
			strings.Contains(req.Messages[0].Content, "Weight: 100 lbs") &&
			strings.Contains(req.Messages[0].Content, "Benchmark Price: $325")
	})).Return(textResponse("Counter at $310 citing volume."), nil).Once()

	body := `{
		"shipment_details": {"weight": 100, "distance": 500, "service_level": "standard"},
		"current_quotes": [{"carrier": "DHL", "price": 340}],
		"target_price": 300
	}`
	rr := doRequest(t, testServer(llm, &mockGraph{}), http.MethodPost, "/v1/negotiate", body)
	require.Equal(t, http.StatusOK, rr.Code)

	got := decodeBody(t, rr)
	assert.Equal(t, "Counter at $310 citing volume.", got["response"])
	assert.Equal(t, false, got["is_retrying"])
	assert.Equal(t, "325", got["benchmark_price"])

	market, ok := got["market_data"].(map[string]any)
	require.True(t, ok)
	analysis := market["market_analysis"].(map[string]any)
	assert.Equal(t, "357.5", analysis["average_market_rate"])
	assert.Equal(t, "292.5", analysis["lowest_market_rate"])
	assert.Equal(t, "422.5", analysis["highest_market_rate"])
	assert.Equal(t, "stable", analysis["price_trends"])
	assert.Equal(t, "competitive", analysis["market_conditions"])

	metrics := market["carrier_performance_metrics"].(map[string]any)
	assert.Equal(t, "95%", metrics["on_time_delivery"])
	assert.Equal(t, "0.5%", metrics["claims_ratio"])
	assert.Equal(t, 4.2, metrics["service_score"])

	recos := market["negotiation_recommendations"].(map[string]any)
	assert.Equal(t, "308.75", recos["suggested_counter_offer"])
	rng := recos["target_range"].(map[string]any)
	assert.Equal(t, "292.5", rng["min"])
	assert.Equal(t, "341.25", rng["max"])

	llm.AssertExpectations(t)
}

func TestNegotiate_MissingShipmentDetails(t *testing.T) {
	rr := doRequest(t, testServer(&mockLLM{}, &mockGraph{}), http.MethodPost, "/v1/negotiate", `{"is_retrying": false}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	got := decodeBody(t, rr)
	assert.Contains(t, got["error"], "shipment details are required")
	assert.Equal(t, true, got["retry_allowed"])
}

func TestNegotiate_RetryAllowedFlipsOff(t *testing.T) {
	llm := &mockLLM{}
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	body := `{"shipment_details": {"weight": 1, "distance": 1, "service_level": "standard"}, "is_retrying": true}`
	rr := doRequest(t, testServer(llm, &mockGraph{}), http.MethodPost, "/v1/negotiate", body)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	got := decodeBody(t, rr)
	assert.Equal(t, false, got["retry_allowed"])
}

func TestNegotiate_InvalidJSON(t *testing.T) {
	rr := doRequest(t, testServer(&mockLLM{}, &mockGraph{}), http.MethodPost, "/v1/negotiate", "{not json")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "invalid JSON format")
}

func TestTrack(t *testing.T) {
	llm := &mockLLM{}
	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return strings.Contains(req.Messages[0].Content, "Tracking Number: TRK-9")
	})).Return(textResponse("Your package is in transit."), nil).Once()

	rr := doRequest(t, testServer(llm, &mockGraph{}), http.MethodPost, "/v1/track", `{"tracking_number": "TRK-9"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	got := decodeBody(t, rr)
	assert.Equal(t, "Your package is in transit.", got["response"])
	llm.AssertExpectations(t)
}

func TestTrack_RequiresIdentifier(t *testing.T) {
	rr := doRequest(t, testServer(&mockLLM{}, &mockGraph{}), http.MethodPost, "/v1/track", `{"query_type": "status"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "tracking number or order ID is required")
}

func TestCompliance(t *testing.T) {
	llm := &mockLLM{}
	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return strings.Contains(req.Messages[0].Content, "What documents do I need for the UK?")
	})).Return(textResponse("You need a commercial invoice."), nil).Once()

	rr := doRequest(t, testServer(llm, &mockGraph{}), http.MethodPost, "/v1/compliance", `{"user_input": "What documents do I need for the UK?"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	got := decodeBody(t, rr)
	assert.Equal(t, "You need a commercial invoice.", got["response"])
	llm.AssertExpectations(t)
}

func TestCompliance_EmptyInput(t *testing.T) {
	rr := doRequest(t, testServer(&mockLLM{}, &mockGraph{}), http.MethodPost, "/v1/compliance", `{"user_input": "  "}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "input message is empty")
}

func TestRecommendations(t *testing.T) {
	g := &mockGraph{}
	g.On("GetOrder", mock.Anything, "ORD-1").
		Return(&graph.OrderVertex{ID: "ORD-1", Prime: true}, nil)
	g.On("Offers", mock.Anything, "ORD-1").
		Return([]graph.Offer{
			{Carrier: "DHL", NegotiatedPrice: 200, DeliveryTime: "2-4 days", CO2Emissions: 1.2, TransportMode: "Air"},
			{Carrier: "Maersk", NegotiatedPrice: 110, DeliveryTime: "10-14 days", CO2Emissions: 0.4, TransportMode: "Sea"},
		}, nil)

	rr := doRequest(t, testServer(&mockLLM{}, g), http.MethodGet, "/v1/recommendations/ORD-1", "")
	require.Equal(t, http.StatusOK, rr.Code)

	got := decodeBody(t, rr)
	assert.Equal(t, "ORD-1", got["order_id"])
	assert.Equal(t, true, got["prime"])

	recs := got["recommendations"].([]any)
	require.Len(t, recs, 2)
	top := recs[0].(map[string]any)
	assert.Equal(t, "DHL", top["carrier"])
	assert.Equal(t, 78.2, top["score"])
	assert.Equal(t, "Best Overall Option (Score: 78.2%)", top["verdict"])
}

func TestRecommendations_TopNParam(t *testing.T) {
	g := &mockGraph{}
	g.On("GetOrder", mock.Anything, "ORD-1").
		Return(&graph.OrderVertex{ID: "ORD-1"}, nil)
	g.On("Offers", mock.Anything, "ORD-1").
		Return([]graph.Offer{
			{Carrier: "DHL", NegotiatedPrice: 200, DeliveryTime: "2-4 days", CO2Emissions: 1.2, TransportMode: "Air"},
			{Carrier: "Maersk", NegotiatedPrice: 110, DeliveryTime: "10-14 days", CO2Emissions: 0.4, TransportMode: "Sea"},
		}, nil)

	rr := doRequest(t, testServer(&mockLLM{}, g), http.MethodGet, "/v1/recommendations/ORD-1?top_n=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	recs := decodeBody(t, rr)["recommendations"].([]any)
	assert.Len(t, recs, 1)
}

func TestRecommendations_NotFound(t *testing.T) {
	g := &mockGraph{}
	g.On("GetOrder", mock.Anything, "MISSING").Return(nil, nil)

	rr := doRequest(t, testServer(&mockLLM{}, g), http.MethodGet, "/v1/recommendations/MISSING", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "order not found", decodeBody(t, rr)["error"])
}

func TestRecommendations_BadTopN(t *testing.T) {
	g := &mockGraph{}
	g.On("GetOrder", mock.Anything, "ORD-1").
		Return(&graph.OrderVertex{ID: "ORD-1"}, nil)
	g.On("Offers", mock.Anything, "ORD-1").
		Return([]graph.Offer{}, nil)

	rr := doRequest(t, testServer(&mockLLM{}, g), http.MethodGet, "/v1/recommendations/ORD-1?top_n=zero", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "top_n must be a positive integer")
}

func TestTiers(t *testing.T) {
	g := &mockGraph{}
	g.On("PriceTiers", mock.Anything).
		Return([]graph.CarrierTier{
			{Carrier: "Maersk", Tier: "budget"},
			{Carrier: "DHL", Tier: "premium"},
		}, nil)

	rr := doRequest(t, testServer(&mockLLM{}, g), http.MethodGet, "/v1/tiers", "")
	require.Equal(t, http.StatusOK, rr.Code)

	tiers := decodeBody(t, rr)["tiers"].([]any)
	require.Len(t, tiers, 2)
	first := tiers[0].(map[string]any)
	assert.Equal(t, "Maersk", first["carrier"])
	assert.Equal(t, "budget", first["tier"])
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/v1/negotiate", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	testServer(&mockLLM{}, &mockGraph{}).Router().ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
