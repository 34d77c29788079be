package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/exportedge/freight-advisor/internal/config"
	"github.com/exportedge/freight-advisor/internal/graph"
	"github.com/exportedge/freight-advisor/pkg/anthropic"
)

// --- Anthropic mock ---

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

// textResponse wraps plain text as a collaborator reply.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// --- Graph store mock ---

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

// testConfig returns a config suitable for pipeline unit tests.
func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Anthropic.Model = "claude-sonnet-4-5-20250929"
	cfg.Anthropic.MaxTokens = 2048
	cfg.Graph.Driver = "sqlite"
	cfg.Graph.Path = ":memory:"
	cfg.Artifacts.Backend = "s3"
	cfg.Artifacts.Bucket = "freight-artifacts"
	cfg.Pipeline.TopN = 2
	cfg.Pipeline.MaxConcurrentOrders = 2
	return cfg
}
