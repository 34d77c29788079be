// Package pipeline runs the per-order recommendation pipeline: hazard
// classification, quote extraction, simulated negotiation, graph upserts,
// ranking, and artifact assembly. Stages run strictly in sequence for one
// order; separate orders are independent and may run concurrently.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/exportedge/freight-advisor/internal/config"
	"github.com/exportedge/freight-advisor/internal/graph"
	"github.com/exportedge/freight-advisor/internal/model"
	"github.com/exportedge/freight-advisor/internal/resilience"
	"github.com/exportedge/freight-advisor/internal/scorer"
	"github.com/exportedge/freight-advisor/pkg/anthropic"
	"github.com/exportedge/freight-advisor/pkg/objectstore"
)

// Pipeline orchestrates the six stages for one order at a time.
type Pipeline struct {
	cfg     *config.Config
	llm     anthropic.Client
	graph   graph.Store
	objects objectstore.Store
	retry   resilience.Policy
	ranker  scorer.Ranker
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, llm anthropic.Client, g graph.Store, objects objectstore.Store) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		llm:     llm,
		graph:   g,
		objects: objects,
		retry:   resilience.DefaultPolicy(),
		ranker:  scorer.NewRanker(cfg.Pipeline.TopN),
	}
}

// Run processes one intake record end to end. The returned summary is always
// non-nil: on failure it carries every stage completed so far plus the failed
// stage's error, so the caller can record the outcome rather than being left
// with nothing.
func (p *Pipeline) Run(ctx context.Context, rec model.Record) (*model.Summary, error) {
	order, err := model.OrderFromRecord(rec)
	if err != nil {
		return &model.Summary{RunID: uuid.NewString()}, err
	}

	sum := &model.Summary{
		Order: order,
		RunID: uuid.NewString(),
	}
	log := zap.L().With(
		zap.String("order_id", order.OrderID),
		zap.String("run_id", sum.RunID),
	)
	log.Info("pipeline: starting order")

	trackStage := func(name string, fn func() error) error {
		start := time.Now()
		stageErr := fn()
		result := model.StageResult{
			Name:     name,
			Status:   model.StageComplete,
			Duration: time.Since(start).Milliseconds(),
		}
		if stageErr != nil {
			result.Status = model.StageFailed
			result.Error = AsStageError(stageErr).Error()
			log.Error("pipeline: stage failed",
				zap.String("stage", name),
				zap.Int64("duration_ms", result.Duration),
				zap.Error(stageErr))
		} else {
			log.Info("pipeline: stage complete",
				zap.String("stage", name),
				zap.Int64("duration_ms", result.Duration))
		}
		sum.Stages = append(sum.Stages, result)
		return stageErr
	}

	// Stage 1: hazard classification. Records arriving pre-classified keep
	// their classification.
	if err := trackStage("classify_hazard", func() error {
		if rec["hazard_classification"].Present() {
			return nil
		}
		class, stageErr := p.ClassifyHazard(ctx, order)
		if stageErr != nil {
			return stageErr
		}
		order.Hazard = class
		sum.Order.Hazard = class
		return nil
	}); err != nil {
		return sum, eris.Wrap(err, "pipeline: classify hazard")
	}

	// Stage 2: quote extraction.
	var quotes []model.CarrierQuote
	if err := trackStage("extract_quotes", func() error {
		var stageErr error
		quotes, stageErr = p.ExtractQuotes(ctx, order)
		return stageErr
	}); err != nil {
		return sum, eris.Wrap(err, "pipeline: extract quotes")
	}
	sum.CarrierPricing = model.CarrierPricing{ShippingOptions: quotes}

	// Stage 3: negotiation.
	if err := trackStage("negotiate", func() error {
		negotiated, chat, stageErr := p.Negotiate(ctx, order, quotes)
		if stageErr != nil {
			return stageErr
		}
		sum.NegotiatedPrices = negotiated
		sum.Chat = chat
		return nil
	}); err != nil {
		return sum, eris.Wrap(err, "pipeline: negotiate")
	}

	// Stage 4: graph upserts.
	var offers []graph.Offer
	if err := trackStage("graph_update", func() error {
		var stageErr error
		offers, stageErr = p.updateGraph(ctx, order, quotes, sum.NegotiatedPrices)
		return stageErr
	}); err != nil {
		return sum, eris.Wrap(err, "pipeline: graph update")
	}

	// Stage 5: ranking.
	_ = trackStage("rank", func() error {
		sum.Recommendations = p.ranker.Rank(offers, order.Hazard.IsHazmat(), order.PrimeMember)
		return nil
	})

	// Stage 6: artifact.
	if err := trackStage("assemble_artifact", func() error {
		return p.AssembleArtifact(ctx, rec, sum)
	}); err != nil {
		return sum, eris.Wrap(err, "pipeline: assemble artifact")
	}

	log.Info("pipeline: order complete",
		zap.Int("quotes", len(quotes)),
		zap.Int("recommendations", len(sum.Recommendations)))
	return sum, nil
}

// updateGraph upserts the order vertex, one carrier vertex per carrier (first
// quote wins for base terms), and one SERVES edge per carrier holding the
// negotiated terms, then reads the offers back.
func (p *Pipeline) updateGraph(ctx context.Context, order model.Order, quotes []model.CarrierQuote, negotiated []model.NegotiatedQuote) ([]graph.Offer, error) {
	if err := p.graph.UpsertOrder(ctx, graph.OrderVertex{
		ID:     order.OrderID,
		Hazmat: order.Hazard.IsHazmat(),
		Prime:  order.PrimeMember,
	}); err != nil {
		return nil, err
	}

	firstQuote := make(map[string]model.CarrierQuote)
	for _, q := range quotes {
		if _, seen := firstQuote[q.Carrier]; !seen {
			firstQuote[q.Carrier] = q
		}
	}

	negotiatedPrice := make(map[string]float64)
	for _, n := range negotiated {
		negotiatedPrice[n.Carrier] = n.NegotiatedPrice.InexactFloat64()
	}

	for _, n := range negotiated {
		q, ok := firstQuote[n.Carrier]
		if !ok {
			continue
		}
		if err := p.graph.UpsertCarrier(ctx, graph.CarrierVertex{
			Name:          q.Carrier,
			BasePrice:     q.Price.InexactFloat64(),
			DeliveryTime:  q.DeliveryTime,
			CO2Emissions:  q.CO2Emissions.InexactFloat64(),
			TransportMode: string(q.Mode),
		}); err != nil {
			return nil, err
		}
		if err := p.graph.UpsertServes(ctx, q.Carrier, order.OrderID, graph.ServesProps{
			NegotiatedPrice: negotiatedPrice[q.Carrier],
			DeliveryTime:    q.DeliveryTime,
			TransportMode:   string(q.Mode),
		}); err != nil {
			return nil, err
		}
	}

	return p.graph.Offers(ctx, order.OrderID)
}
