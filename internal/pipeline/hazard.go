package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/exportedge/freight-advisor/internal/model"
	"github.com/exportedge/freight-advisor/internal/resilience"
	"github.com/exportedge/freight-advisor/pkg/anthropic"
)

const hazardPrompt = `You are an AI Dangerous Goods Specialist or Hazardous Materials (HazMat) Professional for logistics shipping. Classify whether a product is hazardous or non-hazardous based on global shipping safety standards. Do not include any explanation or reasoning. Only output "HAZARDOUS" or "NON-HAZARDOUS".

Product Details:
- Name: %s
- Specifications: %s
- Dimensions: %s
- Weight: %s
- Quantity: %s`

// ClassifyHazard asks the collaborator for a dangerous-goods classification.
// Output the classifier fails to phrase as one of its two tokens maps to
// HazardUnknown, which downstream stages treat as hazardous.
func (p *Pipeline) ClassifyHazard(ctx context.Context, order model.Order) (model.HazardClass, error) {
	prompt := fmt.Sprintf(hazardPrompt,
		order.ProductName,
		order.ProductSpecifications,
		order.ProductDimensions,
		order.ProductWeight,
		order.ProductQuantity,
	)

	resp, err := resilience.Do(ctx, p.retry, "classify hazard", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return p.llm.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     p.cfg.Anthropic.Model,
			MaxTokens: 200,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return model.HazardUnknown, err
	}

	class := model.ParseHazardClass(resp.Text())
	if class == model.HazardUnknown {
		zap.L().Warn("hazard classifier returned unexpected text, assuming worst case",
			zap.String("order_id", order.OrderID),
			zap.String("response", resp.Text()))
	}
	return class, nil
}
