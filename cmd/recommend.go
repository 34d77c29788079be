package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exportedge/freight-advisor/internal/scorer"
)

var (
	recommendOrderID string
	recommendTopN    int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print ranked carrier recommendations for a processed order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("recommend"); err != nil {
			return err
		}

		st, err := initGraph(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		order, err := st.GetOrder(ctx, recommendOrderID)
		if err != nil {
			return eris.Wrap(err, "look up order")
		}
		if order == nil {
			return eris.Errorf("order %s not found; run process first", recommendOrderID)
		}

		offers, err := st.Offers(ctx, recommendOrderID)
		if err != nil {
			return eris.Wrap(err, "read offers")
		}

		topN := recommendTopN
		if topN == 0 {
			topN = cfg.Pipeline.TopN
		}
		recs := scorer.NewRanker(topN).Rank(offers, order.Hazmat, order.Prime)

		zap.L().Info("recommendations ranked",
			zap.String("order_id", order.ID),
			zap.Int("offers", len(offers)),
			zap.Int("returned", len(recs)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"order_id":        order.ID,
			"hazmat":          order.Hazmat,
			"prime":           order.Prime,
			"recommendations": recs,
		})
	},
}

func init() {
	recommendCmd.Flags().StringVar(&recommendOrderID, "order", "", "order ID (required)")
	recommendCmd.Flags().IntVar(&recommendTopN, "top-n", 0, "number of recommendations (default from config)")
	_ = recommendCmd.MarkFlagRequired("order")
	rootCmd.AddCommand(recommendCmd)
}
