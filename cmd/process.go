package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/exportedge/freight-advisor/internal/model"
	"github.com/exportedge/freight-advisor/internal/pipeline"
)

var processLimit int

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Process order records through the recommendation pipeline",
	Long:  "Reads order record JSON files (a single record or an array of records per file), runs each order through hazard classification, quoting, negotiation, graph scoring and artifact assembly.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("process"); err != nil {
			return err
		}

		records, err := loadRecords(args)
		if err != nil {
			return err
		}

		st, err := initGraph(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		objects, err := initObjects(ctx)
		if err != nil {
			return err
		}

		p := pipeline.New(cfg, initCollaborator(), st, objects)

		return processRecords(ctx, records, processLimit, cfg.Pipeline.MaxConcurrentOrders, func(ctx context.Context, rec model.Record) (*model.Summary, error) {
			return p.Run(ctx, rec)
		})
	},
}

func init() {
	processCmd.Flags().IntVar(&processLimit, "limit", 0, "max number of orders to process (0 = all)")
	rootCmd.AddCommand(processCmd)
}

// loadRecords reads each file as either one order record or an array of them.
func loadRecords(paths []string) ([]model.Record, error) {
	var records []model.Record
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrap(err, "read order file")
		}

		var batch []model.Record
		if err := json.Unmarshal(data, &batch); err == nil {
			records = append(records, batch...)
			continue
		}

		var single model.Record
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, eris.Wrapf(err, "parse order file %s", path)
		}
		records = append(records, single)
	}
	return records, nil
}

// runFunc is the callback signature for processing one order record.
type runFunc func(ctx context.Context, rec model.Record) (*model.Summary, error)

// processRecords applies limit, then runs the records concurrently. An
// individual order failure is logged and counted, never aborts the batch.
func processRecords(ctx context.Context, records []model.Record, limit, concurrency int, run runFunc) error {
	if len(records) == 0 {
		zap.L().Info("no order records found")
		return nil
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	zap.L().Info("processing orders",
		zap.Int("orders", len(records)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, rec := range records {
		g.Go(func() error {
			sum, err := run(gctx, rec)

			log := zap.L()
			if sum != nil && sum.OrderID != "" {
				log = log.With(zap.String("order_id", sum.OrderID))
			}

			if err != nil {
				failed.Add(1)
				log.Error("order processing failed", zap.Error(err))
				return nil // don't abort the batch on individual failure
			}

			succeeded.Add(1)
			log.Info("order processed",
				zap.String("run_id", sum.RunID),
				zap.Int("recommendations", len(sum.Recommendations)),
				zap.String("artifact", sum.ArtifactURL),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
