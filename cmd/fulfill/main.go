// Command fulfill runs the order fulfillment workflow over the input feeds
// and writes one result row per order.
package main

import (
	"context"
	"time"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	fulfillment "github.com/xenking/fulfillment/internal/app"
	"github.com/xenking/fulfillment/internal/domain/order"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := fulfillment.LoadConfig()
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := fulfillment.Process(ctx, lg.Named("fulfill"), m, cfg)
		if err != nil {
			return err
		}

		lg.Info("Run complete",
			zap.String("run_id", res.Summary.RunID),
			zap.Int("orders", len(res.Orders)),
			zap.Int("approved", res.Summary.ByStatus[order.StatusApproved]),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	})
}
