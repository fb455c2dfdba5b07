package app

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/fulfillment/internal/domain/insurance"
	"github.com/xenking/fulfillment/internal/domain/order"
	"github.com/xenking/fulfillment/internal/domain/product"
	"github.com/xenking/fulfillment/internal/domain/shipping"
	"github.com/xenking/fulfillment/internal/domain/stock"
	"github.com/xenking/fulfillment/internal/export"
	"github.com/xenking/fulfillment/internal/ingest"
	"github.com/xenking/fulfillment/internal/storage/postgres"
)

// Telemetry is the subset of app.Telemetry the workflow needs.
type Telemetry interface {
	MeterProvider() metric.MeterProvider
	TracerProvider() trace.TracerProvider
}

var _ Telemetry = (*app.Telemetry)(nil)

// Result is the outcome of a complete run.
type Result struct {
	Summary order.Summary
	Orders  []order.Order
}

// Process loads the inputs, processes every pending order, writes the
// results, and returns them to the caller. It is the single wiring point for
// the application.
func Process(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config) (Result, error) {
	lg.Info("Initializing",
		zap.String("products", cfg.ProductsFile),
		zap.String("transactions", cfg.TransactionsFile),
		zap.Int("workers", cfg.Workers),
	)

	format, err := export.ParseFormat(cfg.Format, cfg.Output)
	if err != nil {
		return Result{}, err
	}
	threshold, err := cfg.Insurance.threshold()
	if err != nil {
		return Result{}, err
	}
	factor, err := cfg.Simulation.factor()
	if err != nil {
		return Result{}, err
	}

	in, err := loadInputs(zctx.Base(ctx, lg), cfg)
	if err != nil {
		return Result{}, errors.Wrap(err, "load inputs")
	}

	built := ingest.BuildOrders(in.catalog, in.transactions)
	if len(built.Missing) > 0 {
		lg.Warn("Products missing from catalog",
			zap.Strings("products", built.Missing),
		)
	}
	boosted, err := ingest.BoostHighValue(built.Orders, cfg.Simulation.BoostEvery, factor)
	if err != nil {
		return Result{}, err
	}

	store, err := order.NewStore(built.Orders...)
	if err != nil {
		return Result{}, errors.Wrap(err, "create order store")
	}
	lg.Info("Initial state",
		zap.Int("orders", store.Len()),
		zap.Int("line_items", len(built.Lines)),
		zap.Strings("boosted", boosted),
	)

	shipper, err := shipping.NewAllocator(shipping.DefaultBands()...)
	if err != nil {
		return Result{}, errors.Wrap(err, "create shipping allocator")
	}
	broker, err := insurance.NewSimulatedBroker(insurance.Config{
		FailureRate: cfg.Insurance.FailureRate,
		Latency:     cfg.Insurance.Latency,
	}, insurance.WithLogger(lg.Named("insurance")))
	if err != nil {
		return Result{}, errors.Wrap(err, "create insurance broker")
	}

	wf, err := order.NewWorkflow(stock.NewService(in.levels), shipper, broker,
		order.WithCatalog(in.catalog),
		order.WithInsuranceThreshold(threshold),
		order.WithInsuranceTimeout(cfg.Insurance.Timeout),
		order.WithInsuranceRetries(cfg.Insurance.Retries, cfg.Insurance.RetryInterval),
		order.WithWorkers(cfg.Workers),
		order.WithLogger(lg.Named("workflow")),
		order.WithMeterProvider(m.MeterProvider()),
		order.WithTracerProvider(m.TracerProvider()),
	)
	if err != nil {
		return Result{}, errors.Wrap(err, "create workflow")
	}

	summary, err := wf.Run(ctx, store, order.NewLineItemIndex(built.Lines))
	if err != nil {
		return Result{}, errors.Wrap(err, "run workflow")
	}
	res := Result{Summary: summary, Orders: store.All()}
	logSummary(lg, summary)

	if err := export.WriteFile(cfg.Output, format, res.Orders); err != nil {
		return Result{}, errors.Wrap(err, "export results")
	}
	lg.Info("Results written", zap.String("output", cfg.Output), zap.String("format", string(format)))

	if cfg.DatabaseURL != "" {
		if err := persist(ctx, cfg.DatabaseURL, res); err != nil {
			return Result{}, errors.Wrap(err, "persist results")
		}
		lg.Info("Results stored", zap.String("run_id", summary.RunID))
	}

	return res, nil
}

type inputs struct {
	catalog      *product.Catalog
	transactions []ingest.Transaction
	levels       map[string]stock.Level
}

// loadInputs reads the product catalog concurrently with the feed; the
// stock table follows the feed it is screened against.
func loadInputs(ctx context.Context, cfg *Config) (inputs, error) {
	var (
		in inputs
		g  errgroup.Group
	)
	g.Go(func() (err error) {
		in.catalog, err = ingest.LoadProducts(cfg.ProductsFile)
		return reportRows(ctx, err)
	})
	g.Go(func() (err error) {
		in.transactions, err = ingest.LoadTransactions(cfg.TransactionsFile)
		if err := reportRows(ctx, err); err != nil {
			return err
		}
		// Only stock records the feed may reference are decoded.
		demand := ingest.NewDemand(in.transactions)
		if cfg.StockFile == "" {
			in.levels, err = ingest.DefaultStockFor(demand)
			return err
		}
		in.levels, err = ingest.LoadStockFor(cfg.StockFile, demand)
		return err
	})
	if err := g.Wait(); err != nil {
		return inputs{}, err
	}

	zctx.From(ctx).Info("Inputs loaded",
		zap.Int("products", in.catalog.Len()),
		zap.Int("transactions", len(in.transactions)),
		zap.Int("stock_levels", len(in.levels)),
	)
	return in, nil
}

// reportRows logs every malformed row contained in err and returns err.
func reportRows(ctx context.Context, err error) error {
	lg := zctx.From(ctx)
	for _, row := range ingest.RowErrors(err) {
		lg.Error("Malformed input row", zap.Int("line", row.Line), zap.Error(row.Err))
	}
	return err
}

func logSummary(lg *zap.Logger, s order.Summary) {
	statuses := make([]string, 0, len(s.ByStatus))
	for st := range s.ByStatus {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)

	fields := []zap.Field{
		zap.String("run_id", s.RunID),
		zap.Int("processed", s.Processed),
		zap.Int("skipped", s.Skipped),
	}
	for _, st := range statuses {
		fields = append(fields, zap.Int(st, s.ByStatus[order.Status(st)]))
	}
	lg.Info("Final state", fields...)
}

func persist(ctx context.Context, databaseURL string, res Result) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return postgres.NewResultRepository(pool).SaveRun(ctx, res.Summary, res.Orders)
}
