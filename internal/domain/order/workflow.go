package order

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/fulfillment/internal/domain/insurance"
	"github.com/xenking/fulfillment/internal/domain/product"
	"github.com/xenking/fulfillment/internal/domain/shipping"
	"github.com/xenking/fulfillment/internal/domain/stock"
)

// Inventory answers stock availability queries. A nil error means every
// product is available and the returned value is the total shipment weight.
type Inventory interface {
	CheckAvailability(ctx context.Context, items map[string]int) (decimal.Decimal, error)
}

// Shipper assigns a carrier to a shipment weight.
type Shipper interface {
	Assign(weight decimal.Decimal) shipping.Assignment
}

// Catalog resolves product names to reference data.
type Catalog interface {
	Lookup(name string) (product.Product, bool)
}

// LineItems supplies the product quantities of an order.
type LineItems interface {
	ItemsFor(orderID string) map[string]int
}

var (
	_ Inventory = (*stock.Service)(nil)
	_ Shipper   = (*shipping.Allocator)(nil)
	_ Catalog   = (*product.Catalog)(nil)
	_ LineItems = (*LineItemIndex)(nil)
)

// errEmptyOrder is the rejection cause for orders without line items.
var errEmptyOrder = errors.New("order has no line items")

// Summary reports the outcome of a workflow run.
type Summary struct {
	RunID     string
	Processed int
	Skipped   int
	ByStatus  map[Status]int
}

func (s *Summary) add(t Transition) {
	s.Processed++
	s.ByStatus[t.To]++
}

// Workflow moves pending orders to a terminal status by checking stock,
// assigning shipping and, for high-value orders, arranging insurance.
type Workflow struct {
	inventory Inventory
	shipper   Shipper
	broker    insurance.Broker
	catalog   Catalog

	threshold        decimal.Decimal
	insuranceTimeout time.Duration
	insuranceRetries uint
	retryInterval    time.Duration
	workers          int

	lg      *zap.Logger
	tracer  trace.Tracer
	metrics workflowMetrics
}

// NewWorkflow creates a Workflow over the three external services.
func NewWorkflow(
	inventory Inventory,
	shipper Shipper,
	broker insurance.Broker,
	opts ...Option,
) (*Workflow, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		return nil, errors.Errorf("workers must be positive, got %d", o.workers)
	}
	if o.threshold.IsNegative() {
		return nil, errors.Errorf("negative insurance threshold %s", o.threshold)
	}

	m, err := newWorkflowMetrics(o.meterProvider.Meter(instrumentationName))
	if err != nil {
		return nil, errors.Wrap(err, "create metrics")
	}

	return &Workflow{
		inventory:        inventory,
		shipper:          shipper,
		broker:           broker,
		catalog:          o.catalog,
		threshold:        o.threshold,
		insuranceTimeout: o.insuranceTimeout,
		insuranceRetries: o.insuranceRetries,
		retryInterval:    o.retryInterval,
		workers:          o.workers,
		lg:               o.lg,
		tracer:           o.tracerProvider.Tracer(instrumentationName),
		metrics:          m,
	}, nil
}

// Run processes every pending order in the store. Orders in any other status
// are left untouched. A failing order never stops the run; Run only returns
// an error when ctx is cancelled, in which case orders not yet visited stay
// pending.
func (w *Workflow) Run(ctx context.Context, store *Store, lines LineItems) (Summary, error) {
	runID := uuid.New().String()
	lg := w.lg.With(zap.String("run_id", runID))

	pending := store.Pending()
	summary := Summary{
		RunID:    runID,
		Skipped:  store.Len() - len(pending),
		ByStatus: make(map[Status]int),
	}
	if len(pending) == 0 {
		lg.Info("No pending orders to process")
		return summary, nil
	}
	lg.Info("Processing pending orders",
		zap.Int("pending", len(pending)),
		zap.Int("workers", w.workers),
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for _, id := range pending {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			t, applied, err := w.process(gctx, lg, store, id, lines)
			if err != nil {
				return err
			}
			if applied {
				mu.Lock()
				summary.add(t)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, errors.Wrap(err, "process orders")
	}
	if err := ctx.Err(); err != nil {
		return summary, errors.Wrap(err, "process orders")
	}

	lg.Info("Run complete",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("approved", summary.ByStatus[StatusApproved]),
		zap.Int("waiting_for_restock", summary.ByStatus[StatusWaitingForRestock]),
		zap.Int("needs_manual_review", summary.ByStatus[StatusNeedsManualReview]),
	)
	return summary, nil
}

// Process runs the workflow for a single order and applies the result.
func (w *Workflow) Process(ctx context.Context, store *Store, id string, lines LineItems) (Transition, error) {
	t, _, err := w.process(ctx, w.lg, store, id, lines)
	return t, err
}

func (w *Workflow) process(
	ctx context.Context,
	lg *zap.Logger,
	store *Store,
	id string,
	lines LineItems,
) (Transition, bool, error) {
	if err := ctx.Err(); err != nil {
		return Transition{}, false, err
	}

	o, err := store.Get(id)
	if err != nil {
		return Transition{}, false, err
	}
	lg = lg.With(zap.String("order_id", id))
	if o.Status != StatusPendingApproval {
		lg.Debug("Order not pending, skipping", zap.String("status", string(o.Status)))
		return Transition{}, false, nil
	}

	ctx, span := w.tracer.Start(ctx, "order.process", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.total_value", o.TotalValue.String()),
	))
	defer span.End()

	lg.Info("Processing order", zap.Stringer("total_value", o.TotalValue))
	t := w.decide(ctx, lg, o, lines)

	// A cancelled run must not record outcomes caused by the cancellation.
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return Transition{}, false, err
	}

	if err := store.Update(id, func(cur *Order) error {
		if !CanTransition(cur.Status, t.To) {
			return errors.Errorf("order %s: cannot move from %s to %s", id, cur.Status, t.To)
		}
		t.Apply(cur)
		return nil
	}); err != nil {
		// Another writer changed the order meanwhile; its outcome stands.
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		lg.Error("Order not updated", zap.Error(err))
		return Transition{}, false, nil
	}

	span.SetAttributes(attribute.String("order.status", string(t.To)))
	w.metrics.orders.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(t.To))))

	fields := []zap.Field{zap.String("status", string(t.To)), zap.String("notes", t.Note)}
	if t.Cause != nil {
		fields = append(fields, zap.Error(t.Cause))
	}
	lg.Info("Order processed", fields...)

	return t, true, nil
}

// decide computes the transition for a pending order. Steps run strictly in
// order; the first rejection ends the decision.
func (w *Workflow) decide(ctx context.Context, lg *zap.Logger, o Order, lines LineItems) Transition {
	t := Transition{OrderID: o.ID, From: o.Status}

	items, step := w.gather(lines, o.ID)
	if r, ok := step.(Rejected); ok {
		lg.Error("Line items rejected", zap.Error(r.Cause))
		return t.reject(r)
	}

	var weight decimal.Decimal
	switch s := w.checkStock(ctx, lg, items).(type) {
	case Rejected:
		return t.reject(s)
	case Continue:
		weight = s.Weight
	}

	a := w.shipper.Assign(weight)
	t.Shipping = &a
	lg.Info("Shipping assigned",
		zap.Stringer("weight_kg", weight),
		zap.String("carrier", a.Carrier),
		zap.Stringer("cost", a.Cost),
	)

	if o.TotalValue.GreaterThan(w.threshold) {
		if r, ok := w.insure(ctx, lg, o).(Rejected); ok {
			return t.reject(r)
		}
	}

	return t.approve()
}

func (w *Workflow) gather(lines LineItems, orderID string) (map[string]int, Step) {
	items := lines.ItemsFor(orderID)
	if len(items) == 0 {
		return nil, Rejected{Status: StatusWaitingForRestock, Note: NoteOutOfStock, Cause: errEmptyOrder}
	}
	if w.catalog != nil {
		for name := range items {
			if _, ok := w.catalog.Lookup(name); !ok {
				return nil, Rejected{
					Status: StatusWaitingForRestock,
					Note:   NoteOutOfStock,
					Cause:  &UnknownProductError{Product: name},
				}
			}
		}
	}
	return items, Continue{}
}

func (w *Workflow) checkStock(ctx context.Context, lg *zap.Logger, items map[string]int) Step {
	lg.Debug("Checking stock availability", zap.Int("products", len(items)))

	weight, err := w.inventory.CheckAvailability(ctx, items)
	if err != nil {
		var (
			unknown   *stock.UnknownProductError
			shortfall *stock.ShortfallError
			invalid   *stock.InvalidQuantityError
		)
		switch {
		case errors.As(err, &unknown):
			lg.Error("Product missing from stock data", zap.String("product", unknown.Product))
		case errors.As(err, &shortfall):
			lg.Warn("Insufficient stock",
				zap.String("product", shortfall.Product),
				zap.Int("required", shortfall.Required),
				zap.Int("available", shortfall.Available),
			)
		case errors.As(err, &invalid):
			lg.Error("Invalid line item quantity",
				zap.String("product", invalid.Product),
				zap.Int("quantity", invalid.Quantity),
			)
		default:
			lg.Error("Stock check failed", zap.Error(err))
		}
		return Rejected{Status: StatusWaitingForRestock, Note: NoteOutOfStock, Cause: err}
	}

	return Continue{Weight: weight}
}

func (w *Workflow) insure(ctx context.Context, lg *zap.Logger, o Order) Step {
	ctx, span := w.tracer.Start(ctx, "order.insure")
	defer span.End()

	lg.Info("Arranging insurance", zap.Stringer("value", o.TotalValue))
	start := time.Now()

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		callCtx, cancel := w.insuranceContext(ctx)
		defer cancel()

		err := w.broker.Arrange(callCtx, o.ID, o.TotalValue)
		if err != nil && ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(w.newBackOff()),
		backoff.WithMaxTries(w.insuranceRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			lg.Warn("Insurance attempt failed, retrying", zap.Error(err), zap.Duration("backoff", next))
		}),
	)

	w.metrics.insuranceDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.Bool("ok", err == nil)))
	span.SetAttributes(attribute.Int("insurance.attempts", attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insurance failed")
		lg.Error("Could not arrange insurance", zap.Error(err), zap.Int("attempts", attempts))
		return Rejected{Status: StatusNeedsManualReview, Note: NoteInsuranceFailed, Cause: err}
	}

	lg.Info("Insurance arranged", zap.Int("attempts", attempts))
	return Continue{}
}

func (w *Workflow) insuranceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.insuranceTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, w.insuranceTimeout)
}

func (w *Workflow) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.retryInterval
	return b
}
