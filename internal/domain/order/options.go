package order

import (
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// DefaultInsuranceThreshold is the order value above which shipments must be
// insured before approval.
var DefaultInsuranceThreshold = decimal.NewFromInt(100000)

const (
	defaultInsuranceTimeout = 5 * time.Second
	defaultRetryInterval    = 200 * time.Millisecond
)

type options struct {
	catalog          Catalog
	threshold        decimal.Decimal
	insuranceTimeout time.Duration
	insuranceRetries uint
	retryInterval    time.Duration
	workers          int

	lg             *zap.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

func defaultOptions() options {
	return options{
		threshold:        DefaultInsuranceThreshold,
		insuranceTimeout: defaultInsuranceTimeout,
		retryInterval:    defaultRetryInterval,
		workers:          1,
		lg:               zap.NewNop(),
		meterProvider:    metricnoop.NewMeterProvider(),
		tracerProvider:   tracenoop.NewTracerProvider(),
	}
}

// Option configures a Workflow.
type Option func(*options)

// WithCatalog makes the workflow reject orders referencing products missing
// from the catalog.
func WithCatalog(c Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithInsuranceThreshold sets the order value above which insurance is required.
func WithInsuranceThreshold(v decimal.Decimal) Option {
	return func(o *options) {
		o.threshold = v
	}
}

// WithInsuranceTimeout bounds each insurance call. A timed out call counts as
// a broker failure. Zero disables the timeout.
func WithInsuranceTimeout(d time.Duration) Option {
	return func(o *options) {
		o.insuranceTimeout = d
	}
}

// WithInsuranceRetries sets how many times a failed insurance call is retried
// with exponential backoff starting at interval. Zero means one attempt.
func WithInsuranceRetries(n uint, interval time.Duration) Option {
	return func(o *options) {
		o.insuranceRetries = n
		if interval > 0 {
			o.retryInterval = interval
		}
	}
}

// WithWorkers sets how many orders are processed concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger sets the workflow logger.
func WithLogger(lg *zap.Logger) Option {
	return func(o *options) {
		o.lg = lg
	}
}

// WithMeterProvider sets the provider for workflow metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithTracerProvider sets the provider for per-order spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}
