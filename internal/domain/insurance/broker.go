// Package insurance arranges shipment insurance with an external broker.
//
// The broker is modelled as an unreliable dependency: a call takes time and
// may fail. Retry and timeout policy belong to the caller; a Broker makes
// exactly one attempt per Arrange call.
package insurance

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrDenied is returned when the broker refuses to insure a shipment.
var ErrDenied = errors.New("insurance denied")

// Broker arranges insurance for a shipment of the given declared value.
// A nil error means the shipment is insured.
type Broker interface {
	Arrange(ctx context.Context, orderID string, value decimal.Decimal) error
}

// BrokerFunc adapts a function to the Broker interface.
type BrokerFunc func(ctx context.Context, orderID string, value decimal.Decimal) error

// Arrange calls f.
func (f BrokerFunc) Arrange(ctx context.Context, orderID string, value decimal.Decimal) error {
	return f(ctx, orderID, value)
}

// Sampler returns a pseudo-random number in [0, 1).
type Sampler func() float64

// Config controls the simulated broker.
type Config struct {
	// FailureRate is the probability in [0, 1] that a single call is denied.
	FailureRate float64
	// Latency is how long each call blocks before answering.
	Latency time.Duration
}

// DefaultConfig mirrors the behaviour of the external insurer: one second
// round trip, one call in ten denied.
func DefaultConfig() Config {
	return Config{FailureRate: 0.1, Latency: time.Second}
}

// Option configures a SimulatedBroker.
type Option func(*SimulatedBroker)

// WithSampler replaces the random source. Every call draws a fresh sample.
func WithSampler(s Sampler) Option {
	return func(b *SimulatedBroker) {
		b.sample = s
	}
}

// WithLogger sets the logger used for call tracing.
func WithLogger(lg *zap.Logger) Option {
	return func(b *SimulatedBroker) {
		b.lg = lg
	}
}

var _ Broker = (*SimulatedBroker)(nil)

// SimulatedBroker stands in for the insurer's API.
type SimulatedBroker struct {
	cfg    Config
	sample Sampler
	lg     *zap.Logger
}

// NewSimulatedBroker validates cfg and creates a SimulatedBroker.
func NewSimulatedBroker(cfg Config, opts ...Option) (*SimulatedBroker, error) {
	if cfg.FailureRate < 0 || cfg.FailureRate > 1 {
		return nil, errors.Errorf("failure rate %v out of range [0, 1]", cfg.FailureRate)
	}
	if cfg.Latency < 0 {
		return nil, errors.Errorf("negative latency %s", cfg.Latency)
	}

	b := &SimulatedBroker{
		cfg:    cfg,
		sample: rand.Float64,
		lg:     zap.NewNop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b, nil
}

// Arrange waits for the configured latency, then denies the request with
// probability FailureRate. Cancelling ctx aborts the wait and returns the
// context error.
func (b *SimulatedBroker) Arrange(ctx context.Context, orderID string, value decimal.Decimal) error {
	lg := b.lg.With(zap.String("order_id", orderID), zap.Stringer("value", value))
	lg.Debug("Requesting insurance")

	if b.cfg.Latency > 0 {
		timer := time.NewTimer(b.cfg.Latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if b.sample() < b.cfg.FailureRate {
		lg.Debug("Insurer rejected request")
		return errors.Wrapf(ErrDenied, "order %s", orderID)
	}

	lg.Debug("Insurance arranged")
	return nil
}
