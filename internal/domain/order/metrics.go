package order

import (
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/xenking/fulfillment/internal/domain/order"

type workflowMetrics struct {
	orders            metric.Int64Counter
	insuranceDuration metric.Float64Histogram
}

func newWorkflowMetrics(meter metric.Meter) (workflowMetrics, error) {
	orders, err := meter.Int64Counter("fulfillment.orders",
		metric.WithDescription("Orders moved to a terminal status, by status"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return workflowMetrics{}, errors.Wrap(err, "orders counter")
	}

	insuranceDuration, err := meter.Float64Histogram("fulfillment.insurance.duration",
		metric.WithDescription("Time spent arranging shipment insurance, retries included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return workflowMetrics{}, errors.Wrap(err, "insurance duration histogram")
	}

	return workflowMetrics{
		orders:            orders,
		insuranceDuration: insuranceDuration,
	}, nil
}
