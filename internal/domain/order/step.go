package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/fulfillment/internal/domain/shipping"
)

// Step is the outcome of a single workflow step: either Continue or Rejected.
type Step interface {
	isStep()
}

// Continue lets the order proceed to the next step. Weight carries the
// shipment weight once the stock check has computed it.
type Continue struct {
	Weight decimal.Decimal
}

// Rejected stops processing and moves the order to Status.
type Rejected struct {
	Status Status
	Note   string
	Cause  error
}

func (Continue) isStep() {}
func (Rejected) isStep() {}

// UnknownProductError indicates a line item references a product that is
// missing from the product catalog.
type UnknownProductError struct {
	Product string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product %q not in catalog", e.Product)
}

// Transition is the complete change the workflow decided for one order. It is
// computed without touching the store and applied in a single update.
type Transition struct {
	OrderID string
	From    Status
	To      Status
	Note    string
	// Shipping is set once a carrier was assigned, even if a later step
	// rejected the order.
	Shipping *shipping.Assignment
	// Cause explains a rejection; nil for approved orders.
	Cause error
}

func (t Transition) reject(r Rejected) Transition {
	t.To = r.Status
	t.Note = r.Note
	t.Cause = r.Cause
	return t
}

func (t Transition) approve() Transition {
	t.To = StatusApproved
	t.Note = NoteApproved
	return t
}

// Apply writes the transition onto o.
func (t Transition) Apply(o *Order) {
	o.Status = t.To
	o.Notes = t.Note
	if t.Shipping != nil {
		o.ShippingCarrier = t.Shipping.Carrier
		o.ShippingCost = t.Shipping.Cost
	}
}
