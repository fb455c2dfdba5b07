package order

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of an order.
type Status string

const (
	// StatusPendingApproval is the initial state; only these orders are processed.
	StatusPendingApproval Status = "pending_approval"
	// StatusWaitingForRestock means at least one product could not be supplied.
	StatusWaitingForRestock Status = "waiting_for_restock"
	// StatusNeedsManualReview means automation could not finish and a person must decide.
	StatusNeedsManualReview Status = "needs_manual_review"
	// StatusApproved means the order passed every check and can be shipped.
	StatusApproved Status = "approved"
)

// Notes recorded on an order by the workflow.
const (
	NoteOutOfStock      = "one or more products out of stock"
	NoteInsuranceFailed = "could not arrange shipment insurance"
	NoteApproved        = "automatically approved"
)

var validNext = map[Status]map[Status]bool{
	StatusPendingApproval: {
		StatusWaitingForRestock: true,
		StatusNeedsManualReview: true,
		StatusApproved:          true,
	},
	StatusWaitingForRestock: {},
	StatusNeedsManualReview: {},
	StatusApproved:          {},
}

// CanTransition reports whether the workflow may move an order from one
// status to another.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal reports whether no further automatic transition leaves s.
func (s Status) Terminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

// ParseStatus converts a stored status string back to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := validNext[st]; !ok {
		return "", errors.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// Order is the aggregate of line items sharing a transaction identifier,
// carrying its workflow status.
type Order struct {
	ID         string
	TotalValue decimal.Decimal
	Status     Status
	Notes      string
	// ShippingCarrier is empty until a carrier has been assigned.
	ShippingCarrier string
	ShippingCost    decimal.Decimal
}

// New returns a pending order with the given declared value.
func New(id string, totalValue decimal.Decimal) *Order {
	return &Order{
		ID:           id,
		TotalValue:   totalValue,
		Status:       StatusPendingApproval,
		ShippingCost: decimal.Zero,
	}
}

// LineItem is one (order, product, quantity) record.
type LineItem struct {
	OrderID  string
	Product  string
	Quantity int
}
