package order

// LineItemIndex groups line items by order id.
type LineItemIndex struct {
	byOrder map[string][]LineItem
}

// NewLineItemIndex indexes the given line items.
func NewLineItemIndex(items []LineItem) *LineItemIndex {
	idx := &LineItemIndex{byOrder: make(map[string][]LineItem)}
	for _, it := range items {
		idx.byOrder[it.OrderID] = append(idx.byOrder[it.OrderID], it)
	}
	return idx
}

// ItemsFor returns the required quantity per product for an order. Several
// rows for the same product are summed rather than the last one winning, so
// the stock check covers every unit the order's total value was priced on.
// Unknown orders yield an empty map.
func (x *LineItemIndex) ItemsFor(orderID string) map[string]int {
	lines := x.byOrder[orderID]
	items := make(map[string]int, len(lines))
	for _, it := range lines {
		items[it.Product] += it.Quantity
	}
	return items
}

// Lines returns the raw line items of an order in feed order.
func (x *LineItemIndex) Lines(orderID string) []LineItem {
	lines := x.byOrder[orderID]
	out := make([]LineItem, len(lines))
	copy(out, lines)
	return out
}
