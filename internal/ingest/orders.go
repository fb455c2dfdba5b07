package ingest

import (
	"sort"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/fulfillment/internal/domain/order"
	"github.com/xenking/fulfillment/internal/domain/product"
)

// Orders is the order collection derived from the transaction feed.
type Orders struct {
	// Orders are pending, one per transaction id, sorted by id.
	Orders []*order.Order
	// Lines holds every transaction as a line item, in feed order.
	Lines []order.LineItem
	// Missing lists products referenced by the feed but absent from the
	// catalog, in order of first appearance.
	Missing []string
}

// BuildOrders groups transactions by id into pending orders. An order's total
// value is the sum of quantity × price over its rows; rows whose product is
// not in the catalog contribute nothing and are reported in Missing.
// Ids sort numerically when every id is an integer, lexically otherwise.
func BuildOrders(catalog *product.Catalog, txs []Transaction) Orders {
	totals := make(map[string]decimal.Decimal)
	var ids []string
	lines := make([]order.LineItem, 0, len(txs))

	for _, tx := range txs {
		if _, ok := totals[tx.OrderID]; !ok {
			ids = append(ids, tx.OrderID)
			totals[tx.OrderID] = decimal.Zero
		}
		if p, ok := catalog.Lookup(tx.Product); ok {
			line := p.Price.Mul(decimal.NewFromInt(int64(tx.Quantity)))
			totals[tx.OrderID] = totals[tx.OrderID].Add(line)
		}
		lines = append(lines, order.LineItem{
			OrderID:  tx.OrderID,
			Product:  tx.Product,
			Quantity: tx.Quantity,
		})
	}

	sortIDs(ids)
	orders := make([]*order.Order, len(ids))
	for i, id := range ids {
		orders[i] = order.New(id, totals[id])
	}

	return Orders{
		Orders:  orders,
		Lines:   lines,
		Missing: MissingProducts(catalog, txs),
	}
}

// MissingProducts returns the distinct feed products absent from the catalog,
// in order of first appearance.
func MissingProducts(catalog *product.Catalog, txs []Transaction) []string {
	seen := make(map[string]struct{})
	var missing []string
	for _, tx := range txs {
		if _, ok := seen[tx.Product]; ok {
			continue
		}
		seen[tx.Product] = struct{}{}
		if _, ok := catalog.Lookup(tx.Product); !ok {
			missing = append(missing, tx.Product)
		}
	}
	return missing
}

// BoostHighValue multiplies the total value of every nth order (by position,
// skipping the first) by factor. It is used to exercise the insurance path
// with realistic feeds. A non-positive every disables boosting.
func BoostHighValue(orders []*order.Order, every int, factor decimal.Decimal) ([]string, error) {
	if every <= 0 {
		return nil, nil
	}
	if !factor.IsPositive() {
		return nil, errors.Errorf("boost factor must be positive, got %s", factor)
	}

	var boosted []string
	for i, o := range orders {
		if i > 0 && i%every == 0 {
			o.TotalValue = o.TotalValue.Mul(factor)
			boosted = append(boosted, o.ID)
		}
	}
	return boosted, nil
}

func sortIDs(ids []string) {
	nums := make(map[string]int64, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			sort.Strings(ids)
			return
		}
		nums[id] = n
	}
	sort.Slice(ids, func(i, j int) bool {
		return nums[ids[i]] < nums[ids[j]]
	})
}
