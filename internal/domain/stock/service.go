package stock

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// Service answers availability queries against a fixed stock table. It is a
// read-only lookup: quantities are never reserved or decremented.
type Service struct {
	levels map[string]Level
}

// NewService creates a Service over a copy of the given stock table.
func NewService(levels map[string]Level) *Service {
	cp := make(map[string]Level, len(levels))
	for name, lvl := range levels {
		cp[name] = lvl
	}
	return &Service{levels: cp}
}

// Level returns the stock record of a product.
func (s *Service) Level(name string) (Level, bool) {
	lvl, ok := s.levels[name]
	return lvl, ok
}

// CheckAvailability verifies that every product is stocked in at least the
// required quantity and returns the total shipment weight. A product without
// a stock record yields *UnknownProductError, an insufficient quantity yields
// *ShortfallError and a quantity below one yields *InvalidQuantityError. On
// failure the returned weight is zero.
func (s *Service) CheckAvailability(ctx context.Context, items map[string]int) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	// Sorted so that the reported failure does not depend on map iteration.
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	total := decimal.Zero
	for _, name := range names {
		required := items[name]
		if required <= 0 {
			return decimal.Zero, &InvalidQuantityError{Product: name, Quantity: required}
		}
		lvl, ok := s.levels[name]
		if !ok {
			return decimal.Zero, &UnknownProductError{Product: name}
		}
		if lvl.Available < required {
			return decimal.Zero, &ShortfallError{
				Product:   name,
				Required:  required,
				Available: lvl.Available,
			}
		}
		total = total.Add(lvl.UnitWeight.Mul(decimal.NewFromInt(int64(required))))
	}

	return total, nil
}
