package stock

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Level is the stock record for a single product.
type Level struct {
	Available  int
	UnitWeight decimal.Decimal
}

// UnknownProductError indicates a requested product has no stock record.
type UnknownProductError struct {
	Product string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product %q has no stock record", e.Product)
}

// ShortfallError indicates a product is stocked below the required quantity.
type ShortfallError struct {
	Product   string
	Required  int
	Available int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (required: %d, available: %d)",
		e.Product, e.Required, e.Available)
}

// InvalidQuantityError indicates a requested quantity that is not positive.
type InvalidQuantityError struct {
	Product  string
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for %q", e.Quantity, e.Product)
}
