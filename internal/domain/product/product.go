package product

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item. Name is the unique key shared with the
// transaction feed and the stock catalog.
type Product struct {
	Name     string
	Category string
	Price    decimal.Decimal
}

// Catalog is the read-only product reference data, keyed by product name.
type Catalog struct {
	byName map[string]Product
	names  []string
}

// NewCatalog builds a Catalog from the given products. A later product with
// the same name replaces an earlier one.
func NewCatalog(products ...Product) *Catalog {
	c := &Catalog{byName: make(map[string]Product, len(products))}
	for _, p := range products {
		if _, ok := c.byName[p.Name]; !ok {
			c.names = append(c.names, p.Name)
		}
		c.byName[p.Name] = p
	}
	return c
}

// Lookup returns the product with the given name.
func (c *Catalog) Lookup(name string) (Product, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Get is like Lookup but returns ErrNotFound for unknown names.
func (c *Catalog) Get(name string) (Product, error) {
	p, ok := c.byName[name]
	if !ok {
		return Product{}, errors.Wrapf(ErrNotFound, "product %q", name)
	}
	return p, nil
}

// Names returns product names in the order they were added.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int {
	return len(c.byName)
}
