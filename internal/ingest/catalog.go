package ingest

import (
	"io"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/fulfillment/internal/domain/product"
)

// Column names of the input feeds.
const (
	ColProductName   = "Product name"
	ColCategory      = "Category"
	ColPrice         = "Price"
	ColTransactionID = "Transaction ID"
	ColDate          = "Date"
	ColQuantity      = "Quantity"
)

// DateLayout is the transaction feed date format (month/day/year).
const DateLayout = "1/2/2006"

// Transaction is one row of the transaction feed.
type Transaction struct {
	OrderID  string
	Date     time.Time
	Product  string
	Quantity int
}

// ReadProducts parses the product catalog CSV.
func ReadProducts(r io.Reader) ([]product.Product, error) {
	var products []product.Product
	err := readCSV(r, []string{ColProductName, ColCategory, ColPrice}, func(get func(string) string) error {
		name := get(ColProductName)
		if name == "" {
			return errors.New("empty product name")
		}
		price, err := decimal.NewFromString(get(ColPrice))
		if err != nil {
			return errors.Wrapf(err, "price of %q", name)
		}
		if price.IsNegative() {
			return errors.Errorf("negative price %s for %q", price, name)
		}
		products = append(products, product.Product{
			Name:     name,
			Category: get(ColCategory),
			Price:    price,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ReadTransactions parses the transaction feed CSV. Quantities must be
// positive integers.
func ReadTransactions(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	required := []string{ColTransactionID, ColDate, ColProductName, ColQuantity}
	err := readCSV(r, required, func(get func(string) string) error {
		id := get(ColTransactionID)
		if id == "" {
			return errors.New("empty transaction id")
		}
		name := get(ColProductName)
		if name == "" {
			return errors.Errorf("transaction %s: empty product name", id)
		}
		qty, err := strconv.Atoi(get(ColQuantity))
		if err != nil {
			return errors.Wrapf(err, "transaction %s: quantity", id)
		}
		if qty <= 0 {
			return errors.Errorf("transaction %s: quantity must be greater than 0, got %d", id, qty)
		}
		date, err := time.Parse(DateLayout, get(ColDate))
		if err != nil {
			return errors.Wrapf(err, "transaction %s: date", id)
		}
		txs = append(txs, Transaction{
			OrderID:  id,
			Date:     date,
			Product:  name,
			Quantity: qty,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// LoadProducts reads the product catalog from a file.
func LoadProducts(path string) (*product.Catalog, error) {
	products, err := readFile(path, ReadProducts)
	if err != nil {
		return nil, err
	}
	return product.NewCatalog(products...), nil
}

// LoadTransactions reads the transaction feed from a file.
func LoadTransactions(path string) ([]Transaction, error) {
	return readFile(path, ReadTransactions)
}
