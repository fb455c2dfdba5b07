package ingest

import (
	"bytes"
	_ "embed"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/fulfillment/internal/domain/stock"
)

// defaultStock is the warehouse table used when no stock file is configured.
//
//go:embed default_stock.json
var defaultStock []byte

// DefaultStock returns the built-in stock table.
func DefaultStock() (map[string]stock.Level, error) {
	return DefaultStockFor(nil)
}

// LoadStock reads a stock table from a JSON file.
func LoadStock(path string) (map[string]stock.Level, error) {
	return LoadStockFor(path, nil)
}

// LoadStockFor reads a stock table from a JSON file, keeping only records
// the demand wants.
func LoadStockFor(path string, demand *Demand) (map[string]stock.Level, error) {
	return readFile(path, func(r io.Reader) (map[string]stock.Level, error) {
		return ReadStockFor(r, demand)
	})
}

// DefaultStockFor returns the built-in stock table screened by demand.
func DefaultStockFor(demand *Demand) (map[string]stock.Level, error) {
	return ReadStockFor(bytes.NewReader(defaultStock), demand)
}

// ReadStock decodes a stock table of the form
//
//	{"<product>": {"available": 10, "weight_kg": 0.96}, ...}
//
// Both fields are required and must not be negative.
func ReadStock(r io.Reader) (map[string]stock.Level, error) {
	return ReadStockFor(r, nil)
}

// ReadStockFor is ReadStock for the records demand wants. Other records are
// skipped without being decoded, so they are not validated either.
func ReadStockFor(r io.Reader, demand *Demand) (map[string]stock.Level, error) {
	levels := make(map[string]stock.Level)

	d := jx.Decode(r, 4096)
	err := d.Obj(func(d *jx.Decoder, name string) error {
		if !demand.Wants(name) {
			return d.Skip()
		}
		lvl, err := decodeLevel(d)
		if err != nil {
			return errors.Wrapf(err, "product %q", name)
		}
		levels[name] = lvl
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode stock")
	}
	return levels, nil
}

func decodeLevel(d *jx.Decoder) (stock.Level, error) {
	var (
		lvl                     stock.Level
		hasAvailable, hasWeight bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "available":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "available")
			}
			lvl.Available = v
			hasAvailable = true
		case "weight_kg":
			n, err := d.Num()
			if err != nil {
				return errors.Wrap(err, "weight_kg")
			}
			w, err := decimal.NewFromString(n.String())
			if err != nil {
				return errors.Wrap(err, "weight_kg")
			}
			lvl.UnitWeight = w
			hasWeight = true
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return stock.Level{}, err
	}

	switch {
	case !hasAvailable:
		return stock.Level{}, errors.New("missing available")
	case !hasWeight:
		return stock.Level{}, errors.New("missing weight_kg")
	case lvl.Available < 0:
		return stock.Level{}, errors.Errorf("negative available %d", lvl.Available)
	case lvl.UnitWeight.IsNegative():
		return stock.Level{}, errors.Errorf("negative weight %s", lvl.UnitWeight)
	}
	return lvl, nil
}
