// Package export writes the processed order collection as CSV or JSON.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/fulfillment/internal/domain/order"
)

// Format is an output serialisation.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Header is the column order of every exported row.
var Header = []string{
	"order_id",
	"total_value",
	"status",
	"notes",
	"shipping_carrier",
	"shipping_cost",
}

// ParseFormat validates a format name. An empty name selects the format from
// the path extension, ignoring a trailing .gz.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		ext := filepath.Ext(strings.TrimSuffix(path, ".gz"))
		name = strings.TrimPrefix(ext, ".")
		if name == "" {
			return FormatCSV, nil
		}
	}
	switch f := Format(strings.ToLower(name)); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", errors.Errorf("unsupported output format %q", name)
	}
}

// Write serialises orders to w in the given format.
func Write(w io.Writer, format Format, orders []order.Order) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, orders)
	case FormatJSON:
		return WriteJSON(w, orders)
	default:
		return errors.Errorf("unsupported output format %q", format)
	}
}

// WriteCSV writes a header row followed by one row per order. An unset
// carrier is written as an empty field.
func WriteCSV(w io.Writer, orders []order.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, o := range orders {
		rec := []string{
			o.ID,
			o.TotalValue.StringFixed(2),
			string(o.Status),
			o.Notes,
			o.ShippingCarrier,
			o.ShippingCost.StringFixed(2),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "write order %s", o.ID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	return nil
}

// WriteJSON writes a JSON array with one object per order. An unset carrier
// is written as null.
func WriteJSON(w io.Writer, orders []order.Order) error {
	var e jx.Encoder
	e.ArrStart()
	for _, o := range orders {
		e.ObjStart()
		e.FieldStart("order_id")
		e.Str(o.ID)
		e.FieldStart("total_value")
		e.Raw([]byte(o.TotalValue.StringFixed(2)))
		e.FieldStart("status")
		e.Str(string(o.Status))
		e.FieldStart("notes")
		e.Str(o.Notes)
		e.FieldStart("shipping_carrier")
		if o.ShippingCarrier == "" {
			e.Null()
		} else {
			e.Str(o.ShippingCarrier)
		}
		e.FieldStart("shipping_cost")
		e.Raw([]byte(o.ShippingCost.StringFixed(2)))
		e.ObjEnd()
	}
	e.ArrEnd()

	if _, err := w.Write(e.Bytes()); err != nil {
		return errors.Wrap(err, "write json")
	}
	return nil
}

// WriteFile writes orders to path, gzip-compressed when path ends in .gz.
// The path "-" writes to stdout.
func WriteFile(path string, format Format, orders []order.Order) (err error) {
	if path == "-" {
		return Write(os.Stdout, format, orders)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	if !strings.HasSuffix(path, ".gz") {
		return Write(f, format, orders)
	}

	gz := pgzip.NewWriter(f)
	if err := Write(gz, format, orders); err != nil {
		_ = gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "close gzip writer")
	}
	return nil
}
