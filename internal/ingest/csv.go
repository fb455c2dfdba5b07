package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/multierr"
)

// RowError describes a malformed input row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// RowErrors returns the individual row errors contained in err.
func RowErrors(err error) []*RowError {
	var out []*RowError
	for _, e := range multierr.Errors(err) {
		var rowErr *RowError
		if errors.As(e, &rowErr) {
			out = append(out, rowErr)
		}
	}
	return out
}

// readCSV reads a headed CSV table and calls row for every record. Header
// names are matched after trimming surrounding whitespace and a UTF-8 BOM.
// Row failures are collected and returned together after the whole table was
// read.
func readCSV(r io.Reader, required []string, row func(get func(col string) string) error) error {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty input: header row required")
		}
		return errors.Wrap(err, "read header")
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return errors.Errorf("missing column %q", col)
		}
	}

	var errs error
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				errs = multierr.Append(errs, &RowError{Line: pe.Line, Err: pe.Err})
				continue
			}
			return errors.Wrap(err, "read row")
		}

		line, _ := cr.FieldPos(0)
		get := func(col string) string {
			return strings.TrimSpace(rec[idx[col]])
		}
		if err := row(get); err != nil {
			errs = multierr.Append(errs, &RowError{Line: line, Err: err})
		}
	}

	return errs
}
