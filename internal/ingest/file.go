// Package ingest loads the workflow inputs: the product catalog and the
// transaction feed (CSV), the stock catalog (JSON), and builds the order
// collection from them. Files ending in .gz are decompressed on the fly.
package ingest

import (
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
)

type gzipFile struct {
	*pgzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gzErr
}

// Open opens path for reading, transparently decompressing .gz files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

// readFile opens path and passes it to fn.
func readFile[T any](path string, fn func(r io.Reader) (T, error)) (T, error) {
	var zero T

	rc, err := Open(path)
	if err != nil {
		return zero, err
	}
	defer func() { _ = rc.Close() }()

	v, err := fn(rc)
	if err != nil {
		return zero, errors.Wrapf(err, "read %s", path)
	}
	return v, nil
}
