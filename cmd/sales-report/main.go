package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/fulfillment/internal/domain/product"
	"github.com/xenking/fulfillment/internal/ingest"
	"github.com/xenking/fulfillment/internal/report"
)

func main() {
	var (
		productsFile     string
		transactionsFile string
	)

	flag.StringVar(&productsFile, "products", "data/in/Products.csv", "path to the product catalog CSV")
	flag.StringVar(&transactionsFile, "transactions", "data/in/Transactions.csv", "path to the transaction feed CSV")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Stdout, productsFile, transactionsFile); err != nil {
		slog.Error("sales report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, productsFile, transactionsFile string) error {
	var (
		catalog *product.Catalog
		txs     []ingest.Transaction
	)

	var g errgroup.Group
	g.Go(func() (err error) {
		catalog, err = ingest.LoadProducts(productsFile)
		if err != nil {
			return errors.Wrap(err, "load products")
		}
		return nil
	})
	g.Go(func() (err error) {
		txs, err = ingest.LoadTransactions(transactionsFile)
		if err != nil {
			return errors.Wrap(err, "load transactions")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	slog.Info("inputs loaded",
		slog.Int("products", catalog.Len()),
		slog.Int("transactions", len(txs)),
	)
	if missing := ingest.MissingProducts(catalog, txs); len(missing) > 0 {
		slog.Warn("products missing from catalog", slog.String("products", strings.Join(missing, ", ")))
	}

	return write(out, report.Build(catalog, txs))
}

func write(out io.Writer, r report.Report) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Turnover by category")
	for _, c := range r.ByCategory {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Category, c.Turnover.StringFixed(2))
	}

	fmt.Fprintln(tw, "\nBest category per month")
	for _, m := range r.ByMonth {
		if best, ok := m.Best(); ok {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.Month.Format("2006-01"), best.Category, best.Turnover.StringFixed(2))
		}
	}

	fmt.Fprintln(tw, "\nOrders by weekday")
	for _, d := range r.ByWeekday {
		fmt.Fprintf(tw, "  %s\t%d\n", d.Day, d.Orders)
	}

	busiest := report.Busiest(r.ByWeekday)
	names := make([]string, len(busiest))
	for i, d := range busiest {
		names[i] = d.String()
	}
	fmt.Fprintf(tw, "\nBusiest days: %s\n", strings.Join(names, ", "))

	return tw.Flush()
}
