package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/fulfillment/internal/domain/order"
)

const (
	insertRunSQL = `INSERT INTO fulfillment_runs (id, processed, skipped) VALUES ($1, $2, $3)`

	listResultsSQL = `SELECT order_id, total_value, status, notes, shipping_carrier, shipping_cost
	FROM fulfillment_results
	WHERE run_id = $1
	ORDER BY position`

	countByStatusSQL = `SELECT status, count(*)
	FROM fulfillment_results
	WHERE run_id = $1
	GROUP BY status`
)

var resultColumns = []string{
	"run_id",
	"order_id",
	"position",
	"total_value",
	"status",
	"notes",
	"shipping_carrier",
	"shipping_cost",
}

// ResultRepository stores the final order collection of workflow runs.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository returns a ResultRepository that uses the given pool.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveRun records a run and every order it produced in one transaction.
// Orders keep their position so ListResults returns them in export order.
func (r *ResultRepository) SaveRun(ctx context.Context, summary order.Summary, orders []order.Order) error {
	runID, err := uuid.Parse(summary.RunID)
	if err != nil {
		return fmt.Errorf("parsing run id %q: %w", summary.RunID, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, insertRunSQL, runID, summary.Processed, summary.Skipped); err != nil {
		return fmt.Errorf("creating run %s: %w", runID, err)
	}

	rows := make([][]any, len(orders))
	for i, o := range orders {
		var carrier *string
		if o.ShippingCarrier != "" {
			carrier = &o.ShippingCarrier
		}
		rows[i] = []any{
			runID,
			o.ID,
			int32(i),
			o.TotalValue,
			string(o.Status),
			o.Notes,
			carrier,
			o.ShippingCost,
		}
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"fulfillment_results"}, resultColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copying results of run %s: %w", runID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing run %s: %w", runID, err)
	}
	return nil
}

// ListResults returns the orders stored for a run in their original order.
func (r *ResultRepository) ListResults(ctx context.Context, runID string) ([]order.Order, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("parsing run id %q: %w", runID, err)
	}

	rows, err := r.pool.Query(ctx, listResultsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing results of run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		var (
			o       order.Order
			status  string
			carrier *string
			total   decimal.Decimal
			cost    decimal.Decimal
		)
		if err := rows.Scan(&o.ID, &total, &status, &o.Notes, &carrier, &cost); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		o.Status, err = order.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", o.ID, err)
		}
		if carrier != nil {
			o.ShippingCarrier = *carrier
		}
		o.TotalValue = total
		o.ShippingCost = cost
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}

	return out, nil
}

// CountByStatus returns the number of stored orders per status for a run.
func (r *ResultRepository) CountByStatus(ctx context.Context, runID string) (map[order.Status]int, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("parsing run id %q: %w", runID, err)
	}

	rows, err := r.pool.Query(ctx, countByStatusSQL, id)
	if err != nil {
		return nil, fmt.Errorf("counting results of run %s: %w", runID, err)
	}
	defer rows.Close()

	counts := make(map[order.Status]int)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[order.Status(status)] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}

	return counts, nil
}
