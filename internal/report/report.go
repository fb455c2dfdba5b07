// Package report computes sales statistics over the transaction feed:
// turnover per product category, overall and per month, and order counts
// per weekday.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/fulfillment/internal/domain/product"
	"github.com/xenking/fulfillment/internal/ingest"
)

// CategoryTurnover is the revenue of one product category.
type CategoryTurnover struct {
	Category string
	Turnover decimal.Decimal
}

// MonthTurnover is the per-category revenue of one calendar month.
type MonthTurnover struct {
	// Month is the first day of the month, UTC.
	Month time.Time
	// Categories is sorted by turnover, highest first.
	Categories []CategoryTurnover
}

// Best returns the category with the highest turnover in the month.
func (m MonthTurnover) Best() (CategoryTurnover, bool) {
	if len(m.Categories) == 0 {
		return CategoryTurnover{}, false
	}
	return m.Categories[0], true
}

// WeekdayOrders is the number of distinct orders placed on a weekday.
type WeekdayOrders struct {
	Day    time.Weekday
	Orders int
}

// Weekdays lists days Monday first.
var Weekdays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Report is the complete set of statistics.
type Report struct {
	ByCategory []CategoryTurnover
	ByMonth    []MonthTurnover
	ByWeekday  []WeekdayOrders
}

// Build computes every statistic. Transactions whose product is not in the
// catalog have no price or category and are left out of turnover figures,
// but still count as orders.
func Build(catalog *product.Catalog, txs []ingest.Transaction) Report {
	return Report{
		ByCategory: TurnoverByCategory(catalog, txs),
		ByMonth:    TurnoverByMonth(catalog, txs),
		ByWeekday:  OrdersByWeekday(txs),
	}
}

// TurnoverByCategory sums quantity × price per category, highest first.
func TurnoverByCategory(catalog *product.Catalog, txs []ingest.Transaction) []CategoryTurnover {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		p, ok := catalog.Lookup(tx.Product)
		if !ok {
			continue
		}
		totals[p.Category] = totals[p.Category].Add(lineValue(p, tx))
	}
	return sortedTurnover(totals)
}

// TurnoverByMonth is TurnoverByCategory split by calendar month, oldest
// month first.
func TurnoverByMonth(catalog *product.Catalog, txs []ingest.Transaction) []MonthTurnover {
	months := make(map[time.Time]map[string]decimal.Decimal)
	for _, tx := range txs {
		p, ok := catalog.Lookup(tx.Product)
		if !ok {
			continue
		}
		m := time.Date(tx.Date.Year(), tx.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		if months[m] == nil {
			months[m] = make(map[string]decimal.Decimal)
		}
		months[m][p.Category] = months[m][p.Category].Add(lineValue(p, tx))
	}

	out := make([]MonthTurnover, 0, len(months))
	for m, totals := range months {
		out = append(out, MonthTurnover{Month: m, Categories: sortedTurnover(totals)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month.Before(out[j].Month)
	})
	return out
}

// OrdersByWeekday counts distinct transaction ids per weekday, Monday first.
// An order spanning several rows counts once, on the date of its first row.
func OrdersByWeekday(txs []ingest.Transaction) []WeekdayOrders {
	seen := make(map[string]struct{})
	counts := make(map[time.Weekday]int)
	for _, tx := range txs {
		if _, ok := seen[tx.OrderID]; ok {
			continue
		}
		seen[tx.OrderID] = struct{}{}
		counts[tx.Date.Weekday()]++
	}

	out := make([]WeekdayOrders, len(Weekdays))
	for i, d := range Weekdays {
		out[i] = WeekdayOrders{Day: d, Orders: counts[d]}
	}
	return out
}

// Busiest returns the weekdays sharing the highest order count.
func Busiest(days []WeekdayOrders) []time.Weekday {
	top := 0
	for _, d := range days {
		top = max(top, d.Orders)
	}
	if top == 0 {
		return nil
	}
	var out []time.Weekday
	for _, d := range days {
		if d.Orders == top {
			out = append(out, d.Day)
		}
	}
	return out
}

func lineValue(p product.Product, tx ingest.Transaction) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(tx.Quantity)))
}

func sortedTurnover(totals map[string]decimal.Decimal) []CategoryTurnover {
	out := make([]CategoryTurnover, 0, len(totals))
	for c, v := range totals {
		out = append(out, CategoryTurnover{Category: c, Turnover: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Turnover.Cmp(out[j].Turnover); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
