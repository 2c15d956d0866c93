package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidGranularity = errors.New("invalid granularity")

const (
	GranularityMonth Granularity = "MONTH"
	GranularityDay   Granularity = "DAY"
)

type (
	Granularity string

	// PeriodBucket is one fixed-granularity time window of an aggregated
	// ledger. RunningBalance carries the balance at the end of the
	// bucket, including all history before the aggregation window.
	PeriodBucket struct {
		Label          string
		Income         decimal.Decimal
		Expense        decimal.Decimal
		RunningBalance decimal.Decimal
	}
)

func (g Granularity) Valid() bool {
	return g == GranularityMonth || g == GranularityDay
}

func (g Granularity) label(d Date) string {
	if g == GranularityMonth {
		return d.Format("2006-01")
	}
	return d.Format("2006-01-02")
}

// next returns the start of the calendar unit following d.
func (g Granularity) next(d Date) Date {
	if g == GranularityMonth {
		return Date{Time: time.Date(d.Year(), d.Time.Month()+1, 1, 0, 0, 0, 0, time.UTC)}
	}
	return Date{Time: d.AddDate(0, 0, 1)}
}

// AggregateByPeriod buckets records into every calendar unit of
// [start, end] inclusive, with income and expense totals per bucket and
// a carry-forward running balance.
//
// The initial balance is the signed sum of all records dated strictly
// before start, so the window joins seamlessly onto prior history. Every
// unit in the window gets a bucket even when no record falls in it, and
// the final bucket's RunningBalance is the same for MONTH and DAY
// granularity over the same window and records.
func AggregateByPeriod(records []LedgerRecord, start, end Date, g Granularity) []PeriodBucket {
	if start.After(end) {
		return []PeriodBucket{}
	}

	initial := decimal.Zero
	for _, r := range records {
		if r.Date.Before(start) {
			initial = initial.Add(signedAmount(r))
		}
	}

	var buckets []PeriodBucket
	index := make(map[string]int)
	for d := start; !d.After(end); d = g.next(d) {
		label := g.label(d)
		index[label] = len(buckets)
		buckets = append(buckets, PeriodBucket{
			Label:   label,
			Income:  decimal.Zero,
			Expense: decimal.Zero,
		})
	}

	for _, r := range records {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		i, ok := index[g.label(r.Date)]
		if !ok {
			continue
		}
		if r.Type == Expense {
			buckets[i].Expense = buckets[i].Expense.Add(r.Amount)
		} else {
			buckets[i].Income = buckets[i].Income.Add(r.Amount)
		}
	}

	running := initial
	for i := range buckets {
		running = running.Add(buckets[i].Income).Sub(buckets[i].Expense)
		buckets[i].RunningBalance = running
	}
	return buckets
}
