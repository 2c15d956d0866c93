package core

import "github.com/shopspring/decimal"

// DuesStats summarizes a collection campaign. All fields are derived
// from the event and its records on every call; nothing here is stored.
type DuesStats struct {
	TotalExpected decimal.Decimal
	Collected     decimal.Decimal
	Outstanding   decimal.Decimal
	PaidCount     int
	TotalCount    int
	Rate          float64 // paid members as a percentage, 0 for an empty roster
}

// ExpectedAmount resolves what a member is expected to pay: the record's
// override when present, the event's default target otherwise. Callers
// must not cache the result; it is recomputed on every read so an event
// edit is reflected everywhere at once.
func ExpectedAmount(event DuesEvent, record DuesRecord) decimal.Decimal {
	if record.ExpectedOverride != nil {
		return *record.ExpectedOverride
	}
	return event.TargetAmount
}

// ClassifyPayment derives a record's completion state from the paid and
// expected amounts. Overpayment still classifies as Paid.
func ClassifyPayment(paid, expected decimal.Decimal) PaymentStatus {
	switch {
	case paid.Sign() <= 0:
		return Unpaid
	case paid.GreaterThanOrEqual(expected):
		return Paid
	default:
		return Partial
	}
}

// ComputeDuesStats aggregates a dues event's records into campaign
// statistics. An empty roster yields zero values, never a zero-division.
func ComputeDuesStats(event DuesEvent, records []DuesRecord) DuesStats {
	stats := DuesStats{
		TotalExpected: decimal.Zero,
		Collected:     decimal.Zero,
		Outstanding:   decimal.Zero,
		TotalCount:    len(records),
	}
	for _, r := range records {
		expected := ExpectedAmount(event, r)
		stats.TotalExpected = stats.TotalExpected.Add(expected)
		stats.Collected = stats.Collected.Add(r.PaidAmount)
		if ClassifyPayment(r.PaidAmount, expected) == Paid {
			stats.PaidCount++
		}
	}
	stats.Outstanding = stats.TotalExpected.Sub(stats.Collected)
	if stats.TotalCount > 0 {
		stats.Rate = float64(stats.PaidCount) / float64(stats.TotalCount) * 100
	}
	return stats
}
