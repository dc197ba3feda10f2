package pension

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT STATISTICS
// =============================================================================
//
// A snapshot aggregates the payments of one month. Every payment recorded
// for the period counts regardless of its status: the snapshot reports what
// was ordered for disbursement, and a failed transfer is retried as a new
// payment rather than edited.

// AggregatePayments builds the snapshot of period from payments. Payments
// outside the period are ignored.
func AggregatePayments(period YearMonth, payments []Payment, at time.Time) PaymentStatistics {
	total := decimal.Zero
	count := 0
	for _, p := range payments {
		if p.Period != period {
			continue
		}
		total = total.Add(p.Amount)
		count++
	}
	return PaymentStatistics{
		Period:         period,
		TotalDisbursed: total,
		FileCount:      count,
		Average:        AverageOf(total, count),
		RecordedAt:     at,
	}
}

// GlobalStatistics sums snapshots across all periods. Period is left zero.
func GlobalStatistics(snapshots []PaymentStatistics) PaymentStatistics {
	total := decimal.Zero
	count := 0
	var last time.Time
	for _, s := range snapshots {
		total = total.Add(s.TotalDisbursed)
		count += s.FileCount
		if s.RecordedAt.After(last) {
			last = s.RecordedAt
		}
	}
	return PaymentStatistics{
		TotalDisbursed: total,
		FileCount:      count,
		Average:        AverageOf(total, count),
		RecordedAt:     last,
	}
}
